package inference

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"coffee-analysis/domain/models"
)

// LocateModel probes candidate paths in order and returns the first existing
// file. A miss on every path means the deployment runs without that model.
func LocateModel(candidates []string) (string, error) {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: probed %d paths", models.ErrModelNotFound, len(candidates))
}

// modelVersion derives a cache-keying version from the file identity, so a
// replaced model file on disk produces a different version after reload.
func modelVersion(path string) string {
	base := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return base
	}
	return fmt.Sprintf("%s@%d", base, info.ModTime().Unix())
}

// configureSharedLibrary points onnxruntime_go at the shared library. An
// explicit path from config wins; otherwise common system locations are probed.
func configureSharedLibrary(explicit string) error {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("onnxruntime library not found at %s", explicit)
		}
		ort.SetSharedLibraryPath(explicit)
		return nil
	}

	libName := "libonnxruntime.so"
	switch runtime.GOOS {
	case "darwin":
		libName = "libonnxruntime.dylib"
	case "windows":
		libName = "onnxruntime.dll"
	}

	for _, p := range []string{
		filepath.Join("/usr/local/lib", libName),
		filepath.Join("/usr/lib", libName),
		filepath.Join("/opt/onnxruntime/lib", libName),
		filepath.Join("onnxruntime", "lib", libName),
	} {
		if _, err := os.Stat(p); err == nil {
			ort.SetSharedLibraryPath(p)
			return nil
		}
	}

	// Fall back to the default loader search path.
	return nil
}
