package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"coffee-analysis/domain/ports"
)

// LocalStorage keeps leaf images on the local filesystem. Refs are relative
// paths under the base directory.
type LocalStorage struct {
	basePath string
}

type LocalStorageConfig struct {
	BasePath string // ./uploads
}

func NewLocalStorage(config LocalStorageConfig) (ports.ImageStoragePort, error) {
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: config.BasePath}, nil
}

func (l *LocalStorage) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := newImageRef(contentType)
	fullPath := filepath.Join(l.basePath, ref)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return ref, nil
}

func (l *LocalStorage) Read(ctx context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, cleanRef(ref)))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(ctx context.Context, ref string) error {
	fullPath := filepath.Join(l.basePath, cleanRef(ref))

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	l.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

func (l *LocalStorage) ProviderName() string {
	return "local"
}

func (l *LocalStorage) cleanupEmptyDirs(dir string) {
	absBase, _ := filepath.Abs(l.basePath)
	absDir, _ := filepath.Abs(dir)

	for absDir != absBase && strings.HasPrefix(absDir, absBase) {
		entries, err := os.ReadDir(absDir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(absDir)
		absDir = filepath.Dir(absDir)
	}
}

// newImageRef builds a date-sharded opaque ref, e.g. "leaves/2f/2f9c...-a1.jpg".
func newImageRef(contentType string) string {
	id := uuid.New().String()
	return fmt.Sprintf("leaves/%s/%s%s", id[:2], id, extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func cleanRef(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	return strings.TrimPrefix(ref, "/")
}
