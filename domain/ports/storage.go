package ports

import "context"

// ImageStoragePort is the narrow contract with the image store. The core never
// manages file paths directly; refs are opaque.
type ImageStoragePort interface {
	// Save stores raw image bytes and returns an opaque ref.
	Save(ctx context.Context, data []byte, contentType string) (string, error)

	// Read loads the bytes behind a ref.
	Read(ctx context.Context, ref string) ([]byte, error)

	// Delete removes a stored image. Best effort.
	Delete(ctx context.Context, ref string) error

	// ProviderName identifies the backend (local, s3).
	ProviderName() string
}
