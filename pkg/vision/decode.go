package vision

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"coffee-analysis/domain/models"
)

// Decode parses raw image bytes into an NRGBA bitmap. Invalid bytes are a
// caller error and surface as models.ErrDecodeFailed.
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", models.ErrDecodeFailed)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDecodeFailed, err)
	}

	nrgba := imaging.Clone(img)
	if nrgba.Bounds().Dx() == 0 || nrgba.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", models.ErrDecodeFailed)
	}
	return nrgba, nil
}
