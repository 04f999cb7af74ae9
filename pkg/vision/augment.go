package vision

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Augmentation is one perturbed variant of the base image for ensemble
// inference. Variants never share pixel buffers with the base or each other.
type Augmentation struct {
	Name  string
	Image *image.NRGBA
}

// Augmentations produces the fixed ordered variant set: identity, small
// rotations, brightness, contrast and saturation perturbations.
func Augmentations(base *image.NRGBA) []Augmentation {
	return []Augmentation{
		{Name: "identity", Image: imaging.Clone(base)},
		{Name: "rotate+2", Image: imaging.Rotate(base, 2, color.NRGBA{})},
		{Name: "rotate-2", Image: imaging.Rotate(base, -2, color.NRGBA{})},
		{Name: "brighten", Image: imaging.AdjustBrightness(base, 10)},
		{Name: "darken", Image: imaging.AdjustBrightness(base, -10)},
		{Name: "contrast+", Image: imaging.AdjustContrast(base, 10)},
		{Name: "contrast-", Image: imaging.AdjustContrast(base, -10)},
		{Name: "saturate", Image: imaging.AdjustSaturation(base, 10)},
	}
}
