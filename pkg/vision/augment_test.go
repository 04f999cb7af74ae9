package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAugmentations_FixedOrderedSet(t *testing.T) {
	base := leafLikeImage(32, 32)
	variants := Augmentations(base)

	require.Len(t, variants, 8)
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
		require.NotNil(t, v.Image, "variant %s", v.Name)
	}
	assert.Equal(t, []string{
		"identity", "rotate+2", "rotate-2",
		"brighten", "darken", "contrast+", "contrast-", "saturate",
	}, names)
}

func TestAugmentations_NoSharedBuffers(t *testing.T) {
	base := leafLikeImage(32, 32)
	snapshot := append([]uint8(nil), base.Pix...)

	variants := Augmentations(base)

	// Mutating a variant must not leak into the base or a sibling.
	for i := range variants[0].Image.Pix {
		variants[0].Image.Pix[i] = 0
	}
	assert.Equal(t, snapshot, base.Pix, "base image must stay untouched")
	assert.NotEqual(t, variants[0].Image.Pix[:16], variants[3].Image.Pix[:16])
}

func TestAugmentations_BrightnessVariantsDiffer(t *testing.T) {
	base := leafLikeImage(16, 16)
	variants := Augmentations(base)

	brighter := AnalyzeQuality(variants[3].Image).AverageBrightness
	darker := AnalyzeQuality(variants[4].Image).AverageBrightness
	assert.Greater(t, brighter, darker)
}
