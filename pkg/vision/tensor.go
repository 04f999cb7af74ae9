package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"coffee-analysis/domain/models"
)

// ImageNet channel statistics for channel-first models.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// EncodeTensor resizes the bitmap to the model's spatial size and emits the
// numeric tensor in the layout the handle declares: channel-first with
// ImageNet normalization, or channel-last with plain [0,1] scaling. The layout
// comes from the handle because model files disagree on it.
func EncodeTensor(img *image.NRGBA, handle models.ModelHandle) ([]float32, []int64, error) {
	size, err := spatialSize(handle)
	if err != nil {
		return nil, nil, err
	}

	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	switch handle.Layout {
	case models.LayoutChannelFirst:
		return encodeCHW(resized, size), []int64{1, 3, int64(size), int64(size)}, nil
	case models.LayoutChannelLast:
		return encodeHWC(resized, size), []int64{1, int64(size), int64(size), 3}, nil
	default:
		return nil, nil, fmt.Errorf("unknown tensor layout %d", handle.Layout)
	}
}

func spatialSize(handle models.ModelHandle) (int, error) {
	shape := handle.InputShape
	if len(shape) != 4 {
		return 0, fmt.Errorf("unsupported input rank %d", len(shape))
	}
	var size int64
	if handle.Layout == models.LayoutChannelFirst {
		size = shape[2]
	} else {
		size = shape[1]
	}
	if size <= 0 {
		return 0, fmt.Errorf("non-positive spatial size %d", size)
	}
	return int(size), nil
}

func encodeCHW(img *image.NRGBA, size int) []float32 {
	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := img.PixOffset(x, y)
			idx := y*size + x
			for c := 0; c < 3; c++ {
				v := float32(img.Pix[i+c]) / 255.0
				data[c*plane+idx] = (v - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return data
}

func encodeHWC(img *image.NRGBA, size int) []float32 {
	data := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := img.PixOffset(x, y)
			idx := (y*size + x) * 3
			data[idx] = float32(img.Pix[i]) / 255.0
			data[idx+1] = float32(img.Pix[i+1]) / 255.0
			data[idx+2] = float32(img.Pix[i+2]) / 255.0
		}
	}
	return data
}

// Softmax converts raw class scores to probabilities summing to 1.
func Softmax(scores []float32) []float64 {
	if len(scores) == 0 {
		return nil
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	exp := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exp[i] = math.Exp(float64(s - max))
		sum += exp[i]
	}
	for i := range exp {
		exp[i] /= sum
	}
	return exp
}
