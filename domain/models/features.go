package models

// QualityAnalysis is the per-image quality snapshot used for the enhancement
// decision and the mock predictor. All fields are normalized; immutable once built.
type QualityAnalysis struct {
	AverageBrightness float64 `json:"average_brightness"` // [0,1]
	Contrast          float64 `json:"contrast"`           // [0,1]
	Sharpness         float64 `json:"sharpness"`          // >= 0
	QualityScore      float64 `json:"quality_score"`      // [0,1]
	IsBlurry          bool    `json:"is_blurry"`
	BrightnessIssue   bool    `json:"brightness_issue"`
}

// LeafFeatures describes color, texture and shape characteristics of the leaf.
// CoffeeLeafScore is a deterministic weighted function of the other fields.
type LeafFeatures struct {
	GreenRatio      float64 `json:"green_ratio"`      // [0,1]
	BrownRatio      float64 `json:"brown_ratio"`      // [0,1]
	YellowRatio     float64 `json:"yellow_ratio"`     // [0,1]
	AvgHue          float64 `json:"avg_hue"`          // [0,360)
	AvgSaturation   float64 `json:"avg_saturation"`   // [0,1]
	AvgValue        float64 `json:"avg_value"`        // [0,1]
	AvgTexture      float64 `json:"avg_texture"`      // >= 0, 0-255 scale
	ShapeComplexity float64 `json:"shape_complexity"` // >= 0
	EdgeDensity     float64 `json:"edge_density"`     // [0,1]
	CoffeeLeafScore float64 `json:"coffee_leaf_score"` // [0,1]
}

// EnvironmentalFactors flags lighting and background conditions that degrade
// classification quality.
type EnvironmentalFactors struct {
	HasShadow         bool    `json:"has_shadow"`
	HasHighlight      bool    `json:"has_highlight"`
	ComplexBackground bool    `json:"complex_background"`
	ShadowRatio       float64 `json:"shadow_ratio"`    // [0,1]
	HighlightRatio    float64 `json:"highlight_ratio"` // [0,1]
	EdgeDensity       float64 `json:"edge_density"`    // [0,1]
}

// ClassProbability is one post-softmax (disease, confidence) pair.
type ClassProbability struct {
	DiseaseName string  `json:"disease_name"`
	Confidence  float64 `json:"confidence"` // [0,1]
}

// TensorLayout selects the numeric layout a model expects.
type TensorLayout int

const (
	LayoutChannelFirst TensorLayout = iota // NCHW, ImageNet normalization
	LayoutChannelLast                      // NHWC, plain [0,1] scaling
)

func (l TensorLayout) String() string {
	if l == LayoutChannelFirst {
		return "channel_first"
	}
	return "channel_last"
}

// ModelHandle is the immutable metadata of a loaded model. The inference engine
// swaps the whole value atomically; callers must never observe a mix of fields
// from two different loads.
type ModelHandle struct {
	InputName  string
	OutputName string
	Layout     TensorLayout
	InputShape []int64 // full declared shape, e.g. [1 3 224 224]
	NumClasses int
	Version    string // file basename + mod time, used for cache keying
}
