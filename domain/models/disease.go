package models

// Disease labels the image model was trained on, in output-index order.
// NotCoffeeLeaf is a sentinel produced by the leaf-score gate, never by the model.
const (
	DiseaseCercospora = "Cercospora"
	DiseaseHealthy    = "Healthy"
	DiseaseLeafMiner  = "Leaf Miner"
	DiseaseLeafRust   = "Leaf Rust"
	DiseasePhoma      = "Phoma"

	NotCoffeeLeaf = "Not Coffee Leaf"
)

// DiseaseClasses is the fixed class set; index matches the model output tensor.
var DiseaseClasses = []string{
	DiseaseCercospora,
	DiseaseHealthy,
	DiseaseLeafMiner,
	DiseaseLeafRust,
	DiseasePhoma,
}

// IsKnownDisease reports whether name belongs to the fixed class set.
func IsKnownDisease(name string) bool {
	for _, d := range DiseaseClasses {
		if d == name {
			return true
		}
	}
	return false
}

// Severity labels derived from confidence.
const (
	SeverityNone     = "None"
	SeverityLow      = "Low"
	SeverityModerate = "Moderate"
	SeverityHigh     = "High"
)

// SeverityForConfidence maps a confidence to an ordinal severity label.
// Healthy and the sentinel always map to None.
func SeverityForConfidence(disease string, confidence float64) string {
	if disease == DiseaseHealthy || disease == NotCoffeeLeaf {
		return SeverityNone
	}
	switch {
	case confidence >= 0.8:
		return SeverityHigh
	case confidence >= 0.5:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// DiseaseInfo carries the caller-visible description and treatment guidance.
type DiseaseInfo struct {
	Description string `json:"description"`
	Treatment   string `json:"treatment"`
}

var diseaseCatalog = map[string]DiseaseInfo{
	DiseaseCercospora: {
		Description: "Brown eye spot caused by Cercospora coffeicola. Circular brown lesions with light centers, often with a yellow halo.",
		Treatment:   "Apply copper-based fungicide, improve shading and nitrogen nutrition, remove heavily infected leaves.",
	},
	DiseaseHealthy: {
		Description: "No visible disease symptoms detected on the leaf.",
		Treatment:   "No treatment required. Maintain regular monitoring and balanced fertilization.",
	},
	DiseaseLeafMiner: {
		Description: "Coffee leaf miner (Leucoptera coffeella) larvae tunnelling inside the leaf tissue, leaving winding pale galleries.",
		Treatment:   "Release parasitoid wasps where available, apply selective insecticide, remove mined leaves to break the cycle.",
	},
	DiseaseLeafRust: {
		Description: "Coffee leaf rust caused by Hemileia vastatrix. Orange-yellow powdery pustules on the underside of leaves.",
		Treatment:   "Apply systemic fungicide (triazole), prune for airflow, consider rust-resistant cultivars for replanting.",
	},
	DiseasePhoma: {
		Description: "Phoma leaf spot. Dark brown to black irregular lesions, typically starting at leaf margins in cold, wind-exposed plots.",
		Treatment:   "Install windbreaks, apply protective fungicide before cold fronts, prune affected branches.",
	},
	NotCoffeeLeaf: {
		Description: "The submitted image does not appear to contain a coffee leaf.",
		Treatment:   "Retake the photo with a single coffee leaf filling most of the frame, against a plain background.",
	},
}

// InfoForDisease returns catalog data for a label, falling back to an empty entry.
func InfoForDisease(name string) DiseaseInfo {
	if info, ok := diseaseCatalog[name]; ok {
		return info
	}
	return DiseaseInfo{}
}
