package models

// Known symptom identifiers. The symptom classifier encodes a request as a
// fixed-length indicator vector with one slot per entry here; identifiers
// outside the range are ignored.
const (
	SymptomYellowSpots = iota
	SymptomBrownSpots
	SymptomOrangePustules
	SymptomWindingGalleries
	SymptomLeafCurling
	SymptomMarginNecrosis
	SymptomDefoliation
	SymptomDarkLesions
	SymptomYellowHalo
	SymptomPowderyUnderside
	SymptomHoles
	SymptomWilting

	SymptomCount
)

var symptomNames = [SymptomCount]string{
	"yellow spots",
	"brown spots",
	"orange pustules",
	"winding galleries",
	"leaf curling",
	"margin necrosis",
	"defoliation",
	"dark lesions",
	"yellow halo",
	"powdery underside",
	"holes",
	"wilting",
}

// SymptomName returns the display name for an id, or empty for unknown ids.
func SymptomName(id int) string {
	if id < 0 || id >= SymptomCount {
		return ""
	}
	return symptomNames[id]
}

// EncodeSymptoms builds the indicator vector for the classifier. Unknown ids
// are dropped silently.
func EncodeSymptoms(ids []int) []float32 {
	vec := make([]float32, SymptomCount)
	for _, id := range ids {
		if id >= 0 && id < SymptomCount {
			vec[id] = 1.0
		}
	}
	return vec
}

// CountKnownSymptoms returns how many of the supplied ids are in range.
func CountKnownSymptoms(ids []int) int {
	n := 0
	for _, id := range ids {
		if id >= 0 && id < SymptomCount {
			n++
		}
	}
	return n
}
