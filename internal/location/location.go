package location

import "strings"

// Scale classifies the granularity of a place mention.
type Scale string

const (
	ScaleCountry      Scale = "country"
	ScaleState        Scale = "state"
	ScaleCity         Scale = "city"
	ScaleNeighborhood Scale = "neighborhood"
	ScaleLandmark     Scale = "landmark"
	ScaleBuilding     Scale = "building"
	ScaleOther        Scale = "other"
)

var validScales = map[Scale]bool{
	ScaleCountry:      true,
	ScaleState:        true,
	ScaleCity:         true,
	ScaleNeighborhood: true,
	ScaleLandmark:     true,
	ScaleBuilding:     true,
	ScaleOther:        true,
}

// ValidScale reports whether s is a known scale value.
func ValidScale(s Scale) bool {
	return validScales[s]
}

// AllScales returns every scale value in display order.
func AllScales() []Scale {
	return []Scale{
		ScaleCountry, ScaleState, ScaleCity, ScaleNeighborhood,
		ScaleLandmark, ScaleBuilding, ScaleOther,
	}
}

// Mention is a single place reference extracted from one chunk.
type Mention struct {
	Name          string  `json:"name"`
	TextReference string  `json:"text_reference"`
	Confidence    float64 `json:"confidence"`
	ChunkIndex    int     `json:"chunk_index"`
	Scale         Scale   `json:"scale"`
	SourceModel   string  `json:"source_model"`
}

// Merged is the folded form of all mentions sharing a canonical name.
type Merged struct {
	Name          string  `json:"name"`
	TextReference string  `json:"text_reference"`
	Confidence    float64 `json:"confidence"`
	Scale         Scale   `json:"scale"`
	// FirstMentionOrder is the lowest chunk index across all merged
	// mentions, which can be earlier than the first-encountered one.
	FirstMentionOrder int `json:"first_mention_order"`
}

// Geocoded is a merged location decorated with coordinates. Locations the
// geocoder could not resolve are kept with Geocoded=false so callers can
// see the discrepancy.
type Geocoded struct {
	Name              string   `json:"name"`
	Confidence        float64  `json:"confidence"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	TextReference     string   `json:"text_reference"`
	Scale             Scale    `json:"scale"`
	FirstMentionOrder int      `json:"first_mention_order"`
	Geocoded          bool     `json:"geocoded"`
}

// CanonicalKey returns the dedup key for a place name.
func CanonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
