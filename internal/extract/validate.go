package extract

import (
	"encoding/json"
	"strings"

	"litmap/internal/location"
)

// rawRecord is the wire shape of one extracted location. Confidence is a
// pointer so a missing field is distinguishable from 0.
type rawRecord struct {
	Name          string   `json:"name"`
	TextReference string   `json:"text_reference"`
	Confidence    *float64 `json:"confidence"`
	Scale         string   `json:"scale"`
}

// decodeRecords strips fences, repairs truncation, and parses the payload
// into raw records. A single bare object is accepted as a one-element list.
func decodeRecords(raw string) ([]rawRecord, error) {
	text := repairJSON(stripCodeBlock(raw))

	if strings.HasPrefix(text, "{") {
		var rec rawRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, &MalformedResponseError{Reason: err.Error(), Raw: raw}
		}
		return []rawRecord{rec}, nil
	}

	var recs []rawRecord
	if err := json.Unmarshal([]byte(text), &recs); err != nil {
		return nil, &MalformedResponseError{Reason: err.Error(), Raw: raw}
	}
	return recs, nil
}

// validateRecord checks required fields and converts a raw record into a
// mention. Failure is per-record: the caller skips and moves on.
func validateRecord(r rawRecord, chunkIndex int, model string) (location.Mention, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return location.Mention{}, &ValidationError{Field: "name", Reason: "missing"}
	}
	if strings.TrimSpace(r.TextReference) == "" {
		return location.Mention{}, &ValidationError{Field: "text_reference", Reason: "missing"}
	}
	if r.Confidence == nil {
		return location.Mention{}, &ValidationError{Field: "confidence", Reason: "missing"}
	}
	if *r.Confidence < 0 || *r.Confidence > 1 {
		return location.Mention{}, &ValidationError{Field: "confidence", Reason: "outside [0,1]"}
	}
	scale := location.Scale(strings.ToLower(strings.TrimSpace(r.Scale)))
	if !location.ValidScale(scale) {
		return location.Mention{}, &ValidationError{Field: "scale", Reason: "unknown value " + r.Scale}
	}
	return location.Mention{
		Name:          name,
		TextReference: strings.TrimSpace(r.TextReference),
		Confidence:    *r.Confidence,
		ChunkIndex:    chunkIndex,
		Scale:         scale,
		SourceModel:   model,
	}, nil
}
