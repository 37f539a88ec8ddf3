package extract

import (
	"testing"

	"litmap/internal/location"
)

func validRecord() rawRecord {
	conf := 0.9
	return rawRecord{
		Name:          "Paris",
		TextReference: "Sarah went to Paris.",
		Confidence:    &conf,
		Scale:         "city",
	}
}

func TestValidateRecord_ValidPasses(t *testing.T) {
	m, err := validateRecord(validRecord(), 3, "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Paris" || m.ChunkIndex != 3 || m.SourceModel != "gemini-2.5-flash" {
		t.Errorf("unexpected mention: %+v", m)
	}
	if m.Scale != location.ScaleCity {
		t.Errorf("expected scale city, got %q", m.Scale)
	}
}

func TestValidateRecord_MissingName(t *testing.T) {
	r := validRecord()
	r.Name = "  "
	if _, err := validateRecord(r, 0, "m"); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestValidateRecord_MissingTextReference(t *testing.T) {
	r := validRecord()
	r.TextReference = ""
	if _, err := validateRecord(r, 0, "m"); err == nil {
		t.Error("expected error for missing text_reference")
	}
}

func TestValidateRecord_MissingConfidence(t *testing.T) {
	r := validRecord()
	r.Confidence = nil
	if _, err := validateRecord(r, 0, "m"); err == nil {
		t.Error("expected error for missing confidence")
	}
}

func TestValidateRecord_ConfidenceOutOfRange(t *testing.T) {
	r := validRecord()
	over := 1.5
	r.Confidence = &over
	if _, err := validateRecord(r, 0, "m"); err == nil {
		t.Error("expected error for confidence > 1")
	}
	under := -0.1
	r.Confidence = &under
	if _, err := validateRecord(r, 0, "m"); err == nil {
		t.Error("expected error for confidence < 0")
	}
}

func TestValidateRecord_UnknownScale(t *testing.T) {
	r := validRecord()
	r.Scale = "galaxy"
	_, err := validateRecord(r, 0, "m")
	if err == nil {
		t.Fatal("expected error for unknown scale")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestValidateRecord_ScaleNormalized(t *testing.T) {
	r := validRecord()
	r.Scale = " Landmark "
	m, err := validateRecord(r, 0, "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Scale != location.ScaleLandmark {
		t.Errorf("expected scale landmark, got %q", m.Scale)
	}
}
