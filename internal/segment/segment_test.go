package segment

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit_NoAnchorsSingleUnlabeledSection(t *testing.T) {
	text := strings.Repeat("plain narrative text ", 20)
	chunks, err := Split(text, Config{ChunkSize: 10000, Overlap: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ParentLabel != UnlabeledSection {
		t.Errorf("expected label %q, got %q", UnlabeledSection, chunks[0].ParentLabel)
	}
	if chunks[0].SequenceID != "Unlabeled.1" {
		t.Errorf("expected sequence id %q, got %q", "Unlabeled.1", chunks[0].SequenceID)
	}
}

func TestSplit_ShortSectionYieldsOneChunk(t *testing.T) {
	text := "Chapter 1\nA short chapter."
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ParentLabel != "Chapter 1" {
		t.Errorf("expected label %q, got %q", "Chapter 1", chunks[0].ParentLabel)
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk to cover whole section, got %q", chunks[0].Text)
	}
}

func TestSplit_AnchorsPartitionSections(t *testing.T) {
	text := "Prologue\nBefore the story. " +
		"Chapter 1\nSarah went to Paris. " +
		"Chapter 2\nThen on to London."
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLabels := []string{"Prologue", "Chapter 1", "Chapter 2"}
	for i, w := range wantLabels {
		if chunks[i].ParentLabel != w {
			t.Errorf("chunk %d: expected label %q, got %q", i, w, chunks[i].ParentLabel)
		}
	}
}

func TestSplit_PreambleBeforeFirstAnchorIsKept(t *testing.T) {
	text := "A dedication page. Chapter 1\nThe story begins."
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ParentLabel != UnlabeledSection {
		t.Errorf("expected preamble label %q, got %q", UnlabeledSection, chunks[0].ParentLabel)
	}
	if chunks[0].StartOffset != 0 {
		t.Errorf("expected preamble to start at 0, got %d", chunks[0].StartOffset)
	}
}

func TestSplit_CoverageAndExactOverlap(t *testing.T) {
	text := strings.Repeat("x", 3700)
	cfg := Config{ChunkSize: 1500, Overlap: 300}
	chunks, err := Split(text, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0].StartOffset != 0 {
		t.Errorf("first chunk should start at 0, got %d", chunks[0].StartOffset)
	}
	if chunks[len(chunks)-1].EndOffset != 3700 {
		t.Errorf("last chunk should end at text length, got %d", chunks[len(chunks)-1].EndOffset)
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset > prev.EndOffset {
			t.Errorf("gap between chunk %d and %d: [%d,%d) then [%d,%d)",
				i-1, i, prev.StartOffset, prev.EndOffset, cur.StartOffset, cur.EndOffset)
		}
		if overlap := prev.EndOffset - cur.StartOffset; overlap != cfg.Overlap {
			t.Errorf("chunks %d/%d: expected overlap %d, got %d", i-1, i, cfg.Overlap, overlap)
		}
	}
}

func TestSplit_SequenceIDsCountWithinLabel(t *testing.T) {
	text := "Chapter 1\n" + strings.Repeat("y", 2500)
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].SequenceID != "Chapter 1.1" || chunks[1].SequenceID != "Chapter 1.2" {
		t.Errorf("unexpected sequence ids %q, %q", chunks[0].SequenceID, chunks[1].SequenceID)
	}
}

func TestSplit_OverlapAtLeastChunkSizeRejected(t *testing.T) {
	_, err := Split("some text", Config{ChunkSize: 100, Overlap: 100})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	_, err = Split("some text", Config{ChunkSize: 100, Overlap: 150})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for overlap > size, got %v", err)
	}
}

func TestSplit_NegativeOverlapRejected(t *testing.T) {
	_, err := Split("some text", Config{ChunkSize: 100, Overlap: -1})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSplit_InvalidAnchorPatternRejected(t *testing.T) {
	cfg := Config{ChunkSize: 100, Overlap: 10, AnchorPatterns: []string{"("}}
	_, err := Split("some text", cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSplit_EmptyTextYieldsNoChunks(t *testing.T) {
	chunks, err := Split("", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_CaseInsensitiveAnchors(t *testing.T) {
	text := "CHAPTER 1\nLoud beginnings. chapter 2\nQuiet endings."
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ParentLabel != "CHAPTER 1" || chunks[1].ParentLabel != "chapter 2" {
		t.Errorf("unexpected labels %q, %q", chunks[0].ParentLabel, chunks[1].ParentLabel)
	}
}

func TestSplit_RomanNumeralParts(t *testing.T) {
	text := "Part IV\nThe continuing saga."
	chunks, err := Split(text, Config{ChunkSize: 1500, Overlap: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ParentLabel != "Part IV" {
		t.Errorf("expected label %q, got %q", "Part IV", chunks[0].ParentLabel)
	}
}

func TestSplit_PreviewBounded(t *testing.T) {
	text := strings.Repeat("w ", 600)
	chunks, err := Split(text, Config{ChunkSize: 5000, Overlap: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if n := len([]rune(chunks[0].Preview)); n > 200 {
		t.Errorf("expected preview <= 200 runes, got %d", n)
	}
}
