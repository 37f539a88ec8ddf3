package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Config controls segmentation behavior. Sizes are in runes.
type Config struct {
	ChunkSize      int      // Target chunk size.
	Overlap        int      // Overlap between consecutive chunks in a section.
	AnchorPatterns []string // Regex sources for chapter/section anchors; defaults used when empty.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 1500,
		Overlap:   300,
	}
}

// DefaultAnchorPatterns match common chapter/section headings.
var DefaultAnchorPatterns = []string{
	`(?i)\bchapter\s+(?:\d+|[ivxlc]+)\b`,
	`(?i)\bpart\s+(?:\d+|[ivxlc]+)\b`,
	`(?i)\bsection\s+\d+\b`,
	`(?i)\bprologue\b`,
	`(?i)\bepilogue\b`,
}

// UnlabeledSection is the parent label used when no anchor covers a span.
const UnlabeledSection = "Unlabeled"

// ConfigError reports invalid segmentation parameters. It is fatal to the
// pipeline run: no chunks are produced.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("segment config: %s: %s", e.Field, e.Reason)
}

// Chunk is one bounded, possibly overlapping window of the source text.
// Offsets are rune indices into the source; immutable once produced.
type Chunk struct {
	ParentLabel string
	SequenceID  string
	Preview     string
	Text        string
	StartOffset int
	EndOffset   int
}

// anchor marks the start of a chapter/section in the source text.
type anchor struct {
	offset int // rune offset
	label  string
}

type section struct {
	label string
	start int
	end   int
}

// Split partitions text into chapter-aware, overlapping chunks in source
// order. The returned order is the canonical chunk index used downstream
// for first-mention tie-breaks.
func Split(text string, cfg Config) ([]Chunk, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.Overlap < 0 {
		return nil, &ConfigError{Field: "overlap", Reason: "must not be negative"}
	}
	if cfg.Overlap >= cfg.ChunkSize {
		// Window would never advance.
		return nil, &ConfigError{Field: "overlap", Reason: fmt.Sprintf("%d must be smaller than chunk size %d", cfg.Overlap, cfg.ChunkSize)}
	}

	patterns := cfg.AnchorPatterns
	if len(patterns) == 0 {
		patterns = DefaultAnchorPatterns
	}
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &ConfigError{Field: "anchor_patterns", Reason: fmt.Sprintf("invalid pattern %q: %v", p, err)}
		}
		res = append(res, re)
	}

	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	anchors := findAnchors(text, res)
	sections := partition(anchors, len(runes))

	var chunks []Chunk
	seq := make(map[string]int)
	for _, sec := range sections {
		start := sec.start
		for {
			end := start + cfg.ChunkSize
			if end > sec.end {
				end = sec.end
			}
			seq[sec.label]++
			chunkText := string(runes[start:end])
			chunks = append(chunks, Chunk{
				ParentLabel: sec.label,
				SequenceID:  fmt.Sprintf("%s.%d", sec.label, seq[sec.label]),
				Preview:     preview(chunkText),
				Text:        chunkText,
				StartOffset: start,
				EndOffset:   end,
			})
			if end >= sec.end {
				break
			}
			start += cfg.ChunkSize - cfg.Overlap
		}
	}
	return chunks, nil
}

// findAnchors scans text with all patterns and returns anchors sorted by
// offset. Overlapping matches keep the earliest start.
func findAnchors(text string, res []*regexp.Regexp) []anchor {
	var anchors []anchor
	seen := make(map[int]bool)
	for _, re := range res {
		for _, m := range re.FindAllStringIndex(text, -1) {
			if seen[m[0]] {
				continue
			}
			seen[m[0]] = true
			anchors = append(anchors, anchor{
				offset: utf8.RuneCountInString(text[:m[0]]),
				label:  normalizeLabel(text[m[0]:m[1]]),
			})
		}
	}
	// Insertion sort; anchor counts are small.
	for i := 1; i < len(anchors); i++ {
		for j := i; j > 0 && anchors[j].offset < anchors[j-1].offset; j-- {
			anchors[j], anchors[j-1] = anchors[j-1], anchors[j]
		}
	}
	return anchors
}

// partition slices [0, textLen) into labeled sections between consecutive
// anchors. Text before the first anchor becomes an unlabeled section so the
// chunk set always covers the whole input.
func partition(anchors []anchor, textLen int) []section {
	if len(anchors) == 0 {
		return []section{{label: UnlabeledSection, start: 0, end: textLen}}
	}
	var sections []section
	if anchors[0].offset > 0 {
		sections = append(sections, section{label: UnlabeledSection, start: 0, end: anchors[0].offset})
	}
	for i, a := range anchors {
		end := textLen
		if i+1 < len(anchors) {
			end = anchors[i+1].offset
		}
		if end > a.offset {
			sections = append(sections, section{label: a.label, start: a.offset, end: end})
		}
	}
	return sections
}

func normalizeLabel(matched string) string {
	return strings.Join(strings.Fields(matched), " ")
}

const previewRunes = 200

func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}
