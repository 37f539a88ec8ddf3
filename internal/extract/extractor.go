package extract

import (
	"context"
	"log/slog"
	"time"

	"litmap/internal/location"
)

// ContentGenerator is the extraction service boundary: prompt in, raw text
// payload out.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// Extractor wraps the per-chunk attempt ladder around a content generator:
// two attempts on the primary model, a third on the fallback, then degrade
// to an empty mention list. A failing chunk never fails the batch.
type Extractor struct {
	gen      ContentGenerator
	model    string
	fallback string
	log      *slog.Logger
	backoff  func(attempt int) time.Duration
}

func NewExtractor(gen ContentGenerator, model, fallback string, log *slog.Logger) *Extractor {
	if fallback == "" {
		fallback = model
	}
	return &Extractor{
		gen:      gen,
		model:    model,
		fallback: fallback,
		log:      log,
		backoff:  Backoff,
	}
}

// ExtractChunk extracts location mentions from one chunk prompt. model may
// override the configured primary model; the fallback stays as configured.
// It never returns an error: unrecoverable failure yields zero mentions.
func (e *Extractor) ExtractChunk(ctx context.Context, prompt string, chunkIndex int, model string) []location.Mention {
	primary := e.model
	if model != "" {
		primary = model
	}
	attempts := []string{primary, primary, e.fallback}

	for i, m := range attempts {
		if i > 0 {
			// Brief pause absorbs rate limiting before the retry.
			select {
			case <-time.After(e.backoff(i - 1)):
			case <-ctx.Done():
				e.log.Warn("extraction cancelled", "chunk", chunkIndex, "error", ctx.Err())
				return nil
			}
		}

		raw, err := e.gen.GenerateContent(ctx, m, prompt)
		if err != nil {
			e.log.Warn("extraction call failed", "chunk", chunkIndex, "attempt", i+1, "model", m, "error", err)
			continue
		}

		recs, err := decodeRecords(raw)
		if err != nil {
			e.log.Warn("extraction response unparseable", "chunk", chunkIndex, "attempt", i+1, "model", m, "error", err)
			continue
		}

		mentions := make([]location.Mention, 0, len(recs))
		for _, r := range recs {
			mention, err := validateRecord(r, chunkIndex, m)
			if err != nil {
				// Malformed records are skipped, not retried.
				e.log.Debug("skipping invalid record", "chunk", chunkIndex, "error", err)
				continue
			}
			mentions = append(mentions, mention)
		}
		return mentions
	}

	e.log.Error("extraction failed after all attempts, dropping chunk", "chunk", chunkIndex)
	return nil
}
