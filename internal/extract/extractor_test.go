package extract

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

// scriptedGenerator replays canned responses and records the models asked.
type scriptedGenerator struct {
	responses []response
	calls     int
	models    []string
}

type response struct {
	text string
	err  error
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	g.models = append(g.models, model)
	if g.calls >= len(g.responses) {
		return "", &ServiceError{StatusCode: 500, Message: "script exhausted"}
	}
	r := g.responses[g.calls]
	g.calls++
	return r.text, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noBackoff(e *Extractor) *Extractor {
	e.backoff = func(int) time.Duration { return 0 }
	return e
}

const parisJSON = `[{"name":"Paris","text_reference":"Sarah went to Paris.","confidence":0.9,"scale":"city"}]`

func TestExtractChunk_FirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{{text: parisJSON}}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	mentions := e.ExtractChunk(context.Background(), "prompt", 2, "")
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(mentions))
	}
	if mentions[0].Name != "Paris" || mentions[0].ChunkIndex != 2 {
		t.Errorf("unexpected mention: %+v", mentions[0])
	}
	if mentions[0].SourceModel != "primary" {
		t.Errorf("expected source model primary, got %q", mentions[0].SourceModel)
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 call, got %d", gen.calls)
	}
}

func TestExtractChunk_RetriesSameModelThenFallback(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{
		{err: &ServiceError{StatusCode: 429, Message: "rate limited"}},
		{err: &ServiceError{StatusCode: 500, Message: "boom"}},
		{text: parisJSON},
	}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	mentions := e.ExtractChunk(context.Background(), "prompt", 0, "")
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(mentions))
	}
	want := []string{"primary", "primary", "fallback"}
	for i, m := range want {
		if gen.models[i] != m {
			t.Errorf("attempt %d: expected model %q, got %q", i+1, m, gen.models[i])
		}
	}
	if mentions[0].SourceModel != "fallback" {
		t.Errorf("expected source model fallback, got %q", mentions[0].SourceModel)
	}
}

func TestExtractChunk_AllAttemptsFailYieldsEmpty(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{
		{err: &ServiceError{StatusCode: 500, Message: "a"}},
		{err: &ServiceError{StatusCode: 500, Message: "b"}},
		{err: &ServiceError{StatusCode: 500, Message: "c"}},
	}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	mentions := e.ExtractChunk(context.Background(), "prompt", 0, "")
	if len(mentions) != 0 {
		t.Errorf("expected no mentions, got %d", len(mentions))
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
}

func TestExtractChunk_MalformedResponseRetried(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{
		{text: "not json at all"},
		{text: parisJSON},
	}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	mentions := e.ExtractChunk(context.Background(), "prompt", 0, "")
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention after retry, got %d", len(mentions))
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 calls, got %d", gen.calls)
	}
}

func TestExtractChunk_InvalidRecordsSkippedNotRetried(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{
		{text: `[{"name":"Paris","text_reference":"a","confidence":0.9,"scale":"city"},{"name":"","text_reference":"b","confidence":0.5,"scale":"city"}]`},
	}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	mentions := e.ExtractChunk(context.Background(), "prompt", 0, "")
	if len(mentions) != 1 {
		t.Fatalf("expected invalid record skipped, got %d mentions", len(mentions))
	}
	if gen.calls != 1 {
		t.Errorf("validation failure must not trigger retries, got %d calls", gen.calls)
	}
}

func TestExtractChunk_ModelOverride(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{{text: parisJSON}}}
	e := noBackoff(NewExtractor(gen, "primary", "fallback", testLogger()))

	e.ExtractChunk(context.Background(), "prompt", 0, "custom-model")
	if gen.models[0] != "custom-model" {
		t.Errorf("expected override model, got %q", gen.models[0])
	}
}

func TestExtractChunk_CancelledContextStops(t *testing.T) {
	gen := &scriptedGenerator{responses: []response{
		{err: &ServiceError{StatusCode: 500, Message: "a"}},
		{text: parisJSON},
	}}
	e := NewExtractor(gen, "primary", "fallback", testLogger())
	e.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mentions := e.ExtractChunk(ctx, "prompt", 0, "")
	if len(mentions) != 0 {
		t.Errorf("expected no mentions after cancellation, got %d", len(mentions))
	}
	if gen.calls != 1 {
		t.Errorf("expected no retry after cancellation, got %d calls", gen.calls)
	}
}
