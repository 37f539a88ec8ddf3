package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"litmap/internal/extract"
	"litmap/internal/location"
	"litmap/internal/merge"
	"litmap/internal/segment"
)

// Process runs a job through all phases: segment, extract, merge, geocode.
func (o *Orchestrator) Process(ctx context.Context, job *Job) {
	req := job.Request()

	job.SetStatus(StatusSegmenting, "segmenting")
	chunks, err := o.splitText(req)
	if err != nil {
		var cfgErr *segment.ConfigError
		if errors.As(err, &cfgErr) {
			job.AddError(cfgErr.Error())
		} else {
			job.AddError(fmt.Sprintf("segmentation: %v", err))
		}
		job.SetStatus(StatusFailed, "failed")
		return
	}

	if len(req.Labels) > 0 {
		chunks = filterByLabel(chunks, req.Labels)
	}
	job.SetTotalChunks(len(chunks))
	if len(chunks) == 0 {
		job.SetResult([]location.Geocoded{})
		job.SetStatus(StatusCompleted, "completed")
		return
	}

	job.SetStatus(StatusExtracting, "extracting")
	mentions := o.extractAll(ctx, job, chunks, req)
	job.AddMentions(len(mentions))

	job.SetStatus(StatusMerging, "merging")
	merged := merge.Merge(mentions)
	scales := req.Scales
	if len(scales) == 0 {
		scales = o.cfg.AllowedScales
	}
	if len(scales) > 0 {
		merged = merge.FilterScales(merged, scales)
	}
	job.SetMergedCount(len(merged))

	job.SetStatus(StatusGeocoding, "geocoding")
	results := o.geocodeAll(ctx, job, merged)
	job.SetResult(results)

	if len(job.Snapshot().Progress.Errors) > 0 {
		job.SetStatus(StatusPartial, "partial")
	} else {
		job.SetStatus(StatusCompleted, "completed")
	}
}

func (o *Orchestrator) splitText(req Request) ([]segment.Chunk, error) {
	cfg := segment.DefaultConfig()
	if o.cfg.DefaultChunkSize > 0 {
		cfg.ChunkSize = o.cfg.DefaultChunkSize
	}
	if o.cfg.DefaultOverlap >= 0 {
		cfg.Overlap = o.cfg.DefaultOverlap
	}
	if len(o.cfg.AnchorPatterns) > 0 {
		cfg.AnchorPatterns = o.cfg.AnchorPatterns
	}
	if req.ChunkSize != nil {
		cfg.ChunkSize = *req.ChunkSize
	}
	if req.Overlap != nil {
		cfg.Overlap = *req.Overlap
	}
	return segment.Split(req.Text, cfg)
}

func filterByLabel(chunks []segment.Chunk, labels []string) []segment.Chunk {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	var kept []segment.Chunk
	for _, c := range chunks {
		if want[c.ParentLabel] {
			kept = append(kept, c)
		}
	}
	return kept
}

// extractAll fans chunk extraction out across bounded goroutines and
// reassembles results in chunk order.
func (o *Orchestrator) extractAll(ctx context.Context, job *Job, chunks []segment.Chunk, req Request) []location.Mention {
	template := o.cfg.PromptTemplate
	if template == "" {
		template = extract.DefaultPromptTemplate
	}
	if req.PromptTemplate != "" {
		template = req.PromptTemplate
	}

	results := make([][]location.Mention, len(chunks))
	sem := make(chan struct{}, o.cfg.MaxConcurrentExtract)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk segment.Chunk) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("chunk extraction panicked",
						slog.Int("chunk", i), slog.Any("panic", r))
					job.AddError(fmt.Sprintf("chunk %d: extraction panicked", i))
					results[i] = nil
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			prompt := extract.BuildChunkPrompt(template, chunk.ParentLabel, chunk.Text)
			results[i] = o.extractor.ExtractChunk(ctx, prompt, i, req.Model)
			job.IncrChunksProcessed()
		}(i, chunk)
	}
	wg.Wait()

	var all []location.Mention
	for _, ms := range results {
		all = append(all, ms...)
	}
	return all
}

// geocodeAll resolves coordinates for each merged location with bounded
// concurrency. Provider errors and misses both leave Geocoded false.
func (o *Orchestrator) geocodeAll(ctx context.Context, job *Job, merged []location.Merged) []location.Geocoded {
	out := make([]location.Geocoded, len(merged))
	sem := make(chan struct{}, o.cfg.MaxConcurrentGeocode)
	var wg sync.WaitGroup

	for i, loc := range merged {
		out[i] = location.Geocoded{
			Name:              loc.Name,
			Confidence:        loc.Confidence,
			TextReference:     loc.TextReference,
			Scale:             loc.Scale,
			FirstMentionOrder: loc.FirstMentionOrder,
		}
		if o.geocoder == nil {
			continue
		}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := o.geocoder.Geocode(ctx, name)
			if err != nil {
				o.log.Warn("geocoding failed",
					slog.String("name", name), slog.String("error", err.Error()))
				job.AddError(fmt.Sprintf("geocode %q: %v", name, err))
				return
			}
			if res == nil {
				return
			}
			lat, lng := res.Lat, res.Lng
			out[i].Lat = &lat
			out[i].Lng = &lng
			out[i].Geocoded = true
		}(i, loc.Name)
	}
	wg.Wait()
	return out
}
