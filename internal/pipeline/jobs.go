package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"litmap/internal/location"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusSegmenting JobStatus = "segmenting"
	StatusExtracting JobStatus = "extracting"
	StatusMerging    JobStatus = "merging"
	StatusGeocoding  JobStatus = "geocoding"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Request carries one extraction run's input and overrides. Pointer fields
// distinguish "not set" from zero (overlap 0 is a valid setting).
type Request struct {
	Text           string
	Title          string
	ChunkSize      *int
	Overlap        *int
	Scales         []location.Scale
	Model          string
	PromptTemplate string
	// Labels restricts processing to chunks with these parent labels.
	Labels []string
}

// Job tracks the state of a single extraction run.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Title  string    `json:"title"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	request   Request
	locations []location.Geocoded
	errors    []string
}

// Progress tracks processing counters.
type Progress struct {
	TotalChunks       int      `json:"total_chunks"`
	ChunksProcessed   int      `json:"chunks_processed"`
	MentionsFound     int      `json:"mentions_found"`
	LocationsMerged   int      `json:"locations_merged"`
	LocationsGeocoded int      `json:"locations_geocoded"`
	Errors            []string `json:"errors"`
}

// NewJob creates a queued job for a request.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
	}
}

// Request returns the job's input.
func (j *Job) Request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.request
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records total chunk count.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

// IncrChunksProcessed atomically increments chunks processed.
func (j *Job) IncrChunksProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksProcessed++
	j.UpdatedAt = time.Now()
}

// AddMentions records how many mentions a chunk produced.
func (j *Job) AddMentions(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.MentionsFound += n
	j.UpdatedAt = time.Now()
}

// SetMergedCount records the merged location count.
func (j *Job) SetMergedCount(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.LocationsMerged = n
	j.UpdatedAt = time.Now()
}

// SetResult stores the final location set.
func (j *Job) SetResult(locations []location.Geocoded) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.locations = locations
	geocoded := 0
	for _, l := range locations {
		if l.Geocoded {
			geocoded++
		}
	}
	j.Progress.LocationsGeocoded = geocoded
	j.UpdatedAt = time.Now()
}

// Result returns the final location set and whether the job has finished.
func (j *Job) Result() ([]location.Geocoded, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	done := j.Status == StatusCompleted || j.Status == StatusPartial
	return j.locations, done
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Title    string    `json:"title"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		Title:  j.Title,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalChunks:       j.Progress.TotalChunks,
			ChunksProcessed:   j.Progress.ChunksProcessed,
			MentionsFound:     j.Progress.MentionsFound,
			LocationsMerged:   j.Progress.LocationsMerged,
			LocationsGeocoded: j.Progress.LocationsGeocoded,
			Errors:            errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
