package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
)

var (
	// ErrBusy is returned when a job is submitted while another is in flight
	ErrBusy = errors.New("a video job is already running")
	// ErrJobNotFound is returned for unknown job IDs
	ErrJobNotFound = errors.New("video job not found")
)

// DefaultRetention is how long a finished job stays queryable
const DefaultRetention = time.Hour

// Status is the lifecycle state of a video job
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a transient video job; it is never persisted
type Job struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"` // "generate" or "extend"
	Status          Status    `json:"status"`
	Prompt          string    `json:"prompt"`
	AspectRatio     string    `json:"aspectRatio"`
	SourceURI       string    `json:"sourceUri,omitempty"`
	ResultURI       string    `json:"resultUri,omitempty"`
	Error           string    `json:"error,omitempty"`
	CredentialIssue bool      `json:"credentialIssue,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// JobRequest describes a job to submit
type JobRequest struct {
	Prompt      string
	AspectRatio string
	SeedImage   string // data URI, generate only
	SourceURI   string // set for extension
}

// Generator runs a video generation to completion
type Generator interface {
	GenerateVideo(ctx context.Context, prompt, seedImageDataURI, aspectRatio string) (string, error)
	ExtendVideo(ctx context.Context, prompt, sourceVideoURI, aspectRatio string) (string, error)
}

// Jobs runs video generations in the background, one at a time.
// Finished jobs are forgotten once they are older than the retention.
type Jobs struct {
	gen       Generator
	retention time.Duration
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	jobs    map[string]*Job
	cancels map[string]context.CancelFunc
	active  string
}

// NewJobs creates a job tracker
func NewJobs(gen Generator) *Jobs {
	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		gen:       gen,
		retention: DefaultRetention,
		now:       time.Now,
		ctx:       ctx,
		cancel:  cancel,
		jobs:    make(map[string]*Job),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit starts a job in the background and returns its initial snapshot
func (j *Jobs) Submit(req JobRequest) (*Job, error) {
	if req.Prompt == "" && req.SeedImage == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if !ValidAspectRatio(req.AspectRatio) {
		return nil, fmt.Errorf("unsupported aspect ratio: %s", req.AspectRatio)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ctx.Err() != nil {
		return nil, fmt.Errorf("video jobs are shutting down")
	}
	if j.active != "" {
		return nil, ErrBusy
	}
	j.pruneLocked()

	now := j.now()
	job := &Job{
		ID:          uuid.New().String(),
		Kind:        "generate",
		Status:      StatusQueued,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		SourceURI:   req.SourceURI,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.SourceURI != "" {
		job.Kind = "extend"
	}

	ctx, cancel := context.WithCancel(j.ctx)
	j.jobs[job.ID] = job
	j.cancels[job.ID] = cancel
	j.active = job.ID

	j.wg.Add(1)
	go j.run(ctx, job.ID, req)

	snapshot := *job
	return &snapshot, nil
}

// Get returns a snapshot of a job
func (j *Jobs) Get(id string) (*Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.pruneLocked()
	job, ok := j.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// Cancel stops a running job; finished jobs are left as they are
func (j *Jobs) Cancel(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.jobs[id]; !ok {
		return ErrJobNotFound
	}
	if cancel, ok := j.cancels[id]; ok {
		cancel()
	}
	return nil
}

// Shutdown cancels every in-flight job and waits for them to stop
func (j *Jobs) Shutdown() {
	j.cancel()
	j.wg.Wait()
}

func (j *Jobs) run(ctx context.Context, id string, req JobRequest) {
	defer j.wg.Done()

	j.update(id, func(job *Job) { job.Status = StatusRunning })

	var uri string
	var err error
	if req.SourceURI != "" {
		uri, err = j.gen.ExtendVideo(ctx, req.Prompt, req.SourceURI, req.AspectRatio)
	} else {
		uri, err = j.gen.GenerateVideo(ctx, req.Prompt, req.SeedImage, req.AspectRatio)
	}

	j.update(id, func(job *Job) {
		if err != nil {
			job.Status = StatusFailed
			job.Error = apierror.UserMessage(err)
			if errors.Is(err, context.Canceled) {
				job.Error = "cancelled"
			}
			job.CredentialIssue = apierror.IsCredentialIssue(err)
			return
		}
		job.Status = StatusSucceeded
		job.ResultURI = uri
	})

	j.mu.Lock()
	if cancel, ok := j.cancels[id]; ok {
		cancel()
		delete(j.cancels, id)
	}
	if j.active == id {
		j.active = ""
	}
	j.mu.Unlock()

	if err != nil {
		log.Warn().Str("component", "video").Str("job_id", id).Err(err).Msg("Video job failed")
	} else {
		log.Info().Str("component", "video").Str("job_id", id).Msg("Video job succeeded")
	}
}

func (j *Jobs) update(id string, fn func(*Job)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if job, ok := j.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = j.now()
	}
}

// pruneLocked drops finished jobs past the retention
func (j *Jobs) pruneLocked() {
	if j.retention <= 0 {
		return
	}
	cutoff := j.now().Add(-j.retention)
	for id, job := range j.jobs {
		if id == j.active || (job.Status != StatusSucceeded && job.Status != StatusFailed) {
			continue
		}
		if job.UpdatedAt.Before(cutoff) {
			delete(j.jobs, id)
		}
	}
}
