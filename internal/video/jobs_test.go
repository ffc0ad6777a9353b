package video

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
)

// blockingGen blocks until released or cancelled
type blockingGen struct {
	release chan struct{}
	started chan struct{}
	err     error
}

func newBlockingGen() *blockingGen {
	return &blockingGen{release: make(chan struct{}), started: make(chan struct{}, 4)}
}

func (g *blockingGen) wait(ctx context.Context, uri string) (string, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		if g.err != nil {
			return "", g.err
		}
		return uri, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *blockingGen) GenerateVideo(ctx context.Context, prompt, seed, aspectRatio string) (string, error) {
	return g.wait(ctx, "https://example/generated&key=k")
}

func (g *blockingGen) ExtendVideo(ctx context.Context, prompt, source, aspectRatio string) (string, error) {
	return g.wait(ctx, "https://example/extended&key=k")
}

func waitForStatus(t *testing.T, jobs *Jobs, id string, want Status) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached %s", id, want)
	return nil
}

func TestJobsLifecycle(t *testing.T) {
	gen := newBlockingGen()
	jobs := NewJobs(gen)
	defer jobs.Shutdown()

	job, err := jobs.Submit(JobRequest{Prompt: "waves", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Kind != "generate" {
		t.Errorf("Expected generate job, got %s", job.Kind)
	}
	<-gen.started

	t.Run("second submit is busy", func(t *testing.T) {
		if _, err := jobs.Submit(JobRequest{Prompt: "more"}); !errors.Is(err, ErrBusy) {
			t.Errorf("Expected ErrBusy, got %v", err)
		}
	})

	close(gen.release)
	done := waitForStatus(t, jobs, job.ID, StatusSucceeded)
	if done.ResultURI != "https://example/generated&key=k" {
		t.Errorf("Unexpected result %q", done.ResultURI)
	}

	t.Run("next submit after completion", func(t *testing.T) {
		deadline := time.Now().Add(time.Second)
		for {
			ext, err := jobs.Submit(JobRequest{Prompt: "more", SourceURI: "https://example/generated", AspectRatio: "16:9"})
			if err == nil {
				if ext.Kind != "extend" {
					t.Errorf("Expected extend job, got %s", ext.Kind)
				}
				waitForStatus(t, jobs, ext.ID, StatusSucceeded)
				return
			}
			if !errors.Is(err, ErrBusy) || time.Now().After(deadline) {
				t.Fatalf("Submit() error = %v", err)
			}
			time.Sleep(5 * time.Millisecond)
		}
	})
}

func TestJobsCancel(t *testing.T) {
	gen := newBlockingGen()
	jobs := NewJobs(gen)
	defer jobs.Shutdown()

	job, err := jobs.Submit(JobRequest{Prompt: "waves"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-gen.started

	if err := jobs.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	failed := waitForStatus(t, jobs, job.ID, StatusFailed)
	if failed.Error != "cancelled" {
		t.Errorf("Expected cancelled error, got %q", failed.Error)
	}

	if err := jobs.Cancel("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobsCredentialFailure(t *testing.T) {
	gen := newBlockingGen()
	gen.err = apierror.NewClassifier(nil).Check(context.Background(), &apierror.StatusError{Code: 403})
	close(gen.release)
	jobs := NewJobs(gen)
	defer jobs.Shutdown()

	job, _ := jobs.Submit(JobRequest{Prompt: "waves"})
	failed := waitForStatus(t, jobs, job.ID, StatusFailed)
	if !failed.CredentialIssue {
		t.Error("Expected the job to flag a credential issue")
	}
	if failed.Error != apierror.CredentialMessage {
		t.Errorf("Expected the credential notice, got %q", failed.Error)
	}
}

func TestJobsHideInternalErrors(t *testing.T) {
	gen := newBlockingGen()
	gen.err = errors.New("dial tcp 10.0.0.7:443: connection refused")
	close(gen.release)
	jobs := NewJobs(gen)
	defer jobs.Shutdown()

	job, _ := jobs.Submit(JobRequest{Prompt: "waves"})
	failed := waitForStatus(t, jobs, job.ID, StatusFailed)
	if failed.Error != apierror.GenericMessage {
		t.Errorf("Expected the generic notice, got %q", failed.Error)
	}
}

func TestJobsPruneFinished(t *testing.T) {
	gen := newBlockingGen()
	close(gen.release)
	jobs := NewJobs(gen)
	defer jobs.Shutdown()

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	job, err := jobs.Submit(JobRequest{Prompt: "waves"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForStatus(t, jobs, job.ID, StatusSucceeded)
	// the job stays active until run releases it
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(2 * time.Millisecond) {
		jobs.mu.Lock()
		idle := jobs.active == ""
		jobs.mu.Unlock()
		if idle {
			break
		}
	}

	advance(DefaultRetention / 2)
	if _, err := jobs.Get(job.ID); err != nil {
		t.Fatalf("Job pruned before the retention elapsed: %v", err)
	}

	advance(DefaultRetention)
	if _, err := jobs.Get(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected the finished job to be pruned, got %v", err)
	}
}

func TestJobsShutdown(t *testing.T) {
	gen := newBlockingGen()
	jobs := NewJobs(gen)

	job, _ := jobs.Submit(JobRequest{Prompt: "waves"})
	<-gen.started
	jobs.Shutdown()

	got, _ := jobs.Get(job.ID)
	if got.Status != StatusFailed {
		t.Errorf("Expected failed after shutdown, got %s", got.Status)
	}
	if _, err := jobs.Submit(JobRequest{Prompt: "late"}); err == nil {
		t.Error("Expected submit to fail after shutdown")
	}
}

func TestJobsValidation(t *testing.T) {
	jobs := NewJobs(newBlockingGen())
	defer jobs.Shutdown()

	if _, err := jobs.Submit(JobRequest{}); err == nil {
		t.Error("Expected error for empty prompt")
	}
	if _, err := jobs.Submit(JobRequest{Prompt: "x", AspectRatio: "1:1"}); err == nil {
		t.Error("Expected error for unsupported aspect ratio")
	}
}
