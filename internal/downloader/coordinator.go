package downloader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ttscraper/pkg/logger"
)

// Outcome describes what happened to a scheduled download
type Outcome string

const (
	OutcomeDownloaded     Outcome = "downloaded"
	OutcomeAlreadyPresent Outcome = "already_downloaded"
	OutcomeFailed         Outcome = "failed"
)

// Job is one media file to persist
type Job struct {
	URL      string
	Dir      string
	Filename  string
	Username  string
	SessionID string
}

// Path returns the final destination of the job
func (j Job) Path() string {
	return filepath.Join(j.Dir, j.Filename)
}

// Result is the outcome of a single Job
type Result struct {
	Job      Job
	Outcome  Outcome
	Bytes    int64
	Err      error
	Duration time.Duration
}

// MediaSource opens a streamed media body
type MediaSource interface {
	OpenMedia(ctx context.Context, mediaURL string) (io.ReadCloser, error)
}

// Storage is the filesystem side of a download
type Storage interface {
	EnsureDir(dir string) error
	HasFile(dir, filename string) (bool, error)
	Save(dir, filename string, r io.Reader) (int64, error)
	Lock(dir, filename string) func()
}

// Notifier receives the user-facing notices of each download
type Notifier interface {
	Downloading(path string)
	AlreadyDownloaded(filename string)
}

// Coordinator persists media exactly once per destination filename.
// At most `concurrency` transfers run at the same time across all callers.
type Coordinator struct {
	source   MediaSource
	storage  Storage
	notifier Notifier
	sem      *semaphore.Weighted
	logger   logger.Logger

	mu     sync.Mutex
	counts map[Outcome]int
}

// NewCoordinator creates a coordinator. A nil notifier disables notices.
func NewCoordinator(source MediaSource, storage Storage, notifier Notifier, concurrency int, log logger.Logger) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	if notifier == nil {
		notifier = silentNotifier{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Coordinator{
		source:   source,
		storage:  storage,
		notifier: notifier,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		logger:   log.WithField("component", "downloader"),
		counts:   make(map[Outcome]int),
	}
}

// Schedule persists job.URL as job.Dir/job.Filename unless that file already
// exists. The presence check lists the directory every time and runs under a
// per-filename lock, so concurrent schedules of one filename transfer once.
func (c *Coordinator) Schedule(ctx context.Context, job Job) Result {
	start := time.Now()
	result := c.schedule(ctx, job)
	result.Duration = time.Since(start)

	c.mu.Lock()
	c.counts[result.Outcome]++
	c.mu.Unlock()

	log := c.logger
	if job.SessionID != "" {
		log = log.WithField("session_id", job.SessionID)
	}
	logger.LogDownload(log, job.Username, job.Filename, string(result.Outcome), result.Err)
	return result
}

func (c *Coordinator) schedule(ctx context.Context, job Job) Result {
	result := Result{Job: job, Outcome: OutcomeFailed}

	if err := c.storage.EnsureDir(job.Dir); err != nil {
		result.Err = err
		return result
	}

	unlock := c.storage.Lock(job.Dir, job.Filename)
	defer unlock()

	present, err := c.storage.HasFile(job.Dir, job.Filename)
	if err != nil {
		result.Err = err
		return result
	}
	if present {
		c.notifier.AlreadyDownloaded(job.Filename)
		result.Outcome = OutcomeAlreadyPresent
		return result
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		result.Err = err
		return result
	}
	defer c.sem.Release(1)

	c.notifier.Downloading(job.Path())

	body, err := c.source.OpenMedia(ctx, job.URL)
	if err != nil {
		result.Err = fmt.Errorf("open %s: %w", job.URL, err)
		return result
	}
	defer body.Close()

	written, err := c.storage.Save(job.Dir, job.Filename, body)
	result.Bytes = written
	if err != nil {
		result.Err = err
		return result
	}

	result.Outcome = OutcomeDownloaded
	return result
}

// ScheduleBatch runs the jobs concurrently and returns once every one has
// finished. Results are in job order. A failed job does not stop the others.
func (c *Coordinator) ScheduleBatch(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = c.Schedule(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Counts returns how many schedules ended with each outcome
func (c *Coordinator) Counts() map[Outcome]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[Outcome]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

type silentNotifier struct{}

func (silentNotifier) Downloading(string)       {}
func (silentNotifier) AlreadyDownloaded(string) {}
