package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/bulkhead"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/errreport"
	"github.com/Belphemur/MediaFetch/internal/jobstore"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/services"
)

// Runner is the caller side of the orchestrator. It prepares output
// directories, serializes downloads sharing one, bounds how many run at once
// and for how long, and tracks asynchronous submissions in a job store.
type Runner struct {
	downloader services.Downloader
	store      jobstore.Store
	executor   failsafe.Executor[any]
	settings   Settings
	logger     zerolog.Logger

	// ctx is the parent of every asynchronous job; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner driving d and recording async jobs in store.
func NewRunner(d services.Downloader, store jobstore.Store, settings Settings) *Runner {
	settings = settings.withDefaults()

	policies := []failsafe.Policy[any]{
		bulkhead.NewBuilder[any](uint(settings.MaxParallel)).
			WithMaxWaitTime(settings.MaxWait).
			Build(),
	}
	if settings.Timeout > 0 {
		policies = append(policies, timeout.New[any](settings.Timeout))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		downloader: d,
		store:      store,
		executor:   failsafe.With[any](policies...),
		settings:   settings,
		logger:     config.GetLogger().With().Str("component", "runner").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// DownloadVideo runs a video download and waits for its result.
func (r *Runner) DownloadVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.VideoDownloadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var result *models.VideoDownloadResult
	err := r.run(ctx, models.JobKindVideo, req.URL, req.OutputDir, nil, func(ctx context.Context) error {
		var err error
		result, err = r.downloader.DownloadVideo(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DownloadSubtitle runs a subtitle-only download and waits for its result.
func (r *Runner) DownloadSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.SubtitleDownloadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var result *models.SubtitleDownloadResult
	err := r.run(ctx, models.JobKindSubtitle, req.URL, req.OutputDir, nil, func(ctx context.Context) error {
		var err error
		result, err = r.downloader.DownloadSubtitle(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitVideo queues a video download and returns its pending job record.
func (r *Runner) SubmitVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return r.submit(ctx, models.JobKindVideo, req.URL, req.OutputDir, func(ctx context.Context) (func(*models.Job), error) {
		result, err := r.downloader.DownloadVideo(ctx, req)
		return func(job *models.Job) { job.Video = result }, err
	})
}

// SubmitSubtitle queues a subtitle-only download and returns its pending job record.
func (r *Runner) SubmitSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return r.submit(ctx, models.JobKindSubtitle, req.URL, req.OutputDir, func(ctx context.Context) (func(*models.Job), error) {
		result, err := r.downloader.DownloadSubtitle(ctx, req)
		return func(job *models.Job) { job.Subtitle = result }, err
	})
}

// Job returns the current record of an async job, or *apperrors.ErrNotFound.
func (r *Runner) Job(ctx context.Context, id string) (*models.Job, error) {
	return r.store.Get(ctx, id)
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels the jobs still running and waits for them to record their failure.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

// submit records a pending job and runs work in the background. work returns
// a func that stores its result on the job record; a download cut short by the
// timeout policy may still be returning, so the record is only touched under mu.
func (r *Runner) submit(ctx context.Context, kind models.JobKind, url, outputDir string, work func(context.Context) (func(*models.Job), error)) (*models.Job, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("runner is closed: %w", err)
	}

	job := models.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		URL:       url,
		OutputDir: outputDir,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.Put(ctx, &job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}
	pending := job.Clone()

	r.logger.Info().Str("job_id", job.ID).Str("kind", string(kind)).Str("url", url).Msg("Job submitted")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		var (
			mu       sync.Mutex
			finished bool
			record   func(*models.Job)
		)
		markRunning := func() {
			mu.Lock()
			defer mu.Unlock()
			if finished {
				return
			}
			job.Status = models.JobStatusRunning
			job.StartedAt = time.Now().UTC()
			r.save(&job)
		}
		err := r.run(r.ctx, kind, url, outputDir, markRunning, func(ctx context.Context) error {
			apply, err := work(ctx)
			mu.Lock()
			if !finished {
				record = apply
			}
			mu.Unlock()
			return err
		})

		mu.Lock()
		defer mu.Unlock()
		finished = true
		if err == nil && record != nil {
			record(&job)
		}
		job.FinishedAt = time.Now().UTC()
		if err != nil {
			job.Status = models.JobStatusFailed
			job.Error = err.Error()
		} else {
			job.Status = models.JobStatusSucceeded
		}
		r.save(&job)
		r.logger.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("Job finished")
	}()

	return &pending, nil
}

// save writes job outside any request context so a finished job is recorded
// even when the submitter has gone away.
func (r *Runner) save(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Put(ctx, job); err != nil {
		r.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to update job")
	}
}

// run executes fn once it holds a download slot and the output directory lock.
// onStart, when set, is called right before fn.
func (r *Runner) run(ctx context.Context, kind models.JobKind, url, outputDir string, onStart func(), fn func(context.Context) error) error {
	start := time.Now()

	err := r.executor.WithContext(ctx).RunWithExecution(func(exec failsafe.Execution[any]) error {
		metrics.JobsInFlight.Inc()
		defer metrics.JobsInFlight.Dec()

		if err := PrepareOutputDir(outputDir); err != nil {
			return err
		}
		unlock, err := lockOutputDir(exec.Context(), r.settings.LockDir, outputDir)
		if err != nil {
			return err
		}
		defer unlock()

		if onStart != nil {
			onStart()
		}
		return fn(exec.Context())
	})
	err = r.describe(err)

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.DownloadsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.DownloadDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		r.logger.Error().Err(err).Str("kind", string(kind)).Str("url", url).Msg("Download failed")
		errreport.Capture(err, map[string]string{"kind": string(kind), "url": url})
	}
	return err
}

// describe adds the configured limit to policy rejections.
func (r *Runner) describe(err error) error {
	switch {
	case errors.Is(err, bulkhead.ErrFull):
		return fmt.Errorf("all %d download slots stayed busy for %s: %w", r.settings.MaxParallel, r.settings.MaxWait, err)
	case errors.Is(err, timeout.ErrExceeded):
		return fmt.Errorf("download exceeded %s: %w", r.settings.Timeout, err)
	}
	return err
}
