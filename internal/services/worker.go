package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
)

const (
	defaultPollInterval = 10 * time.Second
	jobQueueSize        = 100
	pollBatchSize       = 10
)

// Worker runs profile index jobs in the background. Jobs are persisted
// before they are queued, so a full queue or a restart only delays them
// until the next poll.
type Worker interface {
	IndexQueue
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type WorkerOptions struct {
	Concurrency      int
	RetryMaxAttempts int
	PollInterval     time.Duration
	Logger           *slog.Logger
}

type worker struct {
	jobRepo          repositories.IndexJobRepository
	indexer          ProfileIndexer
	jobQueue         chan uuid.UUID
	concurrency      int
	retryMaxAttempts int
	pollInterval     time.Duration
	logger           *slog.Logger
	wg               sync.WaitGroup
	stopChan         chan struct{}
	stopOnce         sync.Once

	// jobs sitting in jobQueue or running, so the poller does not queue them twice
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewWorker(jobRepo repositories.IndexJobRepository, indexer ProfileIndexer, opts WorkerOptions) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &worker{
		jobRepo:          jobRepo,
		indexer:          indexer,
		jobQueue:         make(chan uuid.UUID, jobQueueSize),
		concurrency:      opts.Concurrency,
		retryMaxAttempts: opts.RetryMaxAttempts,
		pollInterval:     opts.PollInterval,
		logger:           opts.Logger,
		stopChan:         make(chan struct{}),
		inFlight:         make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("🚀 starting index worker", slog.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker. It waits for in-flight jobs.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 stopping index worker")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("✅ index worker stopped")
	})
}

// EnqueueProfile records a queued job for the owner and hands it to the pool.
func (w *worker) EnqueueProfile(ctx context.Context, ownerID string) error {
	job := &models.IndexJob{OwnerID: ownerID}
	if err := w.jobRepo.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create index job: %w", err)
	}
	w.EnqueueJob(job.ID)
	return nil
}

// EnqueueJob implements Worker. It never blocks; a job that does not fit
// stays queued in the database for the poller.
func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.logger.Warn("⚠️ worker stopped, job left for next start", slog.String("job_id", jobID.String()))
		return
	default:
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[jobID]; ok {
		return
	}

	select {
	case w.jobQueue <- jobID:
		w.inFlight[jobID] = struct{}{}
		w.logger.Debug("📥 job enqueued", slog.String("job_id", jobID.String()))
	default:
		w.logger.Warn("⚠️ job queue full, deferring to poller", slog.String("job_id", jobID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case jobID := <-w.jobQueue:
			w.runJob(ctx, workerID, jobID)
			w.mu.Lock()
			delete(w.inFlight, jobID)
			w.mu.Unlock()
		}
	}
}

func (w *worker) runJob(ctx context.Context, workerID int, jobID uuid.UUID) {
	log := w.logger.With(slog.Int("worker", workerID), slog.String("job_id", jobID.String()))

	err := w.indexer.IndexProfile(ctx, jobID)
	if err == nil {
		log.Info("✅ job completed")
		return
	}
	log.Error("❌ job failed", slog.Any("error", err))

	job, ferr := w.jobRepo.FindByID(ctx, jobID)
	if ferr != nil || job.Status != models.IndexStatusFailed || job.Attempts >= w.retryMaxAttempts {
		return
	}
	if rerr := w.jobRepo.Requeue(ctx, jobID); rerr != nil {
		log.Warn("failed to requeue job", slog.Any("error", rerr))
		return
	}
	log.Info("🔁 job requeued", slog.Int("attempts", job.Attempts))
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.jobRepo.FindPendingJobs(ctx, pollBatchSize)
			if err != nil {
				w.logger.Warn("⚠️ failed to fetch pending jobs", slog.Any("error", err))
				continue
			}
			if len(pendingJobs) > 0 {
				w.logger.Info("📋 found pending jobs", slog.Int("count", len(pendingJobs)))
			}
			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
