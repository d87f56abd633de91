package storage

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

var ErrJanitorQueueFull = errors.New("storage: removal queue full")

type removalJob struct {
	Bucket  string
	Name    string
	Attempt int
}

type janitorWorker struct {
	id     int
	pool   chan chan removalJob
	jobs   chan removalJob
	logger *slog.Logger
}

func (w *janitorWorker) start(ctx context.Context, wg *sync.WaitGroup, process func(context.Context, removalJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case w.pool <- w.jobs:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobs:
				w.logger.Debug("janitor worker removing object", "worker_id", w.id, "bucket", job.Bucket, "name", job.Name)
				process(ctx, job)
			case <-ctx.Done():
				w.logger.Debug("janitor worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type JanitorConfig struct {
	MaxWorkers  int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

// Janitor retries object deletions that failed inline, on a small worker pool.
type Janitor struct {
	store  Store
	cfg    JanitorConfig
	logger *slog.Logger

	queue  chan removalJob
	pool   chan chan removalJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewJanitor(store Store, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{
		store:  store,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan removalJob, cfg.QueueSize),
		pool:   make(chan chan removalJob, cfg.MaxWorkers),
		ctx:    ctx,
		cancel: cancel,
	}
	j.start()
	return j
}

func (j *Janitor) start() {
	j.once.Do(func() {
		for i := 0; i < j.cfg.MaxWorkers; i++ {
			w := &janitorWorker{id: i, pool: j.pool, jobs: make(chan removalJob), logger: j.logger}
			w.start(j.ctx, &j.wg, j.process)
		}

		j.wg.Add(1)
		go j.dispatch()

		j.logger.Info("storage janitor started", "max_workers", j.cfg.MaxWorkers, "queue_size", cap(j.queue))
	})
}

func (j *Janitor) dispatch() {
	defer j.wg.Done()
	for {
		select {
		case job := <-j.queue:
			select {
			case worker := <-j.pool:
				select {
				case worker <- job:
				case <-j.ctx.Done():
					return
				}
			case <-j.ctx.Done():
				return
			}
		case <-j.ctx.Done():
			return
		}
	}
}

// Enqueue schedules a background deletion. It never blocks.
func (j *Janitor) Enqueue(bucket, name string) error {
	return j.enqueue(removalJob{Bucket: bucket, Name: name})
}

func (j *Janitor) enqueue(job removalJob) error {
	select {
	case <-j.ctx.Done():
		return context.Canceled
	default:
	}

	select {
	case j.queue <- job:
		return nil
	default:
		j.logger.Warn("storage janitor queue full, dropping removal", "bucket", job.Bucket, "name", job.Name, "queue_capacity", cap(j.queue))
		return ErrJanitorQueueFull
	}
}

func (j *Janitor) process(ctx context.Context, job removalJob) {
	for job.Attempt < j.cfg.MaxAttempts {
		job.Attempt++
		if !j.sleep(ctx, j.delay(job.Attempt)) {
			return
		}

		deleteCtx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
		err := j.store.Delete(deleteCtx, job.Bucket, job.Name)
		cancel()
		if err == nil {
			j.logger.Info("storage janitor removed object", "bucket", job.Bucket, "name", job.Name, "attempt", job.Attempt)
			return
		}
		j.logger.Warn("storage janitor removal failed", "bucket", job.Bucket, "name", job.Name, "attempt", job.Attempt, "error", err)
	}
	j.logger.Error("storage janitor gave up on object", "bucket", job.Bucket, "name", job.Name, "attempts", job.Attempt)
}

// delay doubles the base backoff per attempt with up to 20% jitter.
func (j *Janitor) delay(attempt int) time.Duration {
	d := j.cfg.Backoff << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

func (j *Janitor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Shutdown stops the workers. Pending removals are abandoned.
func (j *Janitor) Shutdown() {
	j.cancel()
	j.wg.Wait()
	j.logger.Info("storage janitor stopped")
}
