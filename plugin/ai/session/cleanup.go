package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultSessionTTL is how long an idle session is retained.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = time.Hour
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	TTL             time.Duration // Idle time after which a session is removed (default: 24h)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 1h)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		TTL:             DefaultSessionTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically evicts idle sessions.
type CleanupJob struct {
	store  Store
	config CleanupConfig
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(store Store, config CleanupConfig) *CleanupJob {
	if config.TTL <= 0 {
		config.TTL = DefaultSessionTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &CleanupJob{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Start begins the periodic cleanup in a goroutine. Starting twice is a no-op.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	slog.Info("session cleanup job started",
		"ttl", j.config.TTL,
		"interval", j.config.CleanupInterval)
}

// Stop stops the job and waits for the loop to exit.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.store.CleanupExpired(ctx, j.now().Add(-j.config.TTL))
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *CleanupJob) sweep(ctx context.Context) {
	deleted, err := j.RunOnce(ctx)
	if err != nil {
		slog.Error("session cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("session cleanup completed", "deleted", deleted)
	}
}
