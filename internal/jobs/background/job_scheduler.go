package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inmobiliaria/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const rentalExpiryJob = "rental-expiry"

// RentalExpirer finishes active rentals whose end date has passed
type RentalExpirer interface {
	ExpireRentals(ctx context.Context, now time.Time) (int, error)
}

// JobStatus describes one registered job
type JobStatus struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run,omitempty"`
	LastRun time.Time `json:"last_run,omitempty"`
}

// JobScheduler runs periodic maintenance jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	rentals   RentalExpirer
	interval  time.Duration
	clock     func() time.Time
	log       *logger.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the rental expiry job registered
func NewJobScheduler(rentals RentalExpirer, interval time.Duration, log *logger.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		rentals:   rentals,
		interval:  interval,
		clock:     time.Now,
		log:       log.Named("jobs"),
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.Info("Starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.log.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(func() {
			_, _ = js.RunRentalExpiry(context.Background())
		}),
		gocron.WithName(rentalExpiryJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", rentalExpiryJob, err)
	}

	js.mu.Lock()
	js.jobs[rentalExpiryJob] = job
	js.mu.Unlock()
	return nil
}

// RunRentalExpiry expires due rentals once. It is also used by the admin
// endpoint that triggers the job on demand.
func (js *JobScheduler) RunRentalExpiry(ctx context.Context) (int, error) {
	started := js.clock()
	expired, err := js.rentals.ExpireRentals(ctx, started.UTC())
	if err != nil {
		js.log.Error("Rental expiry failed", zap.Error(err))
		return expired, err
	}
	if expired > 0 {
		js.log.Info("Rentals expired",
			zap.Int("count", expired),
			zap.Duration("took", js.clock().Sub(started)),
		)
	}
	return expired, nil
}

// GetJobStatus returns the registered jobs sorted by name
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	out := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		status := JobStatus{Name: name}
		if next, err := job.NextRun(); err == nil {
			status.NextRun = next
		}
		if last, err := job.LastRun(); err == nil {
			status.LastRun = last
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
