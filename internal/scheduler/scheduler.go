// Package scheduler runs background maintenance jobs on a single gocron
// scheduler shared by the whole process.
package scheduler

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
)

var (
	sched    gocron.Scheduler
	initOnce sync.Once
	initErr  error
	stopOnce sync.Once
	stopErr  error
)

// Init builds the process-wide scheduler. Job panics are recovered and
// logged so one bad run never takes the process down.
func Init() error {
	initOnce.Do(func() {
		s, err := gocron.NewScheduler(
			gocron.WithGlobalJobOptions(
				gocron.WithEventListeners(
					gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
						log.Error().
							Str("job_id", jobID.String()).
							Str("job_name", jobName).
							Interface("panic", recoverData).
							Msg("Scheduler job panicked")
					}),
				),
			),
		)
		if err != nil {
			initErr = err
			return
		}
		sched = s
		log.Info().Msg("Scheduler initialized")
	})
	return initErr
}

// Start begins running registered jobs. Non-blocking.
func Start() error {
	if sched == nil {
		return ErrNotInitialized
	}
	log.Info().Msg("Scheduler starting")
	sched.Start()
	return nil
}

// Stop shuts the scheduler down and waits for running jobs to finish.
// Safe to call more than once.
func Stop() error {
	if sched == nil {
		return ErrNotInitialized
	}
	stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		stopErr = sched.Shutdown()
	})
	return stopErr
}

// AddJob registers a cron-driven job with the scheduler.
func AddJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if sched == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	jobLogger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()

	wrapped := func() {
		jobLogger.Debug().Msg("Scheduler job started")
		task()
		jobLogger.Debug().Msg("Scheduler job completed")
	}

	job, err := sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register scheduler job")
		return nil, err
	}
	jobLogger.Info().Msg("Scheduler job registered")
	return job, nil
}
