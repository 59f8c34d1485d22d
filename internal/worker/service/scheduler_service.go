package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SchedulerService defines the interface for the job scheduling service.
type SchedulerService interface {
	Start(ctx context.Context)
	ProcessJobs(ctx context.Context)
	Stop()
}

type scheduledJob struct {
	job      entity.Job
	schedule cron.Schedule
	nextRun  time.Time
	running  bool
}

type schedulerService struct {
	executor        ExecutorService
	logger          *logger.Logger
	pollingInterval time.Duration
	now             func() time.Time

	mu       sync.Mutex
	jobs     []*scheduledJob
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSchedulerService parses every job's cron expression. An invalid expression is an error.
func NewSchedulerService(jobs []entity.Job, executor ExecutorService, log *logger.Logger, pollingInterval time.Duration) (SchedulerService, error) {
	return newSchedulerService(jobs, executor, log, pollingInterval, time.Now)
}

func newSchedulerService(jobs []entity.Job, executor ExecutorService, log *logger.Logger, pollingInterval time.Duration, now func() time.Time) (*schedulerService, error) {
	if pollingInterval <= 0 {
		pollingInterval = 5 * time.Second
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	s := &schedulerService{
		executor:        executor,
		logger:          log,
		pollingInterval: pollingInterval,
		now:             now,
		stopChan:        make(chan struct{}),
	}
	start := now()
	for _, job := range jobs {
		schedule, err := parser.Parse(job.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for job %s: %w", job.CronExpression, job.Name, err)
		}
		s.jobs = append(s.jobs, &scheduledJob{job: job, schedule: schedule, nextRun: schedule.Next(start)})
		log.Info("Job scheduled", logger.StringField("job", job.Name), logger.StringField("cron", job.CronExpression), logger.Field("next_run", schedule.Next(start)))
	}
	return s, nil
}

// Start begins the periodic job processing loop and blocks until ctx is done or Stop is called.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler service stopping")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			s.ProcessJobs(ctx)
		}
	}
}

// ProcessJobs launches every due job that is not already running.
// A job whose previous run is still in flight skips this slot.
func (s *schedulerService) ProcessJobs(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sj := range s.jobs {
		if now.Before(sj.nextRun) {
			continue
		}
		sj.nextRun = sj.schedule.Next(now)
		if sj.running {
			s.logger.Warn("Previous run still in progress, skipping", logger.StringField("job", sj.job.Name))
			continue
		}
		sj.running = true
		s.wg.Add(1)

		job := sj.job
		utils.GoSafe(func() {
			defer s.wg.Done()
			defer s.finish(sj)
			s.executor.Execute(ctx, &job)
		})
	}
}

func (s *schedulerService) finish(sj *scheduledJob) {
	s.mu.Lock()
	sj.running = false
	s.mu.Unlock()
}

// Stop ends the loop and waits for running jobs.
func (s *schedulerService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.logger.Info("Scheduler service stopped")
}
