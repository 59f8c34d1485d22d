package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/strategy"
	"liirat-news/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHistoryRepo struct {
	mu          sync.Mutex
	nextID      uint
	records     map[uint]entity.TaskExecutionHistory
	failCreates int
	updates     []uint
}

func newMemoryHistoryRepo() *memoryHistoryRepo {
	return &memoryHistoryRepo{records: map[uint]entity.TaskExecutionHistory{}}
}

func (r *memoryHistoryRepo) Create(_ context.Context, h *entity.TaskExecutionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates > 0 {
		r.failCreates--
		return errors.New("connection refused")
	}
	r.nextID++
	h.ID = r.nextID
	r.records[h.ID] = *h
	return nil
}

func (r *memoryHistoryRepo) Update(_ context.Context, h *entity.TaskExecutionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, h.ID)
	r.records[h.ID] = *h
	return nil
}

func (r *memoryHistoryRepo) get(id uint) entity.TaskExecutionHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

type funcStrategy struct {
	jobType entity.JobType
	fn      func(ctx context.Context, job *entity.Job) (string, error)
}

func (s funcStrategy) GetType() entity.JobType {
	return s.jobType
}

func (s funcStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	return s.fn(ctx, job)
}

func TestExecutor_RecordsSuccess(t *testing.T) {
	repo := newMemoryHistoryRepo()
	notifier := &recordingNotifier{}
	strat := funcStrategy{jobType: entity.JobTypePriceRefresh, fn: func(context.Context, *entity.Job) (string, error) {
		return `{"status":"success"}`, nil
	}}
	exec := NewExecutorService(repo, notifier, logger.NewNop(), []strategy.JobExecutionStrategy{strat})

	h := exec.Execute(context.Background(), &entity.Job{Name: "prices", Type: entity.JobTypePriceRefresh, Timeout: time.Second})

	stored := repo.get(h.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.JSONEq(t, `{"status":"success"}`, string(stored.Output))
	assert.True(t, stored.CompletedAt.Valid)
	assert.False(t, stored.ErrorMessage.Valid)
	assert.Empty(t, notifier.messages)
}

func TestExecutor_FailureIsRecordedAndReported(t *testing.T) {
	repo := newMemoryHistoryRepo()
	notifier := &recordingNotifier{}
	strat := funcStrategy{jobType: entity.JobTypeNewsIngest, fn: func(context.Context, *entity.Job) (string, error) {
		return "partial output", errors.New("feed unreachable")
	}}
	exec := NewExecutorService(repo, notifier, logger.NewNop(), []strategy.JobExecutionStrategy{strat})

	h := exec.Execute(context.Background(), &entity.Job{Name: "news", Type: entity.JobTypeNewsIngest})

	stored := repo.get(h.ID)
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Equal(t, "feed unreachable", stored.ErrorMessage.String)
	assert.JSONEq(t, `"partial output"`, string(stored.Output))
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "news")
}

func TestExecutor_InsertsFinishedRunWhenStartInsertFails(t *testing.T) {
	repo := newMemoryHistoryRepo()
	repo.failCreates = 1
	strat := funcStrategy{jobType: entity.JobTypePriceRefresh, fn: func(context.Context, *entity.Job) (string, error) {
		return `{"status":"success"}`, nil
	}}
	exec := NewExecutorService(repo, &recordingNotifier{}, logger.NewNop(), []strategy.JobExecutionStrategy{strat})

	h := exec.Execute(context.Background(), &entity.Job{Name: "prices", Type: entity.JobTypePriceRefresh})

	assert.Empty(t, repo.updates, "no update against a row that was never inserted")
	require.NotZero(t, h.ID)
	stored := repo.get(h.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.True(t, stored.CompletedAt.Valid)

	repo.failCreates = 2
	h = exec.Execute(context.Background(), &entity.Job{Name: "prices", Type: entity.JobTypePriceRefresh})
	assert.Zero(t, h.ID)
	assert.Empty(t, repo.updates)
	assert.Equal(t, entity.StatusCompleted, h.Status)
}

func TestExecutor_UnknownJobType(t *testing.T) {
	repo := newMemoryHistoryRepo()
	exec := NewExecutorService(repo, &recordingNotifier{}, logger.NewNop(), nil)

	h := exec.Execute(context.Background(), &entity.Job{Name: "mystery", Type: "mystery"})

	assert.Equal(t, entity.StatusFailed, h.Status)
	assert.Contains(t, h.ErrorMessage.String, "no executor strategy")
}

func TestExecutor_TimeoutIsReported(t *testing.T) {
	repo := newMemoryHistoryRepo()
	strat := funcStrategy{jobType: entity.JobTypeCalendarSync, fn: func(ctx context.Context, _ *entity.Job) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	exec := NewExecutorService(repo, &recordingNotifier{}, logger.NewNop(), []strategy.JobExecutionStrategy{strat})

	h := exec.Execute(context.Background(), &entity.Job{Name: "calendar", Type: entity.JobTypeCalendarSync, Timeout: 20 * time.Millisecond})

	assert.Equal(t, entity.StatusFailed, h.Status)
	assert.Contains(t, h.ErrorMessage.String, "timed out")
}

type blockingExecutor struct {
	calls   atomic.Int32
	release chan struct{}
}

func (e *blockingExecutor) Execute(_ context.Context, job *entity.Job) *entity.TaskExecutionHistory {
	e.calls.Add(1)
	if e.release != nil {
		<-e.release
	}
	return &entity.TaskExecutionHistory{JobName: job.Name, Status: entity.StatusCompleted}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestScheduler_RunsDueJobsOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 11, 10, 0, 30, 0, time.UTC)}
	exec := &blockingExecutor{}
	jobs := []entity.Job{
		{Name: "prices", Type: entity.JobTypePriceRefresh, CronExpression: "@every 60s"},
		{Name: "calendar", Type: entity.JobTypeCalendarSync, CronExpression: "0 * * * *"},
	}
	s, err := newSchedulerService(jobs, exec, logger.NewNop(), time.Second, clock.Now)
	require.NoError(t, err)

	s.ProcessJobs(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(0), exec.calls.Load())

	clock.Advance(61 * time.Second)
	s.ProcessJobs(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(1), exec.calls.Load())

	clock.Advance(time.Hour)
	s.ProcessJobs(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(3), exec.calls.Load())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)}
	exec := &blockingExecutor{release: make(chan struct{})}
	jobs := []entity.Job{{Name: "news", Type: entity.JobTypeNewsIngest, CronExpression: "@every 1m"}}
	s, err := newSchedulerService(jobs, exec, logger.NewNop(), time.Second, clock.Now)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	s.ProcessJobs(context.Background())
	require.Eventually(t, func() bool { return exec.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Minute)
	s.ProcessJobs(context.Background())
	assert.Equal(t, int32(1), exec.calls.Load())

	close(exec.release)
	s.Stop()

	clock.Advance(time.Minute)
	s.ProcessJobs(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(2), exec.calls.Load())
}

func TestScheduler_InvalidCron(t *testing.T) {
	_, err := NewSchedulerService([]entity.Job{{Name: "bad", CronExpression: "every minute"}}, &blockingExecutor{}, logger.NewNop(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestScheduler_StartStopsOnContextCancel(t *testing.T) {
	s, err := NewSchedulerService(nil, &blockingExecutor{}, logger.NewNop(), 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
