// Package scheduler 固定大小工作池上的周期任务调度
//
// 每个任务首次执行前随机延迟 [0,5) 个抖动单位，之后按固定周期重复，直到调度器停止。
// 同一任务上一次执行结束前不会再次执行；不同任务在不同 worker 上并发执行。
package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"wisefido-vitals/internal/metrics"

	"go.uber.org/zap"
)

// MaxJitterUnits 首次执行延迟的上限（不含）
const MaxJitterUnits = 5

// Job 周期任务
type Job func()

type scheduledJob struct {
	name   string
	job    Job
	delay  time.Duration
	period time.Duration
}

type task struct {
	job  *scheduledJob
	done chan struct{}
}

// Scheduler 周期任务调度器
type Scheduler struct {
	workerCount int
	jitterUnit  time.Duration
	logger      *zap.Logger
	randIntN    func(n int) int

	tasks chan task

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	pending []*scheduledJob

	workersWG sync.WaitGroup
	jobsWG    sync.WaitGroup

	runs   atomic.Int64
	panics atomic.Int64
}

// NewScheduler 创建调度器；workerCount <= 0 时使用 1，jitterUnit <= 0 时使用 1s
func NewScheduler(workerCount int, jitterUnit time.Duration, logger *zap.Logger) *Scheduler {
	if workerCount <= 0 {
		workerCount = 1
	}
	if jitterUnit <= 0 {
		jitterUnit = time.Second
	}
	return &Scheduler{
		workerCount: workerCount,
		jitterUnit:  jitterUnit,
		logger:      logger,
		randIntN:    rand.IntN,
		tasks:       make(chan task),
	}
}

// Schedule 注册周期任务，使用调度器的抖动单位；可在 Start 之前或之后调用
func (s *Scheduler) Schedule(name string, job Job, period time.Duration) error {
	return s.ScheduleWithJitter(name, job, period, s.jitterUnit)
}

// ScheduleWithJitter 注册周期任务，首次延迟取 [0,5) 个 jitterUnit；jitterUnit <= 0 时使用调度器的抖动单位
func (s *Scheduler) ScheduleWithJitter(name string, job Job, period, jitterUnit time.Duration) error {
	if jitterUnit <= 0 {
		jitterUnit = s.jitterUnit
	}
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}
	if period <= 0 {
		return fmt.Errorf("invalid period for job %s: %s", name, period)
	}

	j := &scheduledJob{
		name:   name,
		job:    job,
		delay:  time.Duration(s.randIntN(MaxJitterUnits)) * jitterUnit,
		period: period,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	if !s.started {
		s.pending = append(s.pending, j)
		return nil
	}
	s.launch(j)
	return nil
}

// Start 启动 worker 和已注册的任务；ctx 取消等同于 Stop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	for i := 0; i < s.workerCount; i++ {
		s.workersWG.Add(1)
		go s.worker()
	}

	for _, j := range s.pending {
		s.launch(j)
	}
	s.logger.Info("Scheduler started",
		zap.Int("worker_count", s.workerCount),
		zap.Int("job_count", len(s.pending)),
	)
	s.pending = nil
}

// launch 需持有 s.mu
func (s *Scheduler) launch(j *scheduledJob) {
	s.jobsWG.Add(1)
	go s.runJob(j)
}

// Stop 取消所有任务并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.jobsWG.Wait()
	s.workersWG.Wait()

	s.logger.Info("Scheduler stopped",
		zap.Int64("runs", s.runs.Load()),
		zap.Int64("panics", s.panics.Load()),
	)
}

// Runs 已完成的任务执行次数
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Panics 被捕获的任务 panic 次数
func (s *Scheduler) Panics() int64 { return s.panics.Load() }

func (s *Scheduler) worker() {
	defer s.workersWG.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-s.tasks:
			s.execute(t.job)
			close(t.done)
		}
	}
}

// execute 执行一次任务，panic 只影响本次执行
func (s *Scheduler) execute(j *scheduledJob) {
	defer func() {
		if r := recover(); r != nil {
			s.panics.Add(1)
			metrics.JobPanics.Inc()
			s.logger.Error("Scheduled job panicked",
				zap.String("job", j.name),
				zap.Any("panic", r),
			)
		}
		s.runs.Add(1)
	}()
	j.job()
}

func (s *Scheduler) runJob(j *scheduledJob) {
	defer s.jobsWG.Done()

	timer := time.NewTimer(j.delay)
	select {
	case <-s.ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(j.period)
	defer ticker.Stop()

	for {
		if !s.dispatch(j) {
			return
		}
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// dispatch 把任务交给空闲 worker 并等待执行完成
func (s *Scheduler) dispatch(j *scheduledJob) bool {
	t := task{job: j, done: make(chan struct{})}
	select {
	case <-s.ctx.Done():
		return false
	case s.tasks <- t:
	}
	select {
	case <-s.ctx.Done():
		return false
	case <-t.done:
		return true
	}
}
