package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	mqttcommon "wisefido-vitals/common/mqtt"
	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/generator"
	"wisefido-vitals/internal/output"
	"wisefido-vitals/internal/scheduler"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// GeneratorSchedule 生成器的执行周期和首次延迟单位
// 首次延迟取 [0,5) 个 JitterUnit，单位与周期的时间单位一致
type GeneratorSchedule struct {
	Period     time.Duration
	JitterUnit time.Duration
}

// GeneratorSchedules 各生成器的调度参数（按生成器名称）
var GeneratorSchedules = map[string]GeneratorSchedule{
	"ecg":            {Period: time.Second, JitterUnit: time.Second},
	"saturation":     {Period: time.Second, JitterUnit: time.Second},
	"blood_pressure": {Period: time.Minute, JitterUnit: time.Minute},
	"blood_levels":   {Period: 2 * time.Minute, JitterUnit: time.Minute},
	"alert":          {Period: 20 * time.Second, JitterUnit: time.Second},
}

// SimulatorService 模拟器服务：调度器 -> 生成器 -> 输出端
type SimulatorService struct {
	config     *config.Config
	logger     *zap.Logger
	redis      *redis.Client
	mqttClient *mqttcommon.Client
	sink       output.Sink
	generators []generator.Generator
	scheduler  *scheduler.Scheduler
	schedules  map[string]GeneratorSchedule
	shuffle    func(n int) []int
}

// NewSimulatorService 创建模拟器服务，按输出目标连接 Redis 或 MQTT
func NewSimulatorService(cfg *config.Config, logger *zap.Logger) (*SimulatorService, error) {
	target, err := output.ParseTarget(cfg.Simulator.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output target: %w", err)
	}

	var (
		deps       output.Dependencies
		redisCli   *redis.Client
		mqttClient *mqttcommon.Client
	)

	switch target.Kind {
	case output.KindRedis:
		redisCli, err = rediscommon.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = redisCli
	case output.KindMQTT:
		mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
		}
		deps.MQTT = mqttClient
	}

	sink, err := output.NewSink(target, deps, logger)
	if err != nil {
		if mqttClient != nil {
			mqttClient.Disconnect()
		}
		if redisCli != nil {
			redisCli.Close()
		}
		return nil, fmt.Errorf("failed to create output sink: %w", err)
	}

	s := newSimulatorService(cfg, sink, logger)
	s.redis = redisCli
	s.mqttClient = mqttClient
	return s, nil
}

// newSimulatorService 使用已创建的输出端组装服务
func newSimulatorService(cfg *config.Config, sink output.Sink, logger *zap.Logger) *SimulatorService {
	schedules := make(map[string]GeneratorSchedule, len(GeneratorSchedules))
	for name, sc := range GeneratorSchedules {
		schedules[name] = sc
	}
	return &SimulatorService{
		config:     cfg,
		logger:     logger,
		sink:       sink,
		generators: generator.NewGenerators(cfg.Simulator.PatientCount, logger),
		scheduler:  scheduler.NewScheduler(cfg.WorkerCount(), cfg.Simulator.JitterUnit, logger),
		schedules:  schedules,
		shuffle:    rand.Perm,
	}
}

// Start 为每个患者注册五个周期任务并启动调度器
func (s *SimulatorService) Start(ctx context.Context) error {
	patientCount := s.config.Simulator.PatientCount
	if patientCount <= 0 {
		return fmt.Errorf("invalid patient count: %d", patientCount)
	}

	// 打乱患者顺序，避免按 ID 顺序集中启动
	for _, idx := range s.shuffle(patientCount) {
		patientID := idx + 1
		for _, g := range s.generators {
			sc, ok := s.schedules[g.Name()]
			if !ok {
				return fmt.Errorf("no period configured for generator %s", g.Name())
			}
			name := fmt.Sprintf("%s-%d", g.Name(), patientID)
			job := func() { g.Generate(patientID, s.sink) }
			if err := s.scheduler.ScheduleWithJitter(name, job, sc.Period, s.jitterUnit(sc)); err != nil {
				return fmt.Errorf("failed to schedule %s: %w", name, err)
			}
		}
	}

	s.scheduler.Start(ctx)

	s.logger.Info("Simulator service started",
		zap.Int("patient_count", patientCount),
		zap.Int("worker_count", s.config.WorkerCount()),
		zap.String("output", s.config.Simulator.Output),
	)
	return nil
}

// jitterUnit 配置了 SIM_JITTER_UNIT 时统一使用它，否则使用生成器自身的单位
func (s *SimulatorService) jitterUnit(sc GeneratorSchedule) time.Duration {
	if s.config.Simulator.JitterUnit > 0 {
		return s.config.Simulator.JitterUnit
	}
	return sc.JitterUnit
}

// Stop 先停止调度器，再关闭输出端和外部连接
func (s *SimulatorService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping simulator service")

	s.scheduler.Stop()

	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			s.logger.Error("Error closing output sink", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redis != nil {
		s.redis.Close()
	}

	s.logger.Info("Simulator service stopped",
		zap.Int64("job_runs", s.scheduler.Runs()),
		zap.Int64("job_panics", s.scheduler.Panics()),
	)
	return nil
}
