package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	"wisefido-vitals/common/config"
)

// Config 生命体征模拟/监测服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 模拟器配置
	Simulator struct {
		PatientCount int           // 病人数量，默认 50
		Output       string        // 输出目标：console | file:<dir> | tcp:<port> | websocket:<port> | redis:<stream> | mqtt:<prefix>
		WorkerCount  int           // 工作协程数，0 表示 病人数*4
		JitterUnit   time.Duration // 首次执行随机延迟的单位，延迟取 [0,5) 个单位；0 表示使用各生成器周期的单位
	}

	// 采集配置
	Ingest struct {
		Mode          string // file | websocket | tcp | redis | mqtt
		Directory     string // 文件批量采集目录
		URL           string // WebSocket 地址，如 "ws://localhost:8887"
		TCPAddr       string // TCP 输出端地址，如 "localhost:8888"
		Stream        string // Redis Stream 名称
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int64
		MQTTTopic     string // MQTT 主题前缀
	}

	// 报警配置
	Alert struct {
		EvaluateInterval time.Duration // 周期评估间隔
		Priority         string        // 优先级装饰
		RepeatCount      int           // 重复次数装饰

		Cache struct {
			Enabled   bool
			KeyPrefix string // 如 "vitals:patient:"
			Suffix    string // 如 ":alerts"
			TTL       time.Duration
		}

		PersistEnabled bool   // 写入 PostgreSQL
		WebhookURL     string // 为空则不推送
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database = config.DefaultDatabaseConfig()
	cfg.Database.LoadFromEnv("DB")
	cfg.Redis = config.DefaultRedisConfig()
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.MQTT = config.DefaultMQTTConfig("wisefido-vitals")
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Simulator.PatientCount = getEnvInt("SIM_PATIENT_COUNT", 50)
	cfg.Simulator.Output = getEnv("SIM_OUTPUT", "console")
	cfg.Simulator.WorkerCount = getEnvInt("SIM_WORKER_COUNT", 0)
	cfg.Simulator.JitterUnit = getEnvDuration("SIM_JITTER_UNIT", 0)

	cfg.Ingest.Mode = strings.ToLower(getEnv("INGEST_MODE", "websocket"))
	cfg.Ingest.Directory = getEnv("INGEST_DIR", "./output")
	cfg.Ingest.URL = getEnv("INGEST_URL", "ws://localhost:8887")
	cfg.Ingest.TCPAddr = getEnv("INGEST_TCP_ADDR", "localhost:8888")
	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "vitals:measurements")
	cfg.Ingest.ConsumerGroup = getEnv("INGEST_CONSUMER_GROUP", "wisefido-monitor")
	cfg.Ingest.ConsumerName = getEnv("INGEST_CONSUMER_NAME", "monitor-1")
	cfg.Ingest.BatchSize = int64(getEnvInt("INGEST_BATCH_SIZE", 100))
	cfg.Ingest.MQTTTopic = getEnv("INGEST_MQTT_TOPIC", "vitals")

	cfg.Alert.EvaluateInterval = getEnvDuration("ALERT_EVALUATE_INTERVAL", 10*time.Second)
	cfg.Alert.Priority = getEnv("ALERT_PRIORITY", "HIGH")
	cfg.Alert.RepeatCount = getEnvInt("ALERT_REPEAT_COUNT", 3)
	cfg.Alert.Cache.Enabled = getEnvBool("ALERT_CACHE_ENABLED", false)
	cfg.Alert.Cache.KeyPrefix = getEnv("ALERT_CACHE_PREFIX", "vitals:patient:")
	cfg.Alert.Cache.Suffix = ":alerts"
	cfg.Alert.Cache.TTL = getEnvDuration("ALERT_CACHE_TTL", 60*time.Second)
	cfg.Alert.PersistEnabled = getEnvBool("ALERT_PERSIST_ENABLED", false)
	cfg.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// WorkerCount 实际工作协程数（每个病人 4 个）
func (c *Config) WorkerCount() int {
	if c.Simulator.WorkerCount > 0 {
		return c.Simulator.WorkerCount
	}
	if c.Simulator.PatientCount <= 0 {
		return 1
	}
	return c.Simulator.PatientCount * 4
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
