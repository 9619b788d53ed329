// Package config 外部依赖（PostgreSQL、Redis、MQTT）的连接配置
//
// 每类配置都有 Default 构造函数，并可用 LoadFromEnv(prefix) 叠加环境变量；
// 无法解析的环境变量值被忽略，保留原值。
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig PostgreSQL 配置（报警事件持久化）
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// DefaultDatabaseConfig 本地开发默认值
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "vitals",
		SSLMode:         "disable",
		MaxConns:        10,
		MaxIdle:         2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// GetDSN 连接串（URL 形式，用户名密码会被转义）
func (c *DatabaseConfig) GetDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// LoadFromEnv 读取 {prefix}_HOST / _PORT / _USER / _PASSWORD / _NAME / _SSLMODE / _MAX_CONNS / _MAX_IDLE
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	lookupString(prefix+"_HOST", &c.Host)
	lookupInt(prefix+"_PORT", &c.Port)
	lookupString(prefix+"_USER", &c.User)
	lookupString(prefix+"_PASSWORD", &c.Password)
	lookupString(prefix+"_NAME", &c.Database)
	lookupString(prefix+"_SSLMODE", &c.SSLMode)
	lookupInt(prefix+"_MAX_CONNS", &c.MaxConns)
	lookupInt(prefix+"_MAX_IDLE", &c.MaxIdle)
}

// RedisConfig Redis 配置（Streams 输出/采集、报警缓存）
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// ReadTimeout 需大于 Streams 的阻塞读时间
	ReadTimeout time.Duration
}

// DefaultRedisConfig 本地开发默认值
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		PoolSize:    10,
		ReadTimeout: 10 * time.Second,
	}
}

// LoadFromEnv 读取 {prefix}_ADDR / _PASSWORD / _DB / _POOL_SIZE / _READ_TIMEOUT
func (c *RedisConfig) LoadFromEnv(prefix string) {
	lookupString(prefix+"_ADDR", &c.Addr)
	lookupString(prefix+"_PASSWORD", &c.Password)
	lookupInt(prefix+"_DB", &c.DB)
	lookupInt(prefix+"_POOL_SIZE", &c.PoolSize)
	lookupDuration(prefix+"_READ_TIMEOUT", &c.ReadTimeout)
}

// MQTTConfig MQTT 配置（测量发布与订阅）
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// DefaultMQTTConfig 本地 broker，clientID 需要每个进程唯一
func DefaultMQTTConfig(clientID string) MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       clientID,
		QoS:            1,
		ConnectTimeout: 10 * time.Second,
	}
}

// LoadFromEnv 读取 {prefix}_BROKER / _CLIENT_ID / _USERNAME / _PASSWORD / _QOS
// QoS 只接受 0..2
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	lookupString(prefix+"_BROKER", &c.Broker)
	lookupString(prefix+"_CLIENT_ID", &c.ClientID)
	lookupString(prefix+"_USERNAME", &c.Username)
	lookupString(prefix+"_PASSWORD", &c.Password)

	var qos int
	if lookupInt(prefix+"_QOS", &qos) && qos >= 0 && qos <= 2 {
		c.QoS = byte(qos)
	}
}

func lookupString(key string, dst *string) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}

func lookupInt(key string, dst *int) bool {
	var s string
	if !lookupString(key, &s) {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	*dst = n
	return true
}

func lookupDuration(key string, dst *time.Duration) bool {
	var s string
	if !lookupString(key, &s) {
		return false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return false
	}
	*dst = d
	return true
}
