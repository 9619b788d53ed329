package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 输出目标类型
const (
	KindConsole   = "console"
	KindFile      = "file"
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
	KindRedis     = "redis"
	KindMQTT      = "mqtt"
)

// Target 解析后的输出目标
type Target struct {
	Kind  string
	Value string // 目录 / 端口 / stream 名 / 主题前缀
}

// ParseTarget 解析输出目标：console | file:<dir> | tcp:<port> | websocket:<port> | redis:<stream> | mqtt:<prefix>
func ParseTarget(s string) (Target, error) {
	if s == "" || s == KindConsole {
		return Target{Kind: KindConsole}, nil
	}

	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return Target{}, fmt.Errorf("invalid output target: %q", s)
	}

	switch kind {
	case KindFile, KindRedis, KindMQTT:
		return Target{Kind: kind, Value: value}, nil
	case KindTCP, KindWebSocket:
		port, err := strconv.Atoi(value)
		if err != nil || port < 0 || port > 65535 {
			return Target{}, fmt.Errorf("invalid port for %s output: %q", kind, value)
		}
		return Target{Kind: kind, Value: value}, nil
	default:
		return Target{}, fmt.Errorf("unknown output type: %q", kind)
	}
}

// Dependencies 网络类输出端需要的外部客户端
type Dependencies struct {
	Redis *redis.Client
	MQTT  Publisher
}

// NewSink 根据目标创建输出端
func NewSink(target Target, deps Dependencies, logger *zap.Logger) (Sink, error) {
	switch target.Kind {
	case KindConsole:
		return NewConsoleSink(nil), nil
	case KindFile:
		sink, err := NewFileSink(target.Value, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case KindTCP:
		sink, err := NewTCPSink(":"+target.Value, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case KindWebSocket:
		sink, err := NewWebSocketSink(":"+target.Value, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case KindRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis client is required for redis output")
		}
		return NewRedisStreamSink(deps.Redis, target.Value, logger), nil
	case KindMQTT:
		if deps.MQTT == nil {
			return nil, fmt.Errorf("mqtt publisher is required for mqtt output")
		}
		return NewMQTTSink(deps.MQTT, target.Value, logger), nil
	default:
		return nil, fmt.Errorf("unknown output type: %q", target.Kind)
	}
}
