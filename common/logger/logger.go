package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建 Logger
// level: debug | info | warn | error，未知值为 info
// format: json（默认，写 stdout）| console（开发模式）
// serviceName: 如 "wisefido-simulator"，为空时不附加
func NewLogger(level string, format string, serviceName string) (*zap.Logger, error) {
	cfg := baseConfig(format)
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.InitialFields = initialFields(serviceName)
	return cfg.Build()
}

func baseConfig(format string) zap.Config {
	if strings.EqualFold(format, "console") {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}

func initialFields(serviceName string) map[string]interface{} {
	fields := make(map[string]interface{}, 2)
	if serviceName != "" {
		fields["service_name"] = serviceName
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		fields["hostname"] = hostname
	}
	return fields
}

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
