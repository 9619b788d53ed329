package notifier

import (
	"context"

	"wisefido-vitals/internal/models"

	"go.uber.org/zap"
)

// LogNotifier 把报警写入日志
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, events []models.AlertEvent) error {
	for _, e := range events {
		n.logger.Warn(e.Message(),
			zap.String("event_id", e.EventID),
			zap.Int("patient_id", e.PatientID),
			zap.String("category", e.Category),
			zap.String("condition", e.Condition),
			zap.String("priority", e.Priority),
		)
	}
	return nil
}
