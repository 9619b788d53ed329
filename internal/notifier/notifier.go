// Package notifier 报警通知出口
package notifier

import (
	"context"

	"wisefido-vitals/internal/models"

	"go.uber.org/zap"
)

// Notifier 报警事件通知
type Notifier interface {
	Notify(ctx context.Context, events []models.AlertEvent) error
}

// Named 带名称的通知器（用于日志）
type Named struct {
	Name     string
	Notifier Notifier
}

// Multi 依次调用多个通知器，单个失败只记录日志，不影响其他通知器
type Multi struct {
	notifiers []Named
	logger    *zap.Logger
}

// NewMulti 创建组合通知器
func NewMulti(logger *zap.Logger, notifiers ...Named) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

// Add 追加通知器
func (m *Multi) Add(name string, n Notifier) {
	m.notifiers = append(m.notifiers, Named{Name: name, Notifier: n})
}

// Len 通知器数量
func (m *Multi) Len() int { return len(m.notifiers) }

// Notify 实现 Notifier；总是返回 nil
func (m *Multi) Notify(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, n := range m.notifiers {
		if err := n.Notifier.Notify(ctx, events); err != nil {
			m.logger.Error("Failed to notify alert events",
				zap.String("notifier", n.Name),
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}
	return nil
}
