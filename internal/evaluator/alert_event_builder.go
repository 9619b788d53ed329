package evaluator

import (
	"fmt"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/google/uuid"
)

// alertEventNamespace 报警事件 ID 的 UUIDv5 命名空间
var alertEventNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("wisefido-vitals/alert-event"))

// AlertEventID 由 患者|条件|触发时间 派生的确定性事件 ID
// 同一条记录在多轮评估中得到相同 ID，持久化时按 event_id 去重
func AlertEventID(patientID int, condition string, triggeredAt int64) string {
	key := fmt.Sprintf("%d|%s|%d", patientID, condition, triggeredAt)
	return uuid.NewSHA1(alertEventNamespace, []byte(key)).String()
}

// AlertEventBuilder 把装饰后的报警转换为报警事件
type AlertEventBuilder struct {
	now func() time.Time
}

// NewAlertEventBuilder 创建报警事件构建器；now 为 nil 时使用 time.Now
func NewAlertEventBuilder(now func() time.Time) *AlertEventBuilder {
	if now == nil {
		now = time.Now
	}
	return &AlertEventBuilder{now: now}
}

// BuildAlertEvent 构建报警事件
func (b *AlertEventBuilder) BuildAlertEvent(alert models.DecoratedAlert) models.AlertEvent {
	core := alert.Core()
	return models.AlertEvent{
		EventID:          AlertEventID(core.PatientID, core.Condition, core.Timestamp),
		PatientID:        core.PatientID,
		Category:         string(core.Category),
		Condition:        core.Condition,
		DisplayCondition: alert.GetCondition(),
		Priority:         alert.Priority(),
		RepeatCount:      alert.RepeatCount(),
		TriggeredAt:      time.UnixMilli(core.Timestamp).UTC(),
		CreatedAt:        b.now().UTC(),
	}
}
