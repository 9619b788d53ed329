package models

import (
	"fmt"
	"time"
)

// AlertEvent 报警事件（对应 vital_alert_events 表，也用于缓存和通知）
type AlertEvent struct {
	EventID          string    `json:"event_id" db:"event_id"`
	PatientID        int       `json:"patient_id" db:"patient_id"`
	Category         string    `json:"category" db:"category"`
	Condition        string    `json:"condition" db:"condition"`
	DisplayCondition string    `json:"display_condition" db:"display_condition"`
	Priority         string    `json:"priority" db:"priority"`
	RepeatCount      int       `json:"repeat_count" db:"repeat_count"`
	TriggeredAt      time.Time `json:"triggered_at" db:"triggered_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Message 报警的可读描述
func (e AlertEvent) Message() string {
	return fmt.Sprintf("ALERT: %s for Patient ID: %d at %d", e.DisplayCondition, e.PatientID, e.TriggeredAt.UnixMilli())
}
