package models

import (
	"fmt"
	"strings"
)

// AlertCategory 报警类别
type AlertCategory string

const (
	CategoryBloodPressure AlertCategory = "BloodPressure"
	CategoryBloodOxygen   AlertCategory = "BloodOxygen"
	CategoryECG           AlertCategory = "ECG"
)

// AlertView 报警的只读视图，核心报警与装饰后的报警都实现
type AlertView interface {
	GetPatientID() int
	GetCondition() string
	GetTimestamp() int64
}

// Alert 核心报警（值类型，创建后不再修改）
type Alert struct {
	PatientID int
	Condition string
	Timestamp int64
	Category  AlertCategory
}

// NewAlert 按类别创建报警
func NewAlert(category AlertCategory, patientID int, condition string, timestamp int64) Alert {
	return Alert{
		PatientID: patientID,
		Condition: condition,
		Timestamp: timestamp,
		Category:  category,
	}
}

func (a Alert) GetPatientID() int    { return a.PatientID }
func (a Alert) GetCondition() string { return a.Condition }
func (a Alert) GetTimestamp() int64  { return a.Timestamp }

// DecorationKind 装饰类型（固定集合）
type DecorationKind int

const (
	DecorationPriority DecorationKind = iota + 1
	DecorationRepeat
)

// Decoration 单个装饰
type Decoration struct {
	Kind        DecorationKind
	Priority    string
	RepeatCount int
}

// apply 在已有描述上叠加本装饰
func (d Decoration) apply(condition string) string {
	switch d.Kind {
	case DecorationPriority:
		return fmt.Sprintf("[PRIORITY: %s] %s", d.Priority, condition)
	case DecorationRepeat:
		return fmt.Sprintf("%s (Repeated %d times)", condition, d.RepeatCount)
	default:
		return condition
	}
}

// DecoratedAlert 装饰链：一个核心报警 + 按顺序应用的装饰
// 装饰只改变展示用的 condition，patient_id / timestamp 透传
type DecoratedAlert struct {
	core        Alert
	decorations []Decoration
}

// Decorate 以核心报警开始一条装饰链
func Decorate(alert Alert) DecoratedAlert {
	return DecoratedAlert{core: alert}
}

// WithPriority 追加优先级装饰，返回新链，原链不变
func (d DecoratedAlert) WithPriority(priority string) DecoratedAlert {
	return d.with(Decoration{Kind: DecorationPriority, Priority: priority})
}

// WithRepeat 追加重复次数装饰，返回新链，原链不变
func (d DecoratedAlert) WithRepeat(count int) DecoratedAlert {
	return d.with(Decoration{Kind: DecorationRepeat, RepeatCount: count})
}

func (d DecoratedAlert) with(dec Decoration) DecoratedAlert {
	decorations := make([]Decoration, len(d.decorations), len(d.decorations)+1)
	copy(decorations, d.decorations)
	return DecoratedAlert{core: d.core, decorations: append(decorations, dec)}
}

// Core 返回被装饰的核心报警
func (d DecoratedAlert) Core() Alert { return d.core }

// Depth 装饰层数
func (d DecoratedAlert) Depth() int { return len(d.decorations) }

// Priority 最外层的优先级装饰（没有则为空）
func (d DecoratedAlert) Priority() string {
	for i := len(d.decorations) - 1; i >= 0; i-- {
		if d.decorations[i].Kind == DecorationPriority {
			return d.decorations[i].Priority
		}
	}
	return ""
}

// RepeatCount 最外层的重复次数装饰（没有则为 0）
func (d DecoratedAlert) RepeatCount() int {
	for i := len(d.decorations) - 1; i >= 0; i-- {
		if d.decorations[i].Kind == DecorationRepeat {
			return d.decorations[i].RepeatCount
		}
	}
	return 0
}

func (d DecoratedAlert) GetPatientID() int   { return d.core.PatientID }
func (d DecoratedAlert) GetTimestamp() int64 { return d.core.Timestamp }

func (d DecoratedAlert) GetCondition() string {
	condition := d.core.Condition
	for _, dec := range d.decorations {
		condition = dec.apply(condition)
	}
	return condition
}

// String 用于日志输出
func (d DecoratedAlert) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALERT: %s for Patient ID: %d at %d", d.GetCondition(), d.GetPatientID(), d.GetTimestamp())
	return b.String()
}
