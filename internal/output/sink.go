// Package output 提供测量数据的输出端（控制台、文件、TCP、WebSocket、Redis Streams、MQTT）
//
// 所有输出端遵循同一约定：
// - Output 不向调用方返回错误，失败只记录日志
// - Output 不会因为对端暂时不可用而无限阻塞
// - 网络类输出端在没有客户端时直接丢弃数据（至多一次投递，不缓存）
package output

import (
	"fmt"
)

// Sink 测量输出端
type Sink interface {
	// Output 输出一条测量；timestamp 为毫秒时间戳
	Output(patientID int, timestamp int64, label string, data string)
	// Close 释放监听端口、连接等资源
	Close() error
}

// FormatLine 网络输出的线格式：patientId,timestamp,label,data
func FormatLine(patientID int, timestamp int64, label, data string) string {
	return fmt.Sprintf("%d,%d,%s,%s", patientID, timestamp, label, data)
}

// FormatRecord 控制台/文件输出的可读格式
func FormatRecord(patientID int, timestamp int64, label, data string) string {
	return fmt.Sprintf("Patient ID: %d, Timestamp: %d, Label: %s, Data: %s", patientID, timestamp, label, data)
}
