package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleSink 控制台输出
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink 创建控制台输出端，w 为空时写入标准输出
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Output(patientID int, timestamp int64, label string, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, FormatRecord(patientID, timestamp, label, data))
}

func (s *ConsoleSink) Close() error {
	return nil
}
