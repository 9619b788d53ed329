package reader

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"wisefido-vitals/internal/models"
)

// ErrMalformed 无法解析的行或消息
var ErrMalformed = errors.New("malformed measurement")

// ParseMessage 解析实时消息：patientId,timestamp,label,value（恰好 4 个字段）
func ParseMessage(message string) (models.PatientRecord, error) {
	if message == "" {
		return models.PatientRecord{}, fmt.Errorf("%w: empty message", ErrMalformed)
	}
	parts := strings.SplitN(message, ",", 4)
	if len(parts) != 4 {
		return models.PatientRecord{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformed, len(parts))
	}
	return ParseFields(parts[0], parts[1], parts[2], parts[3])
}

// ParseFileLine 解析文件行：PatientID: {id}, Timestamp: {ts}, Label: {label}, Value: {value}
// 每个字段取第一个冒号之后的内容并去掉首尾空白，键名不参与校验
func ParseFileLine(line string) (models.PatientRecord, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 4 {
		return models.PatientRecord{}, fmt.Errorf("%w: expected 4 key:value pairs, got %d", ErrMalformed, len(parts))
	}

	values := make([]string, 4)
	for i := 0; i < 4; i++ {
		_, v, ok := strings.Cut(parts[i], ":")
		if !ok {
			return models.PatientRecord{}, fmt.Errorf("%w: missing ':' in %q", ErrMalformed, parts[i])
		}
		values[i] = strings.TrimSpace(v)
	}
	return ParseFields(values[0], values[1], values[2], values[3])
}

// ParseFields 由四个文本字段构造记录；value 允许带一个 '%' 后缀，必须是有限数
func ParseFields(patientID, timestamp, label, value string) (models.PatientRecord, error) {
	id, err := strconv.Atoi(patientID)
	if err != nil {
		return models.PatientRecord{}, fmt.Errorf("%w: invalid patient id %q", ErrMalformed, patientID)
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return models.PatientRecord{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformed, timestamp)
	}
	if label == "" {
		return models.PatientRecord{}, fmt.Errorf("%w: empty label", ErrMalformed)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.PatientRecord{}, fmt.Errorf("%w: invalid value %q", ErrMalformed, value)
	}

	return models.PatientRecord{
		PatientID:  id,
		Value:      v,
		RecordType: label,
		Timestamp:  ts,
	}, nil
}
