package models

// 测量标签（与输出端、文件名、采集端保持一致）
const (
	LabelECG                = "ECG"
	LabelSystolicPressure   = "SystolicPressure"
	LabelDiastolicPressure  = "DiastolicPressure"
	LabelSaturation         = "Saturation"
	LabelHeartRate          = "HeartRate"
	LabelCholesterol        = "Cholesterol"
	LabelWhiteBloodCells    = "WhiteBloodCells"
	LabelRedBloodCells      = "RedBloodCells"
	LabelAlert              = "Alert"
	LabelBloodPressureAlert = "BloodPressureAlert"
)

// Measurement 一次生成的测量（发往输出端，Data 为原始文本）
type Measurement struct {
	PatientID int    `json:"patient_id"`
	Timestamp int64  `json:"timestamp"` // 毫秒时间戳
	Label     string `json:"label"`
	Data      string `json:"data"`
}

// PatientRecord 存储中的测量记录（由采集端解析而来，不可变）
type PatientRecord struct {
	PatientID  int     `json:"patient_id"`
	Value      float64 `json:"value"`
	RecordType string  `json:"record_type"`
	Timestamp  int64   `json:"timestamp"` // 毫秒时间戳
}
