// Package store 按患者分桶的内存记录存储
//
// 外层读写锁只保护 患者ID -> 桶 的映射，每个患者桶有自己的锁，
// 不同患者的读写互不阻塞。记录按插入顺序保存，不重新排序。
package store

import (
	"sort"
	"sync"

	"wisefido-vitals/internal/models"
)

// Patient 单个患者的记录桶
type Patient struct {
	id int

	mu      sync.RWMutex
	records []models.PatientRecord
}

func newPatient(id int) *Patient {
	return &Patient{id: id}
}

// ID 患者ID
func (p *Patient) ID() int { return p.id }

// AddRecord 追加一条记录
func (p *Patient) AddRecord(value float64, recordType string, timestamp int64) {
	p.mu.Lock()
	p.records = append(p.records, models.PatientRecord{
		PatientID:  p.id,
		Value:      value,
		RecordType: recordType,
		Timestamp:  timestamp,
	})
	p.mu.Unlock()
}

// GetRecords 返回 start <= timestamp <= end 的记录（插入顺序，返回副本）
func (p *Patient) GetRecords(start, end int64) []models.PatientRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]models.PatientRecord, 0)
	for _, r := range p.records {
		if r.Timestamp >= start && r.Timestamp <= end {
			result = append(result, r)
		}
	}
	return result
}

// Len 记录数
func (p *Patient) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

// Store 记录存储（由入口创建并显式传递，不是全局单例）
type Store struct {
	mu       sync.RWMutex
	patients map[int]*Patient
}

// New 创建空存储
func New() *Store {
	return &Store{patients: make(map[int]*Patient)}
}

// patient 获取患者桶，不存在时创建
func (s *Store) patient(patientID int) *Patient {
	s.mu.RLock()
	p, ok := s.patients[patientID]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.patients[patientID]; ok {
		return p
	}
	p = newPatient(patientID)
	s.patients[patientID] = p
	return p
}

// AddPatientData 添加一条测量记录（首次出现的患者自动创建）
func (s *Store) AddPatientData(patientID int, value float64, recordType string, timestamp int64) {
	s.patient(patientID).AddRecord(value, recordType, timestamp)
}

// GetRecords 返回患者在 [start, end] 内的记录；未知患者返回空切片
func (s *Store) GetRecords(patientID int, start, end int64) []models.PatientRecord {
	s.mu.RLock()
	p, ok := s.patients[patientID]
	s.mu.RUnlock()
	if !ok {
		return []models.PatientRecord{}
	}
	return p.GetRecords(start, end)
}

// GetPatient 获取患者桶
func (s *Store) GetPatient(patientID int) (*Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	return p, ok
}

// GetAllPatients 所有患者的快照（按ID升序）
func (s *Store) GetAllPatients() []*Patient {
	s.mu.RLock()
	patients := make([]*Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, p)
	}
	s.mu.RUnlock()

	sort.Slice(patients, func(i, j int) bool { return patients[i].id < patients[j].id })
	return patients
}

// Clear 清空所有记录
func (s *Store) Clear() {
	s.mu.Lock()
	s.patients = make(map[int]*Patient)
	s.mu.Unlock()
}
