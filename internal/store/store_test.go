package store

import (
	"sync"
	"testing"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New()
	ts := time.Now().UnixMilli()

	s.AddPatientData(1, 120.0, models.LabelHeartRate, ts)

	records := s.GetRecords(1, ts, ts)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].PatientID)
	assert.Equal(t, 120.0, records[0].Value)
	assert.Equal(t, models.LabelHeartRate, records[0].RecordType)
	assert.Equal(t, ts, records[0].Timestamp)
}

func TestStore_UnknownPatientIsEmpty(t *testing.T) {
	s := New()
	records := s.GetRecords(999, 0, time.Now().UnixMilli())
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStore_RangeIsInclusiveAndOrdered(t *testing.T) {
	s := New()
	s.AddPatientData(1, 3, models.LabelHeartRate, 300)
	s.AddPatientData(1, 1, models.LabelHeartRate, 100)
	s.AddPatientData(1, 2, models.LabelHeartRate, 200)
	s.AddPatientData(1, 4, models.LabelHeartRate, 400)

	records := s.GetRecords(1, 100, 300)
	require.Len(t, records, 3)
	// 插入顺序，不按时间排序
	assert.Equal(t, []float64{3, 1, 2}, []float64{records[0].Value, records[1].Value, records[2].Value})
}

func TestStore_GetRecordsReturnsCopy(t *testing.T) {
	s := New()
	s.AddPatientData(1, 80, models.LabelHeartRate, 1)

	records := s.GetRecords(1, 0, 10)
	records[0].Value = 0

	assert.Equal(t, 80.0, s.GetRecords(1, 0, 10)[0].Value)
}

func TestStore_GetAllPatientsAndClear(t *testing.T) {
	s := New()
	s.AddPatientData(3, 1, models.LabelECG, 1)
	s.AddPatientData(1, 1, models.LabelECG, 1)
	s.AddPatientData(2, 1, models.LabelECG, 1)

	patients := s.GetAllPatients()
	require.Len(t, patients, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{patients[0].ID(), patients[1].ID(), patients[2].ID()})

	s.Clear()
	assert.Empty(t, s.GetAllPatients())
	assert.Empty(t, s.GetRecords(1, 0, 10))
}

func TestStore_ConcurrentWritersAndReaders(t *testing.T) {
	s := New()
	const patients = 10
	const perPatient = 500

	var wg sync.WaitGroup
	for p := 1; p <= patients; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perPatient; i++ {
				s.AddPatientData(id, float64(i), models.LabelHeartRate, int64(i))
			}
		}(p)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					for _, p := range s.GetAllPatients() {
						p.GetRecords(0, perPatient)
					}
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	for p := 1; p <= patients; p++ {
		records := s.GetRecords(p, 0, perPatient)
		require.Len(t, records, perPatient)
		for i, r := range records {
			assert.Equal(t, int64(i), r.Timestamp)
		}
	}
}
