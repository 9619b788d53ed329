package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wisefido-vitals/internal/evaluator"
	"wisefido-vitals/internal/export"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/repository"
	"wisefido-vitals/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AlertCache 报警缓存读取（Redis）
type AlertCache interface {
	GetAlerts(ctx context.Context, patientID int) ([]models.AlertEvent, error)
	GetAllPatientIDs(ctx context.Context) ([]int, error)
}

// AlertHistory 报警历史查询（PostgreSQL）
type AlertHistory interface {
	ListAlertEvents(ctx context.Context, filters repository.AlertEventFilters) ([]models.AlertEvent, error)
	GetAlertEvent(ctx context.Context, eventID string) (*models.AlertEvent, error)
}

// PatientSummary 患者概要
type PatientSummary struct {
	PatientID   int `json:"patient_id"`
	RecordCount int `json:"record_count"`
}

// Handler 监测端 HTTP 处理器
type Handler struct {
	store     *store.Store
	evaluator *evaluator.Evaluator
	builder   *evaluator.AlertEventBuilder
	cache     AlertCache   // 可为 nil
	history   AlertHistory // 可为 nil
	logger    *zap.Logger
	now       func() time.Time
	startTime time.Time
}

// NewHandler 创建处理器；cache、history 未启用时传 nil
func NewHandler(
	st *store.Store,
	ev *evaluator.Evaluator,
	cache AlertCache,
	history AlertHistory,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:     st,
		evaluator: ev,
		builder:   evaluator.NewAlertEventBuilder(nil),
		cache:     cache,
		history:   history,
		logger:    logger,
		now:       time.Now,
		startTime: time.Now(),
	}
}

// Health GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"status":   "ok",
		"patients": len(h.store.GetAllPatients()),
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// ListPatients GET /patients
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients := h.store.GetAllPatients()
	items := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		items = append(items, PatientSummary{PatientID: p.ID(), RecordCount: p.Len()})
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// GetRecords GET /patients/{id}/records?start=&end=
// start 默认 0，end 默认当前时间（毫秒）；start > end 时返回空列表
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	start, err := parseInt64(q.Get("start"), 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid start"))
		return
	}
	end, err := parseInt64(q.Get("end"), h.now().UnixMilli())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid end"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(h.store.GetRecords(patientID, start, end)))
}

// EvaluateAlerts GET /patients/{id}/alerts
// 立即评估该患者的全部历史，不触发通知
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}

	p, found := h.store.GetPatient(patientID)
	if !found {
		writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("patient %d not found", patientID)))
		return
	}

	alerts := h.evaluator.EvaluatePatient(p)
	events := make([]models.AlertEvent, 0, len(alerts))
	for _, a := range alerts {
		events = append(events, h.builder.BuildAlertEvent(a))
	}
	writeJSON(w, http.StatusOK, Ok(events))
}

// CachedAlerts GET /patients/{id}/alerts/cached
func (h *Handler) CachedAlerts(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}
	if h.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("alert cache not enabled"))
		return
	}

	events, err := h.cache.GetAlerts(r.Context(), patientID)
	if err != nil {
		h.logger.Error("GetAlerts failed", zap.Int("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to get cached alerts: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(events))
}

// CachedPatients GET /patients/alerts/cached
// 有报警缓存的患者 ID，升序
func (h *Handler) CachedPatients(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("alert cache not enabled"))
		return
	}

	ids, err := h.cache.GetAllPatientIDs(r.Context())
	if err != nil {
		h.logger.Error("GetAllPatientIDs failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to list cached patients: %v", err)))
		return
	}
	if ids == nil {
		ids = []int{}
	}
	writeJSON(w, http.StatusOK, Ok(ids))
}

// GetAlertEvent GET /alerts/{event_id}
func (h *Handler) GetAlertEvent(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("alert persistence not enabled"))
		return
	}

	eventID := mux.Vars(r)["event_id"]
	event, err := h.history.GetAlertEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("alert event %s not found", eventID)))
			return
		}
		h.logger.Error("GetAlertEvent failed", zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to get alert event: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(event))
}

// AlertHistory GET /alerts?patient_id=&category=&condition=&start=&end=&limit=
// start/end 为 RFC3339 时间
func (h *Handler) AlertHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("alert persistence not enabled"))
		return
	}

	q := r.URL.Query()
	filters := repository.AlertEventFilters{Limit: 100}

	if s := q.Get("patient_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid patient_id"))
			return
		}
		filters.PatientID = &id
	}
	if cats, ok := q["category"]; ok {
		filters.Categories = cats
	}
	if s := q.Get("condition"); s != "" {
		filters.Condition = &s
	}
	if s := q.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid start"))
			return
		}
		filters.StartTime = &t
	}
	if s := q.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid end"))
			return
		}
		filters.EndTime = &t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, Fail("invalid limit"))
			return
		}
		filters.Limit = n
	}

	events, err := h.history.ListAlertEvents(r.Context(), filters)
	if err != nil {
		h.logger.Error("ListAlertEvents failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to list alert events: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(events))
}

// ExportRecords GET /patients/export.xlsx[?patient_id=]
func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	end := h.now().UnixMilli()

	var records []models.PatientRecord
	if s := r.URL.Query().Get("patient_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid patient_id"))
			return
		}
		records = h.store.GetRecords(id, 0, end)
	} else {
		for _, p := range h.store.GetAllPatients() {
			records = append(records, p.GetRecords(0, end)...)
		}
	}

	excelData, err := export.GenerateRecordsExport(records)
	if err != nil {
		h.logger.Error("GenerateRecordsExport failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=patient-records.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}

func (h *Handler) patientID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid patient id"))
		return 0, false
	}
	return id, true
}
