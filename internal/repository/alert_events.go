package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrAlertEventNotFound 报警事件不存在
var ErrAlertEventNotFound = errors.New("alert event not found")

// AlertEventsRepository 报警事件仓库（vital_alert_events 表）
type AlertEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertEventsRepository 创建报警事件仓库
func NewAlertEventsRepository(db *sql.DB, logger *zap.Logger) *AlertEventsRepository {
	return &AlertEventsRepository{
		db:     db,
		logger: logger,
	}
}

// AlertEventFilters 报警事件过滤条件
type AlertEventFilters struct {
	PatientID  *int
	StartTime  *time.Time // triggered_at >= StartTime
	EndTime    *time.Time // triggered_at <= EndTime
	Categories []string   // category IN (...)
	Condition  *string
	Limit      int // 0 表示不限制
}

const createAlertEventsTable = `
	CREATE TABLE IF NOT EXISTS vital_alert_events (
		event_id          UUID PRIMARY KEY,
		patient_id        INTEGER NOT NULL,
		category          VARCHAR(32) NOT NULL,
		condition         VARCHAR(128) NOT NULL,
		display_condition TEXT NOT NULL,
		priority          VARCHAR(32) NOT NULL DEFAULT '',
		repeat_count      INTEGER NOT NULL DEFAULT 0,
		triggered_at      TIMESTAMPTZ NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_vital_alert_events_patient_time
		ON vital_alert_events (patient_id, triggered_at);
`

// EnsureSchema 创建表（已存在则跳过）
func (r *AlertEventsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAlertEventsTable); err != nil {
		return fmt.Errorf("failed to create vital_alert_events table: %w", err)
	}
	return nil
}

const insertAlertEvent = `
	INSERT INTO vital_alert_events (
		event_id,
		patient_id,
		category,
		condition,
		display_condition,
		priority,
		repeat_count,
		triggered_at,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (event_id) DO NOTHING
`

// CreateAlertEvent 写入单个报警事件
func (r *AlertEventsRepository) CreateAlertEvent(ctx context.Context, event *models.AlertEvent) error {
	if event.EventID == "" {
		return fmt.Errorf("event_id is required")
	}

	_, err := r.db.ExecContext(ctx, insertAlertEvent, alertEventArgs(event)...)
	if err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}
	return nil
}

// CreateAlertEvents 在一个事务中批量写入
func (r *AlertEventsRepository) CreateAlertEvents(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertAlertEvent)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range events {
		if _, err := stmt.ExecContext(ctx, alertEventArgs(&events[i])...); err != nil {
			return fmt.Errorf("failed to insert alert event %s: %w", events[i].EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("Alert events persisted", zap.Int("event_count", len(events)))
	return nil
}

// Notify 实现 notifier.Notifier
func (r *AlertEventsRepository) Notify(ctx context.Context, events []models.AlertEvent) error {
	return r.CreateAlertEvents(ctx, events)
}

func alertEventArgs(e *models.AlertEvent) []interface{} {
	return []interface{}{
		e.EventID,
		e.PatientID,
		e.Category,
		e.Condition,
		e.DisplayCondition,
		e.Priority,
		e.RepeatCount,
		e.TriggeredAt,
		e.CreatedAt,
	}
}

const selectAlertEventColumns = `
	SELECT
		event_id,
		patient_id,
		category,
		condition,
		display_condition,
		priority,
		repeat_count,
		triggered_at,
		created_at
	FROM vital_alert_events
`

// GetAlertEvent 根据 event_id 获取报警事件
func (r *AlertEventsRepository) GetAlertEvent(ctx context.Context, eventID string) (*models.AlertEvent, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}

	row := r.db.QueryRowContext(ctx, selectAlertEventColumns+" WHERE event_id = $1", eventID)
	event, err := scanAlertEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlertEventNotFound
		}
		return nil, fmt.Errorf("failed to get alert event: %w", err)
	}
	return event, nil
}

// ListAlertEvents 按条件查询，按 triggered_at 倒序
func (r *AlertEventsRepository) ListAlertEvents(ctx context.Context, filters AlertEventFilters) ([]models.AlertEvent, error) {
	var where []string
	var args []interface{}
	argN := 1

	if filters.PatientID != nil {
		where = append(where, fmt.Sprintf("patient_id = $%d", argN))
		args = append(args, *filters.PatientID)
		argN++
	}
	if filters.StartTime != nil {
		where = append(where, fmt.Sprintf("triggered_at >= $%d", argN))
		args = append(args, *filters.StartTime)
		argN++
	}
	if filters.EndTime != nil {
		where = append(where, fmt.Sprintf("triggered_at <= $%d", argN))
		args = append(args, *filters.EndTime)
		argN++
	}
	if len(filters.Categories) > 0 {
		where = append(where, fmt.Sprintf("category = ANY($%d)", argN))
		args = append(args, pq.Array(filters.Categories))
		argN++
	}
	if filters.Condition != nil {
		where = append(where, fmt.Sprintf("condition = $%d", argN))
		args = append(args, *filters.Condition)
		argN++
	}

	query := selectAlertEventColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY triggered_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argN)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	defer rows.Close()

	events := []models.AlertEvent{}
	for rows.Next() {
		event, err := scanAlertEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlertEvent(row rowScanner) (*models.AlertEvent, error) {
	var event models.AlertEvent
	err := row.Scan(
		&event.EventID,
		&event.PatientID,
		&event.Category,
		&event.Condition,
		&event.DisplayCondition,
		&event.Priority,
		&event.RepeatCount,
		&event.TriggeredAt,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
