package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

// AlertRepository stores alert rules and fired events as JSON
// documents keyed by id. The entity fields are the contract; the
// column layout is not.
type AlertRepository struct {
	db       *sql.DB
	eventCap int
}

func NewAlertRepository(db *sql.DB, eventCap int) domain.AlertRepository {
	return &AlertRepository{db: db, eventCap: eventCap}
}

func (r *AlertRepository) SaveAlert(ctx context.Context, alert *domain.Alert) error {
	doc, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	query := `INSERT INTO alerts (id, data) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data`
	if _, err := r.db.ExecContext(ctx, query, alert.ID, string(doc)); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	return nil
}

func (r *AlertRepository) DeleteAlert(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

func (r *AlertRepository) LoadAlerts(ctx context.Context) ([]*domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM alerts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}

		var alert domain.Alert
		if err := json.Unmarshal([]byte(doc), &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert document: %w", err)
		}
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *AlertRepository) SaveEvent(ctx context.Context, event *domain.AlertEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	query := `INSERT INTO alert_events (id, alert_id, data, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, event.ID, event.AlertID, string(doc), event.Timestamp.UnixMilli()); err != nil {
		return fmt.Errorf("failed to save alert event: %w", err)
	}

	// Keep the on-disk history capped alongside the in-memory ring.
	prune := `DELETE FROM alert_events WHERE id NOT IN (
		SELECT id FROM alert_events ORDER BY created_at DESC LIMIT ?)`
	if _, err := r.db.ExecContext(ctx, prune, r.eventCap); err != nil {
		return fmt.Errorf("failed to prune alert events: %w", err)
	}

	return nil
}

func (r *AlertRepository) UpdateEvent(ctx context.Context, event *domain.AlertEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE alert_events SET data = ? WHERE id = ?`, string(doc), event.ID)
	if err != nil {
		return fmt.Errorf("failed to update alert event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrEventNotFound
	}

	return nil
}

func (r *AlertRepository) LoadEvents(ctx context.Context, limit int) ([]*domain.AlertEvent, error) {
	if limit <= 0 || limit > r.eventCap {
		limit = r.eventCap
	}

	query := `SELECT data FROM alert_events ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AlertEvent
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}

		var event domain.AlertEvent
		if err := json.Unmarshal([]byte(doc), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event document: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
