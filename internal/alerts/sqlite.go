package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ackah054/theft-detection/internal/database"
)

// SQLiteStore persists alerts in the system database.
type SQLiteStore struct {
	db     *database.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store backed by the given database. The alerts
// table must already exist (see migrations).
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "alert_store"),
	}
}

// Insert appends an alert record, assigning defaults for id, timestamp and
// status when absent.
func (s *SQLiteStore) Insert(ctx context.Context, alert *Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	if alert.Status == "" {
		alert.Status = StatusActive
	}

	historyJSON, err := marshalHistory(alert.StatusHistory)
	if err != nil {
		return err
	}
	metadataJSON, err := marshalMetadata(alert.Metadata)
	if err != nil {
		return err
	}

	var updatedAt *int64
	if alert.UpdatedAt != nil {
		ts := alert.UpdatedAt.Unix()
		updatedAt = &ts
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (
			id, timestamp, type, severity, confidence, location,
			description, status, status_history, updated_at, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		alert.ID, alert.Timestamp.Unix(), alert.Type, alert.Severity, alert.Confidence, alert.Location,
		alert.Description, alert.Status, historyJSON, updatedAt, metadataJSON, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	s.logger.Info("Alert created", "id", alert.ID, "type", alert.Type, "severity", alert.Severity)
	return nil
}

// List returns matching alerts sorted by timestamp descending.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*Alert, error) {
	query := `SELECT id, timestamp, type, severity, confidence, location,
	                 description, status, status_history, updated_at, metadata
	          FROM alerts WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}

	query += " ORDER BY timestamp DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []*Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// UpdateStatus transitions an alert inside a transaction so concurrent
// updates cannot race on the history append.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status) (*Alert, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *Alert
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, timestamp, type, severity, confidence, location,
			       description, status, status_history, updated_at, metadata
			FROM alerts WHERE id = ?
		`, id)

		alert, err := scanAlert(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now()
		alert.StatusHistory = append(alert.StatusHistory, StatusChange{
			From:      alert.Status,
			To:        status,
			Timestamp: now,
		})
		alert.Status = status
		alert.UpdatedAt = &now

		historyJSON, err := marshalHistory(alert.StatusHistory)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE alerts SET status = ?, status_history = ?, updated_at = ? WHERE id = ?
		`, alert.Status, historyJSON, now.Unix(), id); err != nil {
			return fmt.Errorf("failed to update alert status: %w", err)
		}

		updated = alert
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Alert status updated", "id", id, "status", status)
	return updated, nil
}

// Stats counts alerts by status.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM alerts GROUP BY status`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch status {
		case StatusActive:
			stats.Active = count
		case StatusAcknowledged:
			stats.Acknowledged = count
		case StatusResolved:
			stats.Resolved = count
		}
	}
	return stats, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*Alert, error) {
	alert := &Alert{}
	var timestamp int64
	var location, description, historyJSON, metadataJSON sql.NullString
	var updatedAt sql.NullInt64

	err := row.Scan(
		&alert.ID, &timestamp, &alert.Type, &alert.Severity, &alert.Confidence, &location,
		&description, &alert.Status, &historyJSON, &updatedAt, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	alert.Timestamp = time.Unix(timestamp, 0)
	if location.Valid {
		alert.Location = location.String
	}
	if description.Valid {
		alert.Description = description.String
	}
	if updatedAt.Valid {
		t := time.Unix(updatedAt.Int64, 0)
		alert.UpdatedAt = &t
	}
	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &alert.StatusHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status history: %w", err)
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &alert.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return alert, nil
}

func marshalHistory(history []StatusChange) (*string, error) {
	if len(history) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status history: %w", err)
	}
	s := string(data)
	return &s, nil
}

func marshalMetadata(metadata map[string]any) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	s := string(data)
	return &s, nil
}
