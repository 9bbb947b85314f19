// Package alerts provides persisted alert records, the store that owns their
// lifecycle, and the policy that synthesizes them from detections.
package alerts

import (
	"time"
)

// Status is the mutable triage state of an alert.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// Valid reports whether s is one of the three recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved:
		return true
	}
	return false
}

// Type classifies what kind of activity triggered the alert.
type Type string

const (
	TypeTheft      Type = "theft"
	TypeSuspicious Type = "suspicious"
)

// Severity is banded once at creation from the triggering confidence and
// never recomputed.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// StatusChange is one entry in an alert's append-only status history.
type StatusChange struct {
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert is the durable record of a flagged event. Everything except Status,
// StatusHistory and UpdatedAt is immutable after creation.
type Alert struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Type          Type           `json:"type"`
	Severity      Severity       `json:"severity"`
	Confidence    int            `json:"confidence"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	Status        Status         `json:"status"`
	StatusHistory []StatusChange `json:"status_history,omitempty"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Filter selects alerts by exact field match. Zero-valued fields match all.
type Filter struct {
	Status   Status
	Type     Type
	Severity Severity
}

// Matches reports whether the alert satisfies every provided filter field.
func (f Filter) Matches(a *Alert) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	return true
}

// Stats counts alerts by status, computed on demand from store contents.
type Stats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
}
