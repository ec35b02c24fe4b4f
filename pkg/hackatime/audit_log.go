package hackatime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// AuditLog is a single trust level change in Hackatime.
type AuditLog struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	UserSlackID        string `json:"user_slack_uid"`
	ChangedBySlackID   string `json:"changed_by_slack_uid"`
	PreviousTrustLevel string `json:"previous_trust_level"`
	NewTrustLevel      string `json:"new_trust_level"`
	Reason             string `json:"reason"`
	Notes              string `json:"notes"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// NewAuditLog flattens a query response row, where each field
// is a pair of the column name and the column value.
func NewAuditLog(row map[string][]any) AuditLog {
	return AuditLog{
		ID:                 value(row, "id"),
		UserID:             value(row, "user_id"),
		UserSlackID:        value(row, "user_slack_uid"),
		ChangedBySlackID:   value(row, "changed_by_slack_uid"),
		PreviousTrustLevel: value(row, "previous_trust_level"),
		NewTrustLevel:      value(row, "new_trust_level"),
		Reason:             value(row, "reason"),
		Notes:              value(row, "notes"),
		CreatedAt:          value(row, "created_at"),
		UpdatedAt:          value(row, "updated_at"),
	}
}

// value returns the second element of a field's [name, value] pair.
func value(row map[string][]any, field string) string {
	pair := row[field]
	if len(pair) < 2 {
		return ""
	}

	switch v := pair[1].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Created returns the parsed creation time of the audit log,
// or the zero time if it is missing or unparsable.
func (l AuditLog) Created() time.Time {
	t, err := dateparse.ParseIn(l.CreatedAt, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Stale reports whether the audit log was created more than maxAge before now.
// Logs with a missing or unparsable creation time are never stale.
func (l AuditLog) Stale(now time.Time, maxAge time.Duration) bool {
	created := l.Created()
	if created.IsZero() || maxAge <= 0 {
		return false
	}
	return now.Sub(created) > maxAge
}
