package hackatime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "rows": [
    {
      "id": ["id", 1042],
      "user_id": ["user_id", 77],
      "user_slack_uid": ["user_slack_uid", "U0BANNED"],
      "changed_by_slack_uid": ["changed_by_slack_uid", "U0ADMIN"],
      "previous_trust_level": ["previous_trust_level", "blue"],
      "new_trust_level": ["new_trust_level", "red"],
      "reason": ["reason", "fake heartbeats"],
      "notes": ["notes", null],
      "created_at": ["created_at", "2026-03-01T12:34:56.000Z"],
      "updated_at": ["updated_at", "2026-03-01T12:34:56.000Z"]
    },
    {
      "id": ["id", 1041],
      "user_slack_uid": ["user_slack_uid", "U0OTHER"]
    },
    {
      "notes": ["notes", "row without an ID"]
    }
  ]
}`

func TestRedTrustLevelLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req queryRequest
		assert.NoError(t, json.Unmarshal(b, &req))
		assert.Equal(t, RedTrustLevelQuery, req.Query)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", slog.New(slog.DiscardHandler))
	logs, err := c.RedTrustLevelLogs(t.Context())
	require.NoError(t, err)
	require.Len(t, logs, 2)

	want := AuditLog{
		ID:                 "1042",
		UserID:             "77",
		UserSlackID:        "U0BANNED",
		ChangedBySlackID:   "U0ADMIN",
		PreviousTrustLevel: "blue",
		NewTrustLevel:      "red",
		Reason:             "fake heartbeats",
		CreatedAt:          "2026-03-01T12:34:56.000Z",
		UpdatedAt:          "2026-03-01T12:34:56.000Z",
	}
	assert.Equal(t, want, logs[0])
	assert.Equal(t, "1041", logs[1].ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 34, 56, 0, time.UTC), logs[0].Created().UTC())
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":"nope"}`,
		},
		{
			name:   "missing_rows",
			status: http.StatusOK,
			body:   `{"result":"ok"}`,
		},
		{
			name:   "not_json",
			status: http.StatusOK,
			body:   `<html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "secret", slog.New(slog.DiscardHandler))
			_, err := c.Execute(t.Context(), "SELECT 1")
			assert.Error(t, err)
		})
	}
}

func TestValue(t *testing.T) {
	row := map[string][]any{
		"short":  {"short"},
		"number": {"number", json.Number("12")},
		"bool":   {"bool", true},
	}

	assert.Empty(t, value(row, "missing"))
	assert.Empty(t, value(row, "short"))
	assert.Equal(t, "12", value(row, "number"))
	assert.Equal(t, "true", value(row, "bool"))
}

func TestAuditLogStale(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	maxAge := 45 * 24 * time.Hour

	tests := []struct {
		name    string
		created string
		maxAge  time.Duration
		want    bool
	}{
		{name: "recent", created: "2026-05-31T23:00:00Z", maxAge: maxAge, want: false},
		{name: "just_inside", created: "2026-04-17T00:00:00Z", maxAge: maxAge, want: false},
		{name: "older_than_window", created: "2026-03-01T12:34:56.000Z", maxAge: maxAge, want: true},
		{name: "missing", created: "", maxAge: maxAge, want: false},
		{name: "unparsable", created: "yesterday-ish", maxAge: maxAge, want: false},
		{name: "no_window", created: "2020-01-01T00:00:00Z", maxAge: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := AuditLog{ID: "1", CreatedAt: tt.created}
			assert.Equal(t, tt.want, l.Stale(now, tt.maxAge))
		})
	}
}
