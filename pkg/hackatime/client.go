// Package hackatime queries the Hackatime admin API for trust level audit logs.
package hackatime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RedTrustLevelQuery selects audit logs of users who were banned (trust level
// changed to "red"), along with the Slack IDs of the user and the admin.
const RedTrustLevelQuery = "SELECT tla.*, u1.slack_uid AS user_slack_uid, u2.slack_uid AS changed_by_slack_uid " +
	"FROM trust_level_audit_logs AS tla " +
	"JOIN users AS u1 ON u1.id = tla.user_id " +
	"JOIN users AS u2 ON u2.id = tla.changed_by_id " +
	"WHERE tla.new_trust_level = 'red' ORDER BY tla.id DESC;"

const (
	timeout = 30 * time.Second

	maxResponseSize = 16 << 20
)

// Client is a Hackatime admin API client, with retries.
type Client struct {
	url    string
	apiKey string
	http   *retryablehttp.Client
}

// leveledSlog rewrites HTTP client errors as warnings, because they are retried.
type leveledSlog struct {
	inner *slog.Logger
}

func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// NewClient returns a [Client] for the given query endpoint and API key.
func NewClient(url, apiKey string, logger *slog.Logger) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = time.Second
	c.RetryWaitMax = 10 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger})

	return &Client{url: url, apiKey: apiKey, http: c}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Rows []map[string][]any `json:"rows"`
}

// Execute runs a read-only SQL query, and returns the response rows. Each
// field in each row is a pair of the column name and the column value.
func (c *Client) Execute(ctx context.Context, query string) ([]map[string][]any, error) {
	body, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to construct HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	d := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	d.UseNumber()

	var qr queryResponse
	if err := d.Decode(&qr); err != nil {
		return nil, fmt.Errorf("failed to decode JSON response: %w", err)
	}
	if qr.Rows == nil {
		return nil, fmt.Errorf("malformed response: missing rows")
	}

	return qr.Rows, nil
}

// RedTrustLevelLogs returns all the audit logs of bans, newest first.
func (c *Client) RedTrustLevelLogs(ctx context.Context) ([]AuditLog, error) {
	rows, err := c.Execute(ctx, RedTrustLevelQuery)
	if err != nil {
		return nil, err
	}

	logs := make([]AuditLog, 0, len(rows))
	for _, row := range rows {
		l := NewAuditLog(row)
		if l.ID == "" {
			continue
		}
		logs = append(logs, l)
	}

	return logs, nil
}
