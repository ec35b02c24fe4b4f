// Package records persists conduct reports in an external tabular datastore
// (Airtable in production), and queries them by subject or by ban expiry date.
package records

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Airtable field names in the "Conduct Reports" table.
const (
	FieldTime        = "Time Of Report"
	FieldFiledBy     = "Filed By"
	FieldResolvedBy  = "Dealt With By"
	FieldSubject     = "User Being Dealt With"
	FieldViolation   = "What Did User Do"
	FieldResolution  = "How Was This Resolved"
	FieldUntil       = "If Banned, Until When"
	FieldPermalink   = "Link To Message"
	FieldDisplayName = "Display Name"
	FieldContact     = "Contact"
)

// DateLayout is the day-granularity format of the "until" date.
const DateLayout = time.DateOnly

// Report is a single row in the record store. A form submission which
// names N users produces N reports, which differ only in their subject.
type Report struct {
	ID string `json:"id,omitempty"`

	Time       time.Time `json:"time"`
	FiledBy    string    `json:"filed_by,omitempty"`
	ResolvedBy []string  `json:"resolved_by,omitempty"`

	// Subject is a Slack user ID, or a raw ID string of a user who left Slack.
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name,omitempty"`
	Contact     string `json:"contact,omitempty"`

	Violation  string `json:"violation"`
	Resolution string `json:"resolution"`
	Until      string `json:"until,omitempty"` // [DateLayout], optional.
	Permalink  string `json:"permalink,omitempty"`
}

// Store is implemented by [AirtableStore] and [MemoryStore].
type Store interface {
	// Create appends rows, without any uniqueness constraints.
	Create(ctx context.Context, reports []Report) error
	// BySubject returns all the rows about a specific user, newest first.
	BySubject(ctx context.Context, userID string) ([]Report, error)
	// DueExpirations returns all the rows whose "until" date is the given date.
	DueExpirations(ctx context.Context, date string) ([]Report, error)
}

// Fields converts a report into an Airtable record's fields.
// Empty optional values are omitted.
func (r Report) Fields() map[string]any {
	f := map[string]any{
		FieldTime:       r.Time.UTC().Format(time.RFC3339),
		FieldResolvedBy: strings.Join(r.ResolvedBy, ","),
		FieldSubject:    r.Subject,
		FieldViolation:  r.Violation,
		FieldResolution: r.Resolution,
	}

	optional := map[string]string{
		FieldFiledBy:     r.FiledBy,
		FieldUntil:       r.Until,
		FieldPermalink:   r.Permalink,
		FieldDisplayName: r.DisplayName,
		FieldContact:     r.Contact,
	}
	for k, v := range optional {
		if v != "" {
			f[k] = v
		}
	}

	return f
}

// FromFields converts an Airtable record's fields into a report.
// Unparsable timestamps result in a zero [Report.Time], not an error.
func FromFields(id string, f map[string]any) Report {
	r := Report{
		ID:          id,
		FiledBy:     stringField(f, FieldFiledBy),
		Subject:     stringField(f, FieldSubject),
		DisplayName: stringField(f, FieldDisplayName),
		Contact:     stringField(f, FieldContact),
		Violation:   stringField(f, FieldViolation),
		Resolution:  stringField(f, FieldResolution),
		Permalink:   stringField(f, FieldPermalink),
	}

	if t, err := dateparse.ParseIn(stringField(f, FieldTime), time.UTC); err == nil {
		r.Time = t.UTC()
	}

	if until := stringField(f, FieldUntil); until != "" {
		if t, err := dateparse.ParseIn(until, time.UTC); err == nil {
			r.Until = t.Format(DateLayout)
		} else {
			r.Until = until
		}
	}

	for id := range strings.SplitSeq(stringField(f, FieldResolvedBy), ",") {
		if id = strings.TrimSpace(id); id != "" {
			r.ResolvedBy = append(r.ResolvedBy, id)
		}
	}

	return r
}

func stringField(f map[string]any, name string) string {
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case []any: // Linked records, lookups and multiple selects.
		s := make([]string, 0, len(v))
		for _, e := range v {
			s = append(s, fmt.Sprint(e))
		}
		return strings.Join(s, ",")
	default:
		return fmt.Sprint(v)
	}
}

// SortNewestFirst sorts reports by their time, in descending order.
// Reports with the same time keep their relative order.
func SortNewestFirst(reports []Report) {
	slices.SortStableFunc(reports, func(a, b Report) int {
		return b.Time.Compare(a.Time)
	})
}
