package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/mehanizm/airtable"
)

// maxBatchSize is Airtable's limit of records per create request.
const maxBatchSize = 10

// AirtableStore is a [Store] backed by a single Airtable table.
type AirtableStore struct {
	table *airtable.Table
}

// NewAirtableStore initializes an Airtable API client for a specific table.
func NewAirtableStore(token, baseID, tableName string) (*AirtableStore, error) {
	if token == "" || baseID == "" {
		return nil, fmt.Errorf("missing Airtable token or base ID")
	}

	client := airtable.NewClient(token)
	return &AirtableStore{table: client.GetTable(baseID, tableName)}, nil
}

// Create appends rows to the table, in batches.
func (s *AirtableStore) Create(_ context.Context, reports []Report) error {
	for start := 0; start < len(reports); start += maxBatchSize {
		end := min(start+maxBatchSize, len(reports))
		batch := &airtable.Records{Records: make([]*airtable.Record, 0, end-start)}
		for _, r := range reports[start:end] {
			batch.Records = append(batch.Records, &airtable.Record{Fields: r.Fields()})
		}

		if _, err := s.table.AddRecords(batch); err != nil {
			return fmt.Errorf("failed to create Airtable records %d-%d of %d: %w", start+1, end, len(reports), err)
		}
	}

	return nil
}

// BySubject returns all the rows whose subject field matches the given
// user ID exactly, sorted by their report time in descending order.
func (s *AirtableStore) BySubject(ctx context.Context, userID string) ([]Report, error) {
	formula := fmt.Sprintf("{%s} = %s", FieldSubject, quote(userID))
	reports, err := s.query(ctx, formula)
	if err != nil {
		return nil, err
	}

	SortNewestFirst(reports)
	return reports, nil
}

// DueExpirations returns all the rows whose "until" date equals the given date.
func (s *AirtableStore) DueExpirations(ctx context.Context, date string) ([]Report, error) {
	formula := fmt.Sprintf("DATETIME_FORMAT({%s}, 'YYYY-MM-DD') = %s", FieldUntil, quote(date))
	return s.query(ctx, formula)
}

// query drains all the pages of a filtered and sorted Airtable query.
func (s *AirtableStore) query(ctx context.Context, formula string) ([]Report, error) {
	var reports []Report
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := s.table.GetRecords().WithFilterFormula(formula).WithSort(struct {
			FieldName string
			Direction string
		}{FieldName: FieldTime, Direction: "desc"})
		if offset != "" {
			q = q.WithOffset(offset)
		}

		page, err := q.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to query Airtable records: %w", err)
		}

		for _, r := range page.Records {
			reports = append(reports, FromFields(r.ID, r.Fields))
		}

		if page.Offset == "" {
			return reports, nil
		}
		offset = page.Offset
	}
}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote returns a single-quoted Airtable formula string literal.
func quote(s string) string {
	return "'" + formulaEscaper.Replace(s) + "'"
}
