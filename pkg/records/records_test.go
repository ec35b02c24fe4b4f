package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsRoundTrip(t *testing.T) {
	r := Report{
		Time:        time.Date(2026, 3, 1, 17, 4, 5, 0, time.UTC),
		FiledBy:     "U0MOD",
		ResolvedBy:  []string{"U0MOD", "U0HELP"},
		Subject:     "U123",
		DisplayName: "Jane Doe",
		Violation:   "spam",
		Resolution:  "Temporary Ban",
		Until:       "2026-03-08",
		Permalink:   "https://example.slack.com/archives/C1/p100",
	}

	f := r.Fields()
	assert.Equal(t, "2026-03-01T17:04:05Z", f[FieldTime])
	assert.Equal(t, "U0MOD,U0HELP", f[FieldResolvedBy])
	assert.NotContains(t, f, FieldContact)

	got := FromFields("rec1", f)
	r.ID = "rec1"
	assert.Equal(t, r, got)
}

func TestFromFieldsAirtableFormats(t *testing.T) {
	got := FromFields("rec2", map[string]any{
		FieldTime:       "2026-03-01T17:04:05.000Z",
		FieldResolvedBy: "U1, U2,",
		FieldSubject:    "U123",
		FieldUntil:      "2026-03-08",
		FieldContact:    []any{"a@example.com", "b@example.com"},
	})

	assert.Equal(t, time.Date(2026, 3, 1, 17, 4, 5, 0, time.UTC), got.Time)
	assert.Equal(t, []string{"U1", "U2"}, got.ResolvedBy)
	assert.Equal(t, "2026-03-08", got.Until)
	assert.Equal(t, "a@example.com,b@example.com", got.Contact)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "U123", want: `'U123'`},
		{in: "it's", want: `'it\'s'`},
		{in: `a\b`, want: `'a\\b'`},
		{in: `x' OR '1'='1`, want: `'x\' OR \'1\'=\'1'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quote(tt.in))
	}
}

func TestMemoryStoreBySubject(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	require.NoError(t, s.Create(t.Context(), []Report{
		{Time: base.Add(2 * time.Hour), Subject: "U123", Violation: "b"},
		{Time: base, Subject: "U123", Violation: "a"},
		{Time: base.Add(time.Hour), Subject: "U999", Violation: "x"},
		{Time: base.Add(3 * time.Hour), Subject: "U123", Violation: "c"},
	}))

	got, err := s.BySubject(t.Context(), "U123")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Violation)
	assert.Equal(t, "b", got[1].Violation)
	assert.Equal(t, "a", got[2].Violation)

	got, err = s.BySubject(t.Context(), "U12")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreDueExpirations(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(t.Context(), []Report{
		{Subject: "U1", Until: "2026-03-08"},
		{Subject: "U2", Until: "2026-03-09"},
		{Subject: "U3"},
		{Subject: "U4", Until: "2026-03-08"},
	}))

	got, err := s.DueExpirations(t.Context(), "2026-03-08")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"U1", "U4"}, []string{got[0].Subject, got[1].Subject})
}

func TestMemoryStoreCreateAssignsIDs(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(t.Context(), []Report{{Subject: "U1"}, {Subject: "U2"}, {Subject: "U3"}}))

	all := s.All()
	require.Len(t, all, 3)
	assert.NotEqual(t, all[0].ID, all[1].ID)
	assert.NotEqual(t, all[1].ID, all[2].ID)
}
