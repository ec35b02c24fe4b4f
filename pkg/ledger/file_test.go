package ledger

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), fileName)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := NewFileLedger(path, 24*time.Hour)
	l.now = func() time.Time { return now }

	seen, err := l.Seen(t.Context(), Key("42"))
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Seen() = true before Mark()")
	}

	if err := l.Mark(t.Context(), Key("42")); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if seen, _ := l.Seen(t.Context(), Key("42")); !seen {
		t.Error("Seen() = false after Mark()")
	}
	if seen, _ := l.Seen(t.Context(), Key("43")); seen {
		t.Error("Seen() = true for another key")
	}

	// A new instance reads the same file.
	l2 := NewFileLedger(path, 24*time.Hour)
	l2.now = func() time.Time { return now.Add(time.Hour) }
	if seen, _ := l2.Seen(t.Context(), Key("42")); !seen {
		t.Error("Seen() = false in a new instance")
	}
}

func TestFileLedgerRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), fileName)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := NewFileLedger(path, 24*time.Hour)
	l.now = func() time.Time { return now }
	if err := l.Mark(t.Context(), Key("1")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(25 * time.Hour)
	if seen, _ := l.Seen(t.Context(), Key("1")); seen {
		t.Error("Seen() = true after retention period")
	}

	if err := l.Mark(t.Context(), Key("2")); err != nil {
		t.Fatal(err)
	}
	m, err := l.read()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m[Key("1")]; ok {
		t.Error("Mark() did not prune an expired key")
	}
	if len(m) != 1 {
		t.Errorf("ledger size = %d, want 1", len(m))
	}
}

func TestKey(t *testing.T) {
	if got := Key("123"); got != "hackatime_log_123" {
		t.Errorf("Key() = %q, want %q", got, "hackatime_log_123")
	}
}
