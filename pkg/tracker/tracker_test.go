package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRegisterOrTouch(t *testing.T) {
	tr, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	k := Key{Channel: "C1", ThreadTS: "100.000"}

	c, created, err := tr.RegisterOrTouch(k, t0)
	if err != nil || !created {
		t.Fatalf("RegisterOrTouch() = %v, %v; want true, nil", created, err)
	}
	if !c.Created.Equal(t0) || c.PromptSent || c.ReportFiled || c.EscalationSent {
		t.Errorf("RegisterOrTouch() = %+v, want a fresh case", c)
	}
	if _, err := tr.MarkPrompted(k, t0); err != nil {
		t.Fatalf("MarkPrompted() error = %v", err)
	}

	later := t0.Add(time.Minute)
	c, created, _ = tr.RegisterOrTouch(k, later)
	if created {
		t.Error("RegisterOrTouch() created a duplicate case")
	}
	if !c.Created.Equal(t0) {
		t.Errorf("RegisterOrTouch() created = %v, want %v", c.Created, t0)
	}
	if _, err := tr.MarkPrompted(k, later); err != nil {
		t.Fatalf("MarkPrompted() error = %v", err)
	}

	if got := tr.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	c, _ = tr.Get(k)
	if !c.PromptSent || !c.LastPrompt.Equal(later) {
		t.Errorf("Get() = %+v, want prompt sent at %v", c, later)
	}
}

func TestMarkFiled(t *testing.T) {
	tr, _ := New("")
	k := Key{Channel: "C1", ThreadTS: "100.000"}

	if _, ok, _ := tr.MarkFiled(k); ok {
		t.Error("MarkFiled() of an unknown case = true, want false")
	}

	_, _, _ = tr.RegisterOrTouch(k, t0)
	_ = tr.RecordEscalation(k, "200.000", t0.Add(5*time.Hour))

	c, ok, err := tr.MarkFiled(k)
	if err != nil || !ok {
		t.Fatalf("MarkFiled() = %v, %v; want true, nil", ok, err)
	}
	if !c.ReportFiled || c.EscalationTS != "200.000" {
		t.Errorf("MarkFiled() = %+v", c)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		ts      string
		want    bool
	}{
		{
			name:    "thread_root",
			channel: "C1",
			ts:      "100.000",
			want:    true,
		},
		{
			name:    "escalation_message",
			channel: "C1",
			ts:      "200.000",
			want:    true,
		},
		{
			name:    "escalation_ts_in_other_channel",
			channel: "C2",
			ts:      "200.000",
		},
		{
			name:    "unknown",
			channel: "C1",
			ts:      "300.000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := New("")
			k := Key{Channel: "C1", ThreadTS: "100.000"}
			_, _, _ = tr.RegisterOrTouch(k, t0)
			_ = tr.RecordEscalation(k, "200.000", t0)

			c, ok, err := tr.Resolve(tt.channel, tt.ts)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.want {
				t.Fatalf("Resolve() = %v, want %v", ok, tt.want)
			}
			if ok && c.Key != k {
				t.Errorf("Resolve() key = %v, want %v", c.Key, k)
			}

			wantLen := 1
			if tt.want {
				wantLen = 0
			}
			if got := tr.Len(); got != wantLen {
				t.Errorf("Len() = %d, want %d", got, wantLen)
			}
		})
	}
}

func TestExpire(t *testing.T) {
	tr, _ := New("")
	old := Key{Channel: "C1", ThreadTS: "1.000"}
	young := Key{Channel: "C1", ThreadTS: "2.000"}
	_, _, _ = tr.RegisterOrTouch(old, t0)
	_, _, _ = tr.RegisterOrTouch(young, t0.Add(time.Hour))

	keys, err := tr.Expire(t0.Add(Retention))
	if err != nil || len(keys) != 0 {
		t.Errorf("Expire(T+7d) = %v, %v; want nothing", keys, err)
	}

	keys, err = tr.Expire(t0.Add(Retention + time.Second))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != old {
		t.Errorf("Expire(T+7d+1s) = %v, want [%v]", keys, old)
	}
	if _, ok := tr.Get(young); !ok {
		t.Error("Expire() deleted a young case")
	}
}

func TestSnapshotPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFile)
	tr, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	k1 := Key{Channel: "C1", ThreadTS: "100.000"}
	k2 := Key{Channel: "C2", ThreadTS: "50.000"}
	_, _, _ = tr.RegisterOrTouch(k1, t0)
	_, _, _ = tr.RegisterOrTouch(k2, t0.Add(time.Minute))
	_ = tr.RecordEscalation(k2, "60.000", t0.Add(time.Hour))

	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("New() reload error = %v", err)
	}
	got := reloaded.Snapshot()
	if len(got) != 2 {
		t.Fatalf("Snapshot() after reload = %d cases, want 2", len(got))
	}
	if got[0].Key != k1 || got[1].Key != k2 {
		t.Errorf("Snapshot() order = [%v %v], want [%v %v]", got[0].Key, got[1].Key, k1, k2)
	}
	if got[1].EscalationTS != "60.000" || !got[1].LastEscalation.Equal(t0.Add(time.Hour)) {
		t.Errorf("Snapshot() escalation = %+v", got[1])
	}

	if err := reloaded.Delete(k1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	again, _ := New(path)
	if got := again.Len(); got != 1 {
		t.Errorf("Len() after delete and reload = %d, want 1", got)
	}
}

func TestNewEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFile)
	if err := os.WriteFile(path, nil, filePerms); err != nil {
		t.Fatal(err)
	}

	tr, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := tr.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestNewPersistent(t *testing.T) {
	d := t.TempDir()
	t.Setenv("XDG_DATA_HOME", d)

	tr, err := NewPersistent()
	if err != nil {
		t.Fatalf("NewPersistent() error = %v", err)
	}
	_, _, _ = tr.RegisterOrTouch(Key{Channel: "C1", ThreadTS: "1.000"}, t0)

	if _, err := os.Stat(filepath.Join(d, "conduct", SnapshotFile)); err != nil {
		t.Errorf("snapshot file: %v", err)
	}
}
