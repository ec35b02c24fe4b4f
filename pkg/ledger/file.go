package ledger

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tzrikka/xdg"
)

// FileLedger is a [Ledger] which stores keys and their marking
// times in a local TOML file. Expired keys are pruned on every write.
type FileLedger struct {
	mu        sync.Mutex
	path      string
	retention time.Duration
	now       func() time.Time
}

var _ Ledger = (*FileLedger)(nil)

func NewFileLedger(path string, retention time.Duration) *FileLedger {
	return &FileLedger{path: path, retention: retention, now: time.Now}
}

func (l *FileLedger) Seen(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.read()
	if err != nil {
		return false, err
	}

	t, ok := m[key]
	return ok && !l.expired(t), nil
}

func (l *FileLedger) Mark(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.read()
	if err != nil {
		return err
	}

	for k, t := range m {
		if l.expired(t) {
			delete(m, k)
		}
	}

	m[key] = l.now().UTC().Truncate(time.Second)
	return l.write(m)
}

func (l *FileLedger) expired(t time.Time) bool {
	return l.now().Sub(t) > l.retention
}

// read expects the caller to hold the ledger's mutex.
func (l *FileLedger) read() (map[string]time.Time, error) {
	m := map[string]time.Time{}
	if _, err := toml.DecodeFile(l.path, &m); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return m, nil
}

// write expects the caller to hold the ledger's mutex.
func (l *FileLedger) write(m map[string]time.Time) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, xdg.NewFilePermissions) //gosec:disable G304 // Specified by admin by design.
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(m)
}
