// Package ledger remembers which external events were already announced,
// to prevent re-announcing them across polling runs. Entries expire after
// a configurable retention period instead of accumulating forever.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tzrikka/xdg"

	"github.com/tzrikka/conduct/pkg/config"
)

const (
	// KeyPrefix is the prefix of ledger keys of Hackatime audit log IDs.
	KeyPrefix = "hackatime_log_"

	fileName = "ledger.toml"
)

// Ledger is implemented by [RedisLedger] and [FileLedger].
type Ledger interface {
	// Seen reports whether the key was marked and did not expire yet.
	Seen(ctx context.Context, key string) (bool, error)
	// Mark records the key. Marking an existing key renews its retention.
	Mark(ctx context.Context, key string) error
}

// Key returns the ledger key of a Hackatime audit log ID.
func Key(auditID string) string {
	return KeyPrefix + auditID
}

// New returns a [RedisLedger] if a Redis URL is specified,
// or otherwise a [FileLedger] in the application's XDG data directory.
func New(ctx context.Context, redisURL string, retention time.Duration) (Ledger, error) {
	if retention <= 0 {
		retention = config.DefaultLedgerRetention
	}

	if redisURL != "" {
		slog.Info("using Redis deduplication ledger", slog.Duration("retention", retention))
		return NewRedisLedger(ctx, redisURL, retention)
	}

	path, err := xdg.CreateFile(xdg.DataHome, config.DirName, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger file: %w", err)
	}

	slog.Info("using file deduplication ledger", slog.String("path", path), slog.Duration("retention", retention))
	return NewFileLedger(path, retention), nil
}
