// Package users resolves Slack user IDs into the display
// names and contact details that are stored with reports.
package users

import (
	"log/slog"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/cache"
	"github.com/tzrikka/conduct/internal/logger"
	tslack "github.com/tzrikka/timpani-api/pkg/slack"
)

// Profile is the subset of Slack user details that reports need.
type Profile struct {
	ID       string `json:"id"`
	RealName string `json:"real_name,omitempty"`
	Email    string `json:"email,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// profiles caches Slack user profiles, to avoid repeated API calls for the
// same moderators and subjects. The cache is cleaned about once an hour.
var profiles = cache.New[Profile](12*time.Hour, cache.DefaultCleanupInterval)

type cached struct {
	Profile Profile
	Found   bool
}

// Lookup returns a Slack user's profile. It uses the in-process cache first, and
// the Slack API as a fallback. Cache reads are recorded as Temporal side effects,
// so they stay deterministic when the workflow is replayed by another worker.
func Lookup(ctx workflow.Context, userID string) (Profile, error) {
	var c cached
	enc := workflow.SideEffect(ctx, func(_ workflow.Context) any {
		p, ok := profiles.Get(userID)
		return cached{Profile: p, Found: ok}
	})
	if err := enc.Get(&c); err == nil && c.Found {
		return c.Profile, nil
	}

	info, err := tslack.UsersInfo(ctx, userID)
	if err != nil {
		logger.From(ctx).Error("failed to retrieve Slack user info", slog.Any("error", err), slog.String("user_id", userID))
		return Profile{ID: userID}, err
	}

	p := Profile{
		ID:       userID,
		RealName: info.RealName,
		Email:    strings.ToLower(info.Profile.Email),
		IsBot:    info.IsBot,
	}
	profiles.Set(userID, p, cache.DefaultExpiration)
	return p, nil
}

// DisplayName returns the user's real name, or their ID as a fallback.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.RealName); name != "" {
		return name
	}
	return p.ID
}
