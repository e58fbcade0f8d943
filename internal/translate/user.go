package translate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// UserLookup resolves WITS display names that aren't covered by an
// explicit mapping row, used when auto-map-users is enabled. Implemented by internal/wits for
// production, and a fake in tests.
type UserLookup interface {
	LookupDisplayNameByLogin(ctx context.Context, login string) (string, bool, error)
}

// UserResolver translates internal user ids to WITS display names and
// back, preferring explicit mapping rows and falling back to an
// auto-map lookup when enabled. Lookups are cached for the lifetime of
// one sync cycle to avoid repeated identity-service round trips.
type UserResolver struct {
	logger    *slog.Logger
	autoMap   bool
	lookup    UserLookup
	mu        sync.Mutex
	loginToName map[string]string
}

// NewUserResolver constructs a resolver. lookup may be nil when autoMap
// is false.
func NewUserResolver(logger *slog.Logger, autoMap bool, lookup UserLookup) *UserResolver {
	return &UserResolver{
		logger:      logger,
		autoMap:     autoMap,
		lookup:      lookup,
		loginToName: make(map[string]string),
	}
}

// ToExternal resolves an internal user id to a WITS display name. A
// user that cannot be resolved (no explicit mapping and, in auto-map
// mode, no match from the lookup) is treated as a no-op (field left
// unchanged), not an error, matching the priority/severity unmapped
// behavior rather than the fatal status/type path.
func (r *UserResolver) ToExternal(ctx context.Context, internalUserID int, internalLogin string, explicit []mapping.UserMapping) (string, bool) {
	if name, ok := mapping.FindUserByInternalID(internalUserID, explicit); ok {
		return name, true
	}
	if !r.autoMap || internalLogin == "" {
		if r.logger != nil {
			r.logger.Warn("unmapped user, leaving destination unchanged", "internal_user_id", internalUserID)
		}
		return "", false
	}
	return r.autoMapToExternal(ctx, internalLogin)
}

// ToInternal resolves a WITS display name back to an internal user id.
func (r *UserResolver) ToInternal(displayName string, explicit []mapping.UserMapping) (int, bool) {
	id, ok := mapping.FindUserByDisplayName(displayName, explicit)
	if !ok && r.logger != nil {
		r.logger.Warn("unmapped user, leaving destination unchanged", "external_display_name", displayName)
	}
	return id, ok
}

func (r *UserResolver) autoMapToExternal(ctx context.Context, login string) (string, bool) {
	r.mu.Lock()
	if name, ok := r.loginToName[login]; ok {
		r.mu.Unlock()
		return name, name != ""
	}
	r.mu.Unlock()

	name, found, err := r.lookup.LookupDisplayNameByLogin(ctx, login)
	if err != nil || !found {
		if r.logger != nil {
			r.logger.Warn("auto-map user lookup miss, leaving destination unchanged",
				"login", login, "error", err)
		}
		r.mu.Lock()
		r.loginToName[login] = ""
		r.mu.Unlock()
		return "", false
	}

	r.mu.Lock()
	r.loginToName[login] = name
	r.mu.Unlock()
	return name, true
}

// NormalizeLogin lowercases and trims a login for case-insensitive
// identity-service lookups.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
