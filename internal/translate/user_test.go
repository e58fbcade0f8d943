package translate_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
)

type fakeLookup struct {
	names map[string]string
}

func (f *fakeLookup) LookupDisplayNameByLogin(_ context.Context, login string) (string, bool, error) {
	name, ok := f.names[login]
	return name, ok, nil
}

func TestUserResolverExplicitMapping(t *testing.T) {
	r := translate.NewUserResolver(slog.Default(), false, nil)
	explicit := []mapping.UserMapping{{InternalUserID: 9, ExternalDisplayName: "Jane Doe"}}

	name, ok := r.ToExternal(context.Background(), 9, "", explicit)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", name)
}

func TestUserResolverAutoMapFallback(t *testing.T) {
	lookup := &fakeLookup{names: map[string]string{"jdoe": "Jane Doe"}}
	r := translate.NewUserResolver(slog.Default(), true, lookup)

	name, ok := r.ToExternal(context.Background(), 9, "jdoe", nil)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", name)

	// second call hits the cycle cache, not the lookup.
	name, ok = r.ToExternal(context.Background(), 9, "jdoe", nil)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", name)
}

func TestUserResolverAutoMapMissIsNoOp(t *testing.T) {
	lookup := &fakeLookup{names: map[string]string{}}
	r := translate.NewUserResolver(slog.Default(), true, lookup)

	name, ok := r.ToExternal(context.Background(), 9, "ghost", nil)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestUserResolverNoAutoMapNoLogin(t *testing.T) {
	r := translate.NewUserResolver(slog.Default(), false, nil)
	_, ok := r.ToExternal(context.Background(), 9, "", nil)
	assert.False(t, ok)
}

func TestNormalizeLogin(t *testing.T) {
	assert.Equal(t, "jdoe", translate.NormalizeLogin("  JDoe  "))
}
