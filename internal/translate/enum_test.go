package translate_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
)

func TestEnumRoundTrip(t *testing.T) {
	table := []mapping.FieldValueMapping{
		{ArtifactFieldID: 1, InternalValue: "2", ExternalValue: "2"},
		{ArtifactFieldID: 1, InternalValue: "1", ExternalValue: "1"},
	}
	logger := slog.Default()

	for _, v := range []string{"1", "2"} {
		external := translate.ToExternal(logger, "priority", v, table)
		assert.True(t, external.Mapped)
		internal := translate.ToInternal(logger, "priority", external.Value, table)
		assert.True(t, internal.Mapped)
		assert.Equal(t, v, internal.Value)
	}
}

func TestEnumUnmapped(t *testing.T) {
	table := []mapping.FieldValueMapping{{ArtifactFieldID: 1, InternalValue: "1", ExternalValue: "1"}}
	result := translate.ToExternal(slog.Default(), "priority", "99", table)
	assert.False(t, result.Mapped)
	assert.Empty(t, result.Value)
}
