package mapping_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

func TestAddArtifactMappingsIsIdempotent(t *testing.T) {
	s := mapping.NewMemStore(1)
	ctx := context.Background()

	entry := mapping.ArtifactMapping{
		ProjectID:      7,
		ArtifactTypeID: mapping.ArtifactTypeIncident,
		InternalID:     42,
		ExternalKey:    "101",
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	}

	require.NoError(t, s.AddArtifactMappings(ctx, mapping.ArtifactTypeIncident, []mapping.ArtifactMapping{entry}))
	require.NoError(t, s.AddArtifactMappings(ctx, mapping.ArtifactTypeIncident, []mapping.ArtifactMapping{entry}))

	all, err := s.ListProjectMappings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRemoveArtifactMappings(t *testing.T) {
	s := mapping.NewMemStore(1)
	ctx := context.Background()

	a := mapping.ArtifactMapping{ProjectID: 7, ArtifactTypeID: mapping.ArtifactTypeRelease, InternalID: 5, ExternalKey: "55", Primary: true}
	b := mapping.ArtifactMapping{ProjectID: 7, ArtifactTypeID: mapping.ArtifactTypeRelease, InternalID: 6, ExternalKey: "66", Primary: true}
	require.NoError(t, s.AddArtifactMappings(ctx, mapping.ArtifactTypeRelease, []mapping.ArtifactMapping{a, b}))

	require.NoError(t, s.RemoveArtifactMappings(ctx, mapping.ArtifactTypeRelease, []mapping.ArtifactMapping{a}))

	remaining, err := s.ListArtifactMappings(ctx, 7, mapping.ArtifactTypeRelease)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 6, remaining[0].InternalID)
}

func TestArtifactMappingsAreScopedByArtifactType(t *testing.T) {
	s := mapping.NewMemStore(1)
	ctx := context.Background()

	incident := mapping.ArtifactMapping{ProjectID: 7, ArtifactTypeID: mapping.ArtifactTypeIncident, InternalID: 1, ExternalKey: "101"}
	task := mapping.ArtifactMapping{ProjectID: 7, ArtifactTypeID: mapping.ArtifactTypeTask, InternalID: 1, ExternalKey: "102"}
	require.NoError(t, s.AddArtifactMappings(ctx, mapping.ArtifactTypeIncident, []mapping.ArtifactMapping{incident}))
	require.NoError(t, s.AddArtifactMappings(ctx, mapping.ArtifactTypeTask, []mapping.ArtifactMapping{task}))

	incidents, err := s.ListArtifactMappings(ctx, 7, mapping.ArtifactTypeIncident)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "101", incidents[0].ExternalKey)

	tasks, err := s.ListArtifactMappings(ctx, 7, mapping.ArtifactTypeTask)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "102", tasks[0].ExternalKey)
}

func TestWatermarkRoundTrip(t *testing.T) {
	s := mapping.NewMemStore(1)
	ctx := context.Background()

	raw, err := s.GetWatermark(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)

	stamp := time.Now().UTC().Format(time.RFC3339)
	require.NoError(t, s.SetWatermark(ctx, stamp))

	got, err := s.GetWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, stamp, got)
}

func TestFieldValueAndUserMappingSeeding(t *testing.T) {
	s := mapping.NewMemStore(1)
	ctx := context.Background()

	s.SeedFieldValueMappings(mapping.FieldPriority, []mapping.FieldValueMapping{
		{ArtifactFieldID: mapping.FieldPriority, InternalValue: "2", ExternalValue: "2"},
	})
	s.SeedUserMappings([]mapping.UserMapping{{InternalUserID: 9, ExternalDisplayName: "Jane Doe"}})

	table, err := s.ListFieldValueMappings(ctx, mapping.FieldPriority)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "2", table[0].ExternalValue)

	users, err := s.ListUserMappings(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Jane Doe", users[0].ExternalDisplayName)
}
