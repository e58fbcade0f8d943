package synccycle_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/pms-wits-sync/internal/config"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/synccycle"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

func scenarioLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenarioConfig() *config.Config {
	return &config.Config{
		PlugInID:    1,
		ProjectID:   42,
		PMSBaseURL:  "https://pms.example.test",
		PMSLogin:    "svc",
		WITSConnectionString: "https://wits.example.test/collection",
		WITSProjectName:      "DEMO",
		WITSLogin:            "svc",
	}
}

func scenarioStore() *mapping.MemStore {
	store := mapping.NewMemStore(1)
	store.SeedFieldValueMappings(mapping.FieldStatus, []mapping.FieldValueMapping{
		{ArtifactFieldID: mapping.FieldStatus, InternalValue: "1", ExternalValue: "Active+New"},
	})
	store.SeedFieldValueMappings(mapping.FieldType, []mapping.FieldValueMapping{
		{ArtifactFieldID: mapping.FieldType, InternalValue: "3", ExternalValue: "Bug"},
	})
	return store
}

// TestScenarioNewIncidentCreatesWorkItem covers Scenario A: an incident
// created on PMS since the watermark, with no mapping yet, is pushed
// outbound to WITS as a new work item.
func TestScenarioNewIncidentCreatesWorkItem(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()

	pmsc.incidentsCreatedSince = []pms.Incident{
		{ID: 1, Name: "Crash on save", StatusID: 1, TypeID: 3},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusSuccess, status)

	assert.Equal(t, 1, witsc.createWorkItemCalls)
	assert.Equal(t, 1, witsc.setStateCalls)

	mapped, err := store.ListArtifactMappings(context.Background(), cfg.ProjectID, mapping.ArtifactTypeIncident)
	require.NoError(t, err)
	require.Len(t, mapped, 1)
	assert.Equal(t, 1, mapped[0].InternalID)
}

// TestScenarioBidirectionalConflictWITSNewerWins covers Scenario B: an
// already-mapped incident changed on both sides; once the WITS side's
// changed date is converted using the configured offset, it is strictly
// later than the PMS update and wins the merge.
func TestScenarioBidirectionalConflictWITSNewerWins(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()
	cfg.TimeOffsetHours = 5

	require.NoError(t, store.AddArtifactMappings(context.Background(), mapping.ArtifactTypeIncident, []mapping.ArtifactMapping{
		{ProjectID: cfg.ProjectID, ArtifactTypeID: mapping.ArtifactTypeIncident, InternalID: 2, ExternalKey: "1002", Primary: true},
	}))

	pmsUpdatedAt := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	witsChangedAtLocal := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC) // +5h offset makes this strictly later

	pmsc.incidentsUpdatedSince = []pms.Incident{
		{ID: 2, Name: "Still open", StatusID: 1, LastUpdateDate: pmsUpdatedAt},
	}
	witsc.workItemsByID[1002] = wits.WorkItem{
		ID: 1002,
		Fields: wits.WorkItemFields{
			Title:       "Still open (renamed on WITS)",
			State:       "Active",
			Reason:      "New",
			ChangedDate: witsChangedAtLocal,
		},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusSuccess, status)

	assert.Equal(t, 1, pmsc.updateIncidentCalls, "offset-adjusted WITS change is later and must win")
	assert.Equal(t, 0, witsc.updateWorkItemCalls)
}

// TestScenarioQueryCapRetriesWithNarrowedWindow covers Scenario C: a
// created-since query that reports the provider's result cap is retried
// once with the narrower fallback window, and the retry's results are
// still processed normally.
func TestScenarioQueryCapRetriesWithNarrowedWindow(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()

	witsc.createdSinceByCall = []queryResult{
		{err: errQueryCapExceeded},
		{items: []wits.WorkItem{
			{ID: 3001, Fields: wits.WorkItemFields{Title: "Imported from WITS", WorkItemType: "Bug", State: "New"}},
		}},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusSuccess, status)

	assert.Equal(t, 2, witsc.createdSinceCalls, "the cap error must trigger exactly one retry")
	assert.Equal(t, 1, pmsc.createIncidentCalls, "the narrowed retry's results are still processed")
}

// TestScenarioUnmappedStatusCreatesNothingAndContinues covers Scenario D:
// an incident with a status absent from the translation table must not
// reach WITS, must downgrade the cycle status to warning, and must not
// abort the rest of the cycle.
func TestScenarioUnmappedStatusCreatesNothingAndContinues(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()

	pmsc.incidentsCreatedSince = []pms.Incident{
		{ID: 4, Name: "Unmapped status", StatusID: 999, TypeID: 3},
		{ID: 5, Name: "Mapped status", StatusID: 1, TypeID: 3},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusWarning, status)

	assert.Equal(t, 1, witsc.createWorkItemCalls, "only the mapped-status incident reaches WITS")
}

// TestScenarioUnmappedReleaseAutoCreatesIteration covers Scenario E: an
// incident whose release has no iteration mapping yet triggers iteration
// auto-create, the new node becomes visible to the immediate poll, and
// the mapping is recorded for the next flush.
func TestScenarioUnmappedReleaseAutoCreatesIteration(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()

	pmsc.releasesByID[7] = pms.Release{ID: 7, ProjectID: cfg.ProjectID, Name: "v1.2"}
	pmsc.incidentsCreatedSince = []pms.Incident{
		{ID: 6, Name: "Needs a new iteration", StatusID: 1, TypeID: 3, ReleaseID: 7},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusSuccess, status)

	assert.Equal(t, 1, witsc.createIterationCalls)
	assert.Equal(t, 1, witsc.createWorkItemCalls)

	releaseMappings, err := store.ListArtifactMappings(context.Background(), cfg.ProjectID, mapping.ArtifactTypeRelease)
	require.NoError(t, err)
	require.Len(t, releaseMappings, 1)
	assert.Equal(t, 7, releaseMappings[0].InternalID)
}

// TestScenarioCommentDedupSkipsAlreadySyncedText covers Scenario F: a PMS
// comment whose trimmed text already appears in the freshly-created work
// item's revision history is not re-added.
func TestScenarioCommentDedupSkipsAlreadySyncedText(t *testing.T) {
	pmsc := newScenarioPMS()
	witsc := newScenarioWITS()
	store := scenarioStore()
	cfg := scenarioConfig()

	pmsc.incidentsCreatedSince = []pms.Incident{
		{ID: 1, Name: "Crash on save", StatusID: 1, TypeID: 3},
	}
	pmsc.comments[commentKey(mapping.ArtifactTypeIncident, 1)] = []pms.Comment{
		{Text: "  already synced  "},
	}
	// CreateWorkItem always returns id 2001 for this fake.
	witsc.revisionsByID[2001] = []wits.Revision{
		{Fields: wits.WorkItemFields{History: "already synced"}},
	}

	status, err := synccycle.Run(context.Background(), cfg, store, pmsc, witsc, scenarioLogger(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, synccycle.StatusSuccess, status)

	assert.Equal(t, 0, witsc.addCommentCalls, "trimmed text already present in history must not be re-added")
}
