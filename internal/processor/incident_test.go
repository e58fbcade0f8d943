package processor_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T, pmsc *fakePMS, witsc *fakeWITS, dryRun bool) (*processor.Context, *fakeReleasePMS, *fakeReleaseWITS) {
	t.Helper()
	logger := discardLogger()
	relPMS := &fakeReleasePMS{}
	relWITS := &fakeReleaseWITS{}
	recs := iteration.New(logger, relPMS, relWITS)
	recs.DryRun = dryRun

	return &processor.Context{
		Logger:          logger,
		PMS:             pmsc,
		WITS:            witsc,
		Users:           translate.NewUserResolver(logger, false, nil),
		Releases:        recs,
		Location:        time.UTC,
		ProjectID:       1,
		WITSProject:     "DEMO",
		PMSBaseURL:      "https://pms.example.test",
		TimeOffsetHours: 0,
		DryRun:          dryRun,
	}, relPMS, relWITS
}

func statusTable() []mapping.FieldValueMapping {
	return []mapping.FieldValueMapping{
		{ArtifactFieldID: mapping.FieldStatus, InternalValue: "1", ExternalValue: "Active+New"},
	}
}

func typeTable() []mapping.FieldValueMapping {
	return []mapping.FieldValueMapping{
		{ArtifactFieldID: mapping.FieldType, InternalValue: "3", ExternalValue: "Bug"},
	}
}

// TestCreateOutboundIncidentDryRunSkipsMutations confirms the dry-run
// gate now covers both the work-item creation itself and the reconciler's
// release-to-iteration resolution, so a dry-run cycle never creates a
// real WITS iteration node nor a real work item.
func TestCreateOutboundIncidentDryRunSkipsMutations(t *testing.T) {
	pmsc := newFakePMS()
	witsc := newFakeWITS()
	ctx, relPMS, relWITS := newTestContext(t, pmsc, witsc, true)

	in := processor.IncidentOutboundInput{
		Incident: pms.Incident{
			ID:         1,
			Name:       "Crash on save",
			ReleaseID:  5,
			StatusID:   1,
			TypeID:     3,
		},
		ReleaseName:          "v1.2",
		KnownReleaseMappings: nil,
		TypeTable:            typeTable(),
		StatusTable:          statusTable(),
	}

	id, err := ctx.CreateOutboundIncident(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	assert.Equal(t, 0, witsc.createWorkItemCalls, "dry run must not create a work item")
	assert.Equal(t, 0, witsc.setStateCalls, "dry run must not set work item state")
	assert.Equal(t, 0, relWITS.createIterationCalls, "dry run must not create a WITS iteration node")
	assert.Equal(t, 0, relPMS.createReleaseCalls)
}

// TestCreateOutboundIncidentLiveCreatesWorkItem is the control case: with
// DryRun off, the same input does create the work item and set its
// initial state.
func TestCreateOutboundIncidentLiveCreatesWorkItem(t *testing.T) {
	pmsc := newFakePMS()
	witsc := newFakeWITS()
	ctx, _, relWITS := newTestContext(t, pmsc, witsc, false)

	in := processor.IncidentOutboundInput{
		Incident: pms.Incident{
			ID:        1,
			Name:      "Crash on save",
			ReleaseID: 5,
			StatusID:  1,
			TypeID:    3,
		},
		ReleaseName: "v1.2",
		TypeTable:   typeTable(),
		StatusTable: statusTable(),
	}

	id, err := ctx.CreateOutboundIncident(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1001, id)
	assert.Equal(t, 1, witsc.createWorkItemCalls)
	assert.Equal(t, 1, witsc.setStateCalls)
	assert.Equal(t, 1, relWITS.createIterationCalls, "unmapped release must trigger iteration auto-create")
}

// TestCreateOutboundIncidentUnmappedStatusCreatesNothing covers Scenario
// D: an unmapped status must abort before any WITS call, leaving the
// cycle free to continue with the next artifact.
func TestCreateOutboundIncidentUnmappedStatusCreatesNothing(t *testing.T) {
	pmsc := newFakePMS()
	witsc := newFakeWITS()
	ctx, _, _ := newTestContext(t, pmsc, witsc, false)

	in := processor.IncidentOutboundInput{
		Incident: pms.Incident{ID: 2, Name: "Unmapped status", StatusID: 999, TypeID: 3},
		TypeTable:   typeTable(),
		StatusTable: statusTable(),
	}

	_, err := ctx.CreateOutboundIncident(context.Background(), in)
	assert.Error(t, err)
	assert.Equal(t, 0, witsc.createWorkItemCalls)
}
