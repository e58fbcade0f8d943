// Package synccycle implements the sync cycle driver (C7): the four
// phases that run once per invocation — new-on-PMS, new-on-WITS,
// updated-on-either, and mapping flush — sequentially, with per-artifact
// error isolation so one bad artifact never aborts the cycle.
package synccycle

import (
	"context"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// PMSClient is the full PMS surface one sync cycle needs, composed from
// the narrower surfaces each collaborator package declares for itself.
type PMSClient interface {
	Authenticate(ctx context.Context) error
	ConnectToProject(ctx context.Context, projectID int) error

	ListIncidentsCreatedSince(ctx context.Context, projectID int, since time.Time) ([]pms.Incident, error)
	ListIncidentsUpdatedSince(ctx context.Context, projectID int, since, excludeCreatedAt time.Time) ([]pms.Incident, error)
	GetIncident(ctx context.Context, projectID, incidentID int) (pms.Incident, error)
	GetTask(ctx context.Context, projectID, taskID int) (pms.Task, error)
	GetRequirement(ctx context.Context, projectID, requirementID int) (pms.Requirement, error)
	GetRelease(ctx context.Context, projectID, releaseID int) (pms.Release, error)

	ListCustomPropertyDefinitions(ctx context.Context, artifactTypeID int) ([]pms.CustomPropertyDefinition, error)

	processor.PMSClient
	iteration.PMSClient
	linkbridge.PMSAttachmentSource
	linkbridge.PMSAttachmentSink
}

// WITSClient is the full WITS surface one sync cycle needs.
type WITSClient interface {
	QueryCreatedSince(ctx context.Context, project string, since time.Time) ([]wits.WorkItem, error)
	QueryChangedSince(ctx context.Context, project string, since time.Time) ([]wits.WorkItem, error)

	processor.WITSClient
	iteration.WITSClient
	linkbridge.WITSAttachmentSink
	linkbridge.WITSLinkSource
	translate.UserLookup
}

// Status summarizes how a cycle went: success (nothing failed), warning
// (at least one artifact was skipped or logged a recoverable problem),
// or error (a phase-level failure, e.g. authentication, aborted work).
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// worse returns whichever of a, b is the more severe status, so a
// cycle's overall status can be accumulated across many independent
// per-artifact outcomes without ever downgrading from a prior failure.
func worse(a, b Status) Status {
	rank := map[Status]int{StatusSuccess: 0, StatusWarning: 1, StatusError: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
