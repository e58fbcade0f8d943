// Package processor implements the per-kind artifact processors (C6):
// create-outbound, create-inbound, and merge-update for incidents,
// tasks, and requirements, grounded on internal/jira/tracker.go's and
// internal/gitlab/tracker.go's per-tracker CreateIssue/UpdateIssue/
// FetchIssues shape, generalized here to three artifact kinds against
// one fixed WITS tracker.
package processor

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// PMSClient is the subset of the PMS surface the processors need.
type PMSClient interface {
	CreateIncident(ctx context.Context, projectID int, fields map[string]interface{}) (int, error)
	UpdateIncident(ctx context.Context, projectID, incidentID int, fields map[string]interface{}) error
	CreateTask(ctx context.Context, projectID int, fields map[string]interface{}) (int, error)
	UpdateTask(ctx context.Context, projectID, taskID int, fields map[string]interface{}) error
	CreateRequirement(ctx context.Context, projectID int, fields map[string]interface{}) (int, error)
	UpdateRequirement(ctx context.Context, projectID, requirementID int, fields map[string]interface{}) error
	ListComments(ctx context.Context, artifactTypeID, internalID int) ([]pms.Comment, error)
	CreateComment(ctx context.Context, artifactTypeID, internalID int, comment pms.Comment) error
}

// WITSClient is the subset of the WITS surface the processors need.
type WITSClient interface {
	GetWorkItem(ctx context.Context, id int) (wits.WorkItem, bool, error)
	CreateWorkItem(ctx context.Context, workItemType string, ops []wits.PatchOperation) (wits.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id int, ops []wits.PatchOperation) (wits.WorkItem, error)
	SetState(ctx context.Context, id int, state, reason string) (wits.WorkItem, error)
	AddHyperlink(ctx context.Context, workItemID int, url string) error
	AddComment(ctx context.Context, workItemID int, text string) error
	GetRevisions(ctx context.Context, id int) ([]wits.Revision, error)
}

// Context bundles the collaborators and per-instance configuration every
// processor flow needs, mirroring customprop.Context's "shared read-only
// state passed explicitly" shape.
type Context struct {
	Logger *slog.Logger

	PMS  PMSClient
	WITS WITSClient

	Users    *translate.UserResolver
	Releases *iteration.Reconciler
	Location *time.Location

	ProjectID       int
	WITSProject     string
	PMSBaseURL      string
	TimeOffsetHours int
	ArtifactIDField string
	OpenerField     string
	DryRun          bool

	// DefaultState is not read by the processor: a newly-created WITS
	// work item is saved in its type's default state, and the status
	// mapping's real state/reason are applied by a second save.
	DefaultState string
}

// artifactURL builds the PMS hyperlink target stamped on every
// outbound-created work item.
func artifactURL(baseURL, kind string, internalID int) string {
	return baseURL + "/" + kind + "s/" + strconv.Itoa(internalID)
}
