package processor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// TaskInboundInput bundles a WITS-originated task work item with the
// lookups CreateInboundTask and MergeUpdateTask need. Tasks flow inbound
// only: WITS is authoritative for their existence and every field.
type TaskInboundInput struct {
	WorkItem wits.WorkItem

	UserMappings         []mapping.UserMapping
	KnownReleaseMappings []mapping.ArtifactMapping

	CustomPropertyDefs []pms.CustomPropertyDefinition
	CustomPropertyMap  []mapping.CustomPropertyMapping
	CustomPropertyCtx  *customprop.Context
}

func (p *Context) taskFields(ctx context.Context, in TaskInboundInput) map[string]interface{} {
	wi := in.WorkItem
	fields := map[string]interface{}{
		"name":          wi.Fields.Title,
		"description":   inboundDescription("", wi.Fields.Description),
		"effortMinutes": int(wi.Fields.CompletedWork * 60),
	}
	if ownerID, ok := p.Users.ToInternal(wi.Fields.CreatedBy, in.UserMappings); ok {
		fields["ownerId"] = ownerID
	}
	if assigneeID, ok := p.Users.ToInternal(wi.Fields.AssignedTo, in.UserMappings); ok {
		fields["assigneeId"] = assigneeID
	}
	if releaseID, err := p.Releases.ResolveIterationToRelease(ctx, p.ProjectID, wi.Fields.IterationID, iterationLeafName(wi.Fields.IterationPath), in.KnownReleaseMappings); err == nil {
		fields["releaseId"] = releaseID
	} else {
		p.Logger.Warn("failed to resolve release for task work item, leaving unset", "work_item_id", wi.ID, "error", err)
	}
	if len(in.CustomPropertyDefs) > 0 {
		fields["customProperties"] = InboundCustomProperties(in.CustomPropertyCtx, in.CustomPropertyDefs, in.CustomPropertyMap, wi.RawFields)
	}
	return fields
}

// CreateInboundTask implements the WITS-work-item-to-PMS-task create
// flow.
func (p *Context) CreateInboundTask(ctx context.Context, in TaskInboundInput) (int, error) {
	fields := p.taskFields(ctx, in)

	if p.DryRun {
		p.Logger.Info("dry run: would create task", "work_item_id", in.WorkItem.ID)
		return 0, nil
	}

	taskID, err := p.PMS.CreateTask(ctx, p.ProjectID, fields)
	if err != nil {
		return 0, fmt.Errorf("processor: create task for work item %d: %w", in.WorkItem.ID, err)
	}
	return taskID, nil
}

// MergeUpdateTask reconciles field changes from an already-synced WITS
// task work item onto its mapped PMS task, skipping the save entirely
// when nothing differs from current.
func (p *Context) MergeUpdateTask(ctx context.Context, in TaskInboundInput, current pms.Task, taskID int) error {
	fields := p.taskFields(ctx, in)
	dirty := &dirtyTracker{}
	dirty.diff(current.Name, fields["name"])
	dirty.diff(current.Description, fields["description"])
	dirty.diff(current.EffortMinutes, fields["effortMinutes"])
	if v, ok := fields["ownerId"]; ok {
		dirty.diff(current.OwnerID, v)
	}
	if v, ok := fields["assigneeId"]; ok {
		dirty.diff(current.AssigneeID, v)
	}
	if v, ok := fields["releaseId"]; ok {
		dirty.diff(current.ReleaseID, v)
	}

	if !dirty.dirty {
		return nil
	}
	if p.DryRun {
		p.Logger.Info("dry run: would update task", "work_item_id", in.WorkItem.ID, "task_id", taskID)
		return nil
	}
	if err := p.PMS.UpdateTask(ctx, p.ProjectID, taskID, fields); err != nil {
		return fmt.Errorf("processor: update task %d from work item %d: %w", taskID, in.WorkItem.ID, err)
	}
	return nil
}

// PersistTaskMapping records the newly-created task's mapping.
func (p *Context) PersistTaskMapping(ctx context.Context, store mapping.Store, workItemID, taskID int) error {
	return store.AddArtifactMappings(ctx, mapping.ArtifactTypeTask, []mapping.ArtifactMapping{{
		ProjectID:      p.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeTask,
		InternalID:     taskID,
		ExternalKey:    strconv.Itoa(workItemID),
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	}})
}

// CopyTaskCommentsInbound replicates every un-replicated History entry
// onto the mapped PMS task as a comment.
func (p *Context) CopyTaskCommentsInbound(ctx context.Context, workItemID, taskID int) error {
	revisions, err := p.WITS.GetRevisions(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("processor: list revisions for work item %d: %w", workItemID, err)
	}
	existing, err := p.PMS.ListComments(ctx, mapping.ArtifactTypeTask, taskID)
	if err != nil {
		return fmt.Errorf("processor: list comments for task %d: %w", taskID, err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[trimmed(c.Text)] = true
	}
	for text := range historyTextSet(revisions) {
		if have[text] {
			continue
		}
		if err := p.PMS.CreateComment(ctx, mapping.ArtifactTypeTask, taskID, pms.Comment{Text: text, CreationDate: time.Now().UTC()}); err != nil {
			p.Logger.Warn("failed to copy comment inbound", "task_id", taskID, "error", err)
		}
	}
	return nil
}

// CopyTaskLinksInbound transfers attachments/associations via C5.
func (p *Context) CopyTaskLinksInbound(ctx context.Context, source linkbridge.WITSLinkSource, sink linkbridge.PMSAttachmentSink, workItemID, taskID int, tables linkbridge.LinkTables) error {
	return linkbridge.Inbound(ctx, p.Logger, source, sink, mapping.ArtifactTypeTask, taskID, workItemID, tables)
}
