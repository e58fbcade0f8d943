package synccycle

import (
	"context"
	"fmt"

	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// mergeIncident drives P3 for one already-mapped incident: fetch the
// work item's current state and reconcile whichever side changed more
// recently onto the other.
func (c *cycle) mergeIncident(ctx context.Context, inc pms.Incident, workItemID int) error {
	wi, found, err := c.witsc.GetWorkItem(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("synccycle: get work item %d: %w", workItemID, err)
	}
	if !found {
		c.logger.Warn("mapped work item no longer exists, skipping merge-update", "incident_id", inc.ID, "work_item_id", workItemID)
		return nil
	}

	releaseName, err := c.releaseNameOrEmpty(ctx, inc.ReleaseID)
	if err != nil {
		return err
	}

	return c.proc.MergeUpdateIncident(ctx, processor.IncidentMergeInput{
		Incident:             inc,
		WorkItem:             wi,
		WorkItemID:           workItemID,
		ReleaseName:          releaseName,
		KnownReleaseMappings: c.releaseMappings,
		TypeTable:            c.typeTable,
		PriorityTable:        c.priorityTable,
		SeverityTable:        c.severityTable,
		StatusTable:          c.statusTable,
		UserMappings:         c.userMappings,
		CustomProperties:     processor.OutboundSlots(c.incidentCustomDefs, c.incidentCustomMap, inc.CustomProperties),
		CustomPropertyCtx:    c.incidentCustomCtx,
		CustomPropertyDefs:   c.incidentCustomDefs,
		CustomPropertyMap:    c.incidentCustomMap,
	})
}

// mergeChangedIncident fetches the current incident state for an
// already-mapped incident reached via a WITS-side changed-work-item
// query, then delegates to mergeIncident.
func (c *cycle) mergeChangedIncident(ctx context.Context, incidentID, workItemID int) error {
	inc, err := c.pmsc.GetIncident(ctx, c.cfg.ProjectID, incidentID)
	if err != nil {
		return fmt.Errorf("synccycle: get incident %d: %w", incidentID, err)
	}
	return c.mergeIncident(ctx, inc, workItemID)
}

// mergeTask drives P3 for one already-mapped task work item. Tasks are
// WITS-authoritative, so there is no PMS-changed direction to consider —
// every field flows from the work item.
func (c *cycle) mergeTask(ctx context.Context, wi wits.WorkItem, taskID int) error {
	current, err := c.pmsc.GetTask(ctx, c.cfg.ProjectID, taskID)
	if err != nil {
		return fmt.Errorf("synccycle: get task %d: %w", taskID, err)
	}
	in := processor.TaskInboundInput{
		WorkItem:             wi,
		UserMappings:         c.userMappings,
		KnownReleaseMappings: c.releaseMappings,
		CustomPropertyDefs:   c.taskCustomDefs,
		CustomPropertyMap:    c.taskCustomMap,
		CustomPropertyCtx:    c.taskCustomCtx,
	}
	if err := c.proc.MergeUpdateTask(ctx, in, current, taskID); err != nil {
		return err
	}
	if err := c.proc.CopyTaskCommentsInbound(ctx, wi.ID, taskID); err != nil {
		c.logger.Warn("failed to copy comments inbound during merge-update", "work_item_id", wi.ID, "error", err)
	}
	return nil
}

// mergeRequirement drives P3 for one already-mapped requirement work
// item, the mirror of mergeTask.
func (c *cycle) mergeRequirement(ctx context.Context, wi wits.WorkItem, requirementID int) error {
	current, err := c.pmsc.GetRequirement(ctx, c.cfg.ProjectID, requirementID)
	if err != nil {
		return fmt.Errorf("synccycle: get requirement %d: %w", requirementID, err)
	}
	in := processor.RequirementInboundInput{
		WorkItem:             wi,
		UserMappings:         c.userMappings,
		KnownReleaseMappings: c.releaseMappings,
		CustomPropertyDefs:   c.reqCustomDefs,
		CustomPropertyMap:    c.reqCustomMap,
		CustomPropertyCtx:    c.reqCustomCtx,
	}
	if err := c.proc.MergeUpdateRequirement(ctx, in, current, requirementID); err != nil {
		return err
	}
	if err := c.proc.CopyRequirementCommentsInbound(ctx, wi.ID, requirementID); err != nil {
		c.logger.Warn("failed to copy comments inbound during merge-update", "work_item_id", wi.ID, "error", err)
	}
	return nil
}
