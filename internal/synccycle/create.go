package synccycle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// createOutboundIncident drives P1 for one incident: resolve its release
// name, build the outbound custom-property slots, create the mapped
// work item, persist the mapping, then copy comments and links.
func (c *cycle) createOutboundIncident(ctx context.Context, inc pms.Incident) error {
	releaseName, err := c.releaseNameOrEmpty(ctx, inc.ReleaseID)
	if err != nil {
		return err
	}

	in := processor.IncidentOutboundInput{
		Incident:             inc,
		ReleaseName:          releaseName,
		KnownReleaseMappings: c.releaseMappings,
		TypeTable:            c.typeTable,
		PriorityTable:        c.priorityTable,
		SeverityTable:        c.severityTable,
		StatusTable:          c.statusTable,
		UserMappings:         c.userMappings,
		CustomProperties:     processor.OutboundSlots(c.incidentCustomDefs, c.incidentCustomMap, inc.CustomProperties),
		CustomPropertyCtx:    c.incidentCustomCtx,
	}

	workItemID, err := c.proc.CreateOutboundIncident(ctx, in)
	if err != nil {
		return err
	}
	if c.cfg.DryRun {
		return nil
	}

	if err := c.proc.PersistIncidentMapping(ctx, c.store, inc.ID, workItemID); err != nil {
		return fmt.Errorf("synccycle: persist incident mapping: %w", err)
	}
	c.incidentMappings = append(c.incidentMappings, mapping.ArtifactMapping{
		ProjectID:      c.cfg.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeIncident,
		InternalID:     inc.ID,
		ExternalKey:    strconv.Itoa(workItemID),
		Primary:        true,
	})

	if err := c.proc.CopyIncidentCommentsOutbound(ctx, inc.ID, workItemID); err != nil {
		c.logger.Warn("failed to copy comments outbound after create", "incident_id", inc.ID, "error", err)
	}
	if err := c.proc.CopyIncidentLinksOutbound(ctx, c.pmsc, c.witsc, inc.ID, workItemID); err != nil {
		c.logger.Warn("failed to copy links outbound after create", "incident_id", inc.ID, "error", err)
	}
	return nil
}

// createInboundIncident drives the incident branch of P2: a WITS work
// item whose type wasn't recognized as a task or requirement type.
func (c *cycle) createInboundIncident(ctx context.Context, wi wits.WorkItem) error {
	in := processor.IncidentInboundInput{
		WorkItem:             wi,
		UserMappings:         c.userMappings,
		KnownReleaseMappings: c.releaseMappings,
		PriorityTable:        c.priorityTable,
		SeverityTable:        c.severityTable,
		StatusTable:          c.statusTable,
		CustomPropertyDefs:   c.incidentCustomDefs,
		CustomPropertyMap:    c.incidentCustomMap,
		CustomPropertyCtx:    c.incidentCustomCtx,
	}
	incidentID, err := c.proc.CreateInboundIncident(ctx, in)
	if err != nil {
		return err
	}
	if c.cfg.DryRun {
		return nil
	}

	if err := c.proc.PersistIncidentMapping(ctx, c.store, incidentID, wi.ID); err != nil {
		return fmt.Errorf("synccycle: persist incident mapping: %w", err)
	}
	c.incidentMappings = append(c.incidentMappings, mapping.ArtifactMapping{
		ProjectID:      c.cfg.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeIncident,
		InternalID:     incidentID,
		ExternalKey:    strconv.Itoa(wi.ID),
		Primary:        true,
	})

	if err := c.proc.CopyIncidentLinksInbound(ctx, c.witsc, c.pmsc, wi.ID, incidentID, c.linkTables); err != nil {
		c.logger.Warn("failed to copy links inbound after create", "work_item_id", wi.ID, "error", err)
	}
	return nil
}

// createInboundTask drives the task branch of P2.
func (c *cycle) createInboundTask(ctx context.Context, wi wits.WorkItem) error {
	in := processor.TaskInboundInput{
		WorkItem:             wi,
		UserMappings:         c.userMappings,
		KnownReleaseMappings: c.releaseMappings,
		CustomPropertyDefs:   c.taskCustomDefs,
		CustomPropertyMap:    c.taskCustomMap,
		CustomPropertyCtx:    c.taskCustomCtx,
	}
	taskID, err := c.proc.CreateInboundTask(ctx, in)
	if err != nil {
		return err
	}
	if c.cfg.DryRun {
		return nil
	}

	if err := c.proc.PersistTaskMapping(ctx, c.store, wi.ID, taskID); err != nil {
		return fmt.Errorf("synccycle: persist task mapping: %w", err)
	}
	c.taskMappings = append(c.taskMappings, mapping.ArtifactMapping{
		ProjectID:      c.cfg.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeTask,
		InternalID:     taskID,
		ExternalKey:    strconv.Itoa(wi.ID),
		Primary:        true,
	})

	if err := c.proc.CopyTaskCommentsInbound(ctx, wi.ID, taskID); err != nil {
		c.logger.Warn("failed to copy comments inbound after create", "work_item_id", wi.ID, "error", err)
	}
	if err := c.proc.CopyTaskLinksInbound(ctx, c.witsc, c.pmsc, wi.ID, taskID, c.linkTables); err != nil {
		c.logger.Warn("failed to copy links inbound after create", "work_item_id", wi.ID, "error", err)
	}
	return nil
}

// createInboundRequirement drives the requirement branch of P2.
func (c *cycle) createInboundRequirement(ctx context.Context, wi wits.WorkItem) error {
	in := processor.RequirementInboundInput{
		WorkItem:             wi,
		UserMappings:         c.userMappings,
		KnownReleaseMappings: c.releaseMappings,
		CustomPropertyDefs:   c.reqCustomDefs,
		CustomPropertyMap:    c.reqCustomMap,
		CustomPropertyCtx:    c.reqCustomCtx,
	}
	requirementID, err := c.proc.CreateInboundRequirement(ctx, in)
	if err != nil {
		return err
	}
	if c.cfg.DryRun {
		return nil
	}

	if err := c.proc.PersistRequirementMapping(ctx, c.store, wi.ID, requirementID); err != nil {
		return fmt.Errorf("synccycle: persist requirement mapping: %w", err)
	}
	c.requirementMappings = append(c.requirementMappings, mapping.ArtifactMapping{
		ProjectID:      c.cfg.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeRequirement,
		InternalID:     requirementID,
		ExternalKey:    strconv.Itoa(wi.ID),
		Primary:        true,
	})

	if err := c.proc.CopyRequirementCommentsInbound(ctx, wi.ID, requirementID); err != nil {
		c.logger.Warn("failed to copy comments inbound after create", "work_item_id", wi.ID, "error", err)
	}
	if err := c.proc.CopyRequirementLinksInbound(ctx, c.witsc, c.pmsc, wi.ID, requirementID, c.linkTables); err != nil {
		c.logger.Warn("failed to copy links inbound after create", "work_item_id", wi.ID, "error", err)
	}
	return nil
}

// releaseNameOrEmpty resolves a release's display name, returning "" for
// an incident with no release set.
func (c *cycle) releaseNameOrEmpty(ctx context.Context, releaseID int) (string, error) {
	if releaseID == 0 {
		return "", nil
	}
	return c.releaseName(ctx, releaseID)
}
