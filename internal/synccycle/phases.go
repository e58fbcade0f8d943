package synccycle

import (
	"context"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/engineerrors"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// runNewOnPMS is phase P1: incidents created on PMS since the watermark
// that have no mapping yet are pushed outbound to WITS. Tasks and
// requirements have no outbound-create path — they originate on WITS
// only — so this phase only ever handles incidents.
func (c *cycle) runNewOnPMS(ctx context.Context, since time.Time) {
	incidents, err := c.pmsc.ListIncidentsCreatedSince(ctx, c.cfg.ProjectID, since)
	if err != nil {
		c.logger.Error("list incidents created since watermark failed", "error", err)
		c.status = worse(c.status, StatusError)
		return
	}

	for _, inc := range incidents {
		if mapping.FindByInternalIDScoped(inc.ID, c.incidentMappings) != nil {
			continue
		}
		if err := c.createOutboundIncident(ctx, inc); err != nil {
			c.logger.Error("create-outbound incident failed", "incident_id", inc.ID, "error", err)
			c.status = worse(c.status, StatusWarning)
		}
	}
}

// runNewOnWITS is phase P2: work items created on WITS since the
// watermark that have no mapping yet are classified and pulled inbound
// to PMS as an incident, task, or requirement.
func (c *cycle) runNewOnWITS(ctx context.Context, since time.Time) {
	items, err := c.queryCreatedSince(ctx, since)
	if err != nil {
		c.logger.Error("query work items created since watermark failed", "error", err)
		c.status = worse(c.status, StatusError)
		return
	}

	for _, wi := range items {
		kind := processor.Classify(wi.Fields.WorkItemType, c.taskTypes, c.requirementTypes)
		key := strconv.Itoa(wi.ID)
		var createErr error
		switch kind {
		case processor.KindTask:
			if mapping.FindByExternalKeyScoped(key, c.taskMappings, true) != nil {
				continue
			}
			createErr = c.createInboundTask(ctx, wi)
		case processor.KindRequirement:
			if mapping.FindByExternalKeyScoped(key, c.requirementMappings, true) != nil {
				continue
			}
			createErr = c.createInboundRequirement(ctx, wi)
		default:
			if mapping.FindByExternalKeyScoped(key, c.incidentMappings, true) != nil {
				continue
			}
			createErr = c.createInboundIncident(ctx, wi)
		}
		if createErr != nil {
			c.logger.Error("create-inbound work item failed", "work_item_id", wi.ID, "kind", kind, "error", createErr)
			c.status = worse(c.status, StatusWarning)
		}
	}
}

// runUpdated is phase P3: artifacts that changed on either side since
// the watermark (and were not just handled by P1/P2) are reconciled via
// the per-kind merge-update flow.
func (c *cycle) runUpdated(ctx context.Context, since time.Time) {
	now := time.Now().UTC()

	incidents, err := c.pmsc.ListIncidentsUpdatedSince(ctx, c.cfg.ProjectID, since, now)
	if err != nil {
		c.logger.Error("list incidents updated since watermark failed", "error", err)
		c.status = worse(c.status, StatusError)
	}
	for _, inc := range incidents {
		m := mapping.FindByInternalIDScoped(inc.ID, c.incidentMappings)
		if m == nil {
			continue // not yet synced; P1/a later cycle will pick it up
		}
		workItemID, ok := workItemIDFromKey(m.ExternalKey)
		if !ok {
			continue
		}
		if err := c.mergeIncident(ctx, inc, workItemID); err != nil {
			c.logger.Error("merge-update incident failed", "incident_id", inc.ID, "work_item_id", workItemID, "error", err)
			c.status = worse(c.status, StatusWarning)
		}
	}

	items, err := c.queryChangedSince(ctx, since)
	if err != nil {
		c.logger.Error("query work items changed since watermark failed", "error", err)
		c.status = worse(c.status, StatusError)
		return
	}
	for _, wi := range items {
		kind := processor.Classify(wi.Fields.WorkItemType, c.taskTypes, c.requirementTypes)
		key := strconv.Itoa(wi.ID)
		var mergeErr error
		switch kind {
		case processor.KindTask:
			m := mapping.FindByExternalKeyScoped(key, c.taskMappings, true)
			if m == nil {
				continue
			}
			mergeErr = c.mergeTask(ctx, wi, m.InternalID)
		case processor.KindRequirement:
			m := mapping.FindByExternalKeyScoped(key, c.requirementMappings, true)
			if m == nil {
				continue
			}
			mergeErr = c.mergeRequirement(ctx, wi, m.InternalID)
		default:
			m := mapping.FindByExternalKeyScoped(key, c.incidentMappings, true)
			if m == nil {
				continue
			}
			// A work item that changed only on WITS never shows up in the
			// PMS-side updated listing above; merge-update's dirty check
			// makes re-running it here for an already-handled incident a
			// harmless no-op.
			mergeErr = c.mergeChangedIncident(ctx, m.InternalID, wi.ID)
		}
		if mergeErr != nil {
			c.logger.Error("merge-update work item failed", "work_item_id", wi.ID, "kind", kind, "error", mergeErr)
			c.status = worse(c.status, StatusWarning)
		}
	}
}

// flush persists every auto-created release mapping the reconciler
// accumulated this cycle.
func (c *cycle) flush(ctx context.Context) error {
	newMappings := c.recs.NewMappings()
	if len(newMappings) == 0 {
		return nil
	}
	return c.store.AddArtifactMappings(ctx, mapping.ArtifactTypeRelease, newMappings)
}

// queryCreatedSince issues the created-since query, retrying once with
// the narrower fallback window if the provider reports the result set
// exceeded its cap.
func (c *cycle) queryCreatedSince(ctx context.Context, since time.Time) ([]wits.WorkItem, error) {
	items, err := c.witsc.QueryCreatedSince(ctx, c.cfg.WITSProjectName, since)
	if err != nil && engineerrors.IsQueryCapExceeded(err) {
		c.logger.Warn("created-since query exceeded result cap, retrying with narrower window")
		narrowed := wits.NarrowedSince(time.Now().UTC())
		return c.witsc.QueryCreatedSince(ctx, c.cfg.WITSProjectName, narrowed)
	}
	return items, err
}

// queryChangedSince mirrors queryCreatedSince for the updated-on-either
// phase.
func (c *cycle) queryChangedSince(ctx context.Context, since time.Time) ([]wits.WorkItem, error) {
	items, err := c.witsc.QueryChangedSince(ctx, c.cfg.WITSProjectName, since)
	if err != nil && engineerrors.IsQueryCapExceeded(err) {
		c.logger.Warn("changed-since query exceeded result cap, retrying with narrower window")
		narrowed := wits.NarrowedSince(time.Now().UTC())
		return c.witsc.QueryChangedSince(ctx, c.cfg.WITSProjectName, narrowed)
	}
	return items, err
}
