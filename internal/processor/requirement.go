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

// RequirementInboundInput bundles a WITS-originated requirement work
// item with the lookups CreateInboundRequirement and
// MergeUpdateRequirement need. Requirements, like tasks, flow inbound
// only.
type RequirementInboundInput struct {
	WorkItem wits.WorkItem

	UserMappings         []mapping.UserMapping
	KnownReleaseMappings []mapping.ArtifactMapping

	CustomPropertyDefs []pms.CustomPropertyDefinition
	CustomPropertyMap  []mapping.CustomPropertyMapping
	CustomPropertyCtx  *customprop.Context
}

func (p *Context) requirementFields(ctx context.Context, in RequirementInboundInput) map[string]interface{} {
	wi := in.WorkItem
	fields := map[string]interface{}{
		"name":        wi.Fields.Title,
		"description": inboundDescription("", wi.Fields.Description),
	}
	if ownerID, ok := p.Users.ToInternal(wi.Fields.CreatedBy, in.UserMappings); ok {
		fields["ownerId"] = ownerID
	}
	if releaseID, err := p.Releases.ResolveIterationToRelease(ctx, p.ProjectID, wi.Fields.IterationID, iterationLeafName(wi.Fields.IterationPath), in.KnownReleaseMappings); err == nil {
		fields["releaseId"] = releaseID
	} else {
		p.Logger.Warn("failed to resolve release for requirement work item, leaving unset", "work_item_id", wi.ID, "error", err)
	}
	if len(in.CustomPropertyDefs) > 0 {
		fields["customProperties"] = InboundCustomProperties(in.CustomPropertyCtx, in.CustomPropertyDefs, in.CustomPropertyMap, wi.RawFields)
	}
	return fields
}

// CreateInboundRequirement implements the WITS-work-item-to-PMS-
// requirement create flow.
func (p *Context) CreateInboundRequirement(ctx context.Context, in RequirementInboundInput) (int, error) {
	fields := p.requirementFields(ctx, in)

	if p.DryRun {
		p.Logger.Info("dry run: would create requirement", "work_item_id", in.WorkItem.ID)
		return 0, nil
	}

	requirementID, err := p.PMS.CreateRequirement(ctx, p.ProjectID, fields)
	if err != nil {
		return 0, fmt.Errorf("processor: create requirement for work item %d: %w", in.WorkItem.ID, err)
	}
	return requirementID, nil
}

// MergeUpdateRequirement reconciles field changes from an
// already-synced WITS requirement work item onto its mapped PMS
// requirement, skipping the save entirely when nothing differs.
func (p *Context) MergeUpdateRequirement(ctx context.Context, in RequirementInboundInput, current pms.Requirement, requirementID int) error {
	fields := p.requirementFields(ctx, in)
	dirty := &dirtyTracker{}
	dirty.diff(current.Name, fields["name"])
	dirty.diff(current.Description, fields["description"])
	if v, ok := fields["ownerId"]; ok {
		dirty.diff(current.OwnerID, v)
	}
	if v, ok := fields["releaseId"]; ok {
		dirty.diff(current.ReleaseID, v)
	}

	if !dirty.dirty {
		return nil
	}
	if p.DryRun {
		p.Logger.Info("dry run: would update requirement", "work_item_id", in.WorkItem.ID, "requirement_id", requirementID)
		return nil
	}
	if err := p.PMS.UpdateRequirement(ctx, p.ProjectID, requirementID, fields); err != nil {
		return fmt.Errorf("processor: update requirement %d from work item %d: %w", requirementID, in.WorkItem.ID, err)
	}
	return nil
}

// PersistRequirementMapping records the newly-created requirement's
// mapping.
func (p *Context) PersistRequirementMapping(ctx context.Context, store mapping.Store, workItemID, requirementID int) error {
	return store.AddArtifactMappings(ctx, mapping.ArtifactTypeRequirement, []mapping.ArtifactMapping{{
		ProjectID:      p.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeRequirement,
		InternalID:     requirementID,
		ExternalKey:    strconv.Itoa(workItemID),
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	}})
}

// CopyRequirementCommentsInbound replicates every un-replicated History
// entry onto the mapped PMS requirement as a comment.
func (p *Context) CopyRequirementCommentsInbound(ctx context.Context, workItemID, requirementID int) error {
	revisions, err := p.WITS.GetRevisions(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("processor: list revisions for work item %d: %w", workItemID, err)
	}
	existing, err := p.PMS.ListComments(ctx, mapping.ArtifactTypeRequirement, requirementID)
	if err != nil {
		return fmt.Errorf("processor: list comments for requirement %d: %w", requirementID, err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[trimmed(c.Text)] = true
	}
	for text := range historyTextSet(revisions) {
		if have[text] {
			continue
		}
		if err := p.PMS.CreateComment(ctx, mapping.ArtifactTypeRequirement, requirementID, pms.Comment{Text: text, CreationDate: time.Now().UTC()}); err != nil {
			p.Logger.Warn("failed to copy comment inbound", "requirement_id", requirementID, "error", err)
		}
	}
	return nil
}

// CopyRequirementLinksInbound transfers attachments/associations via C5.
func (p *Context) CopyRequirementLinksInbound(ctx context.Context, source linkbridge.WITSLinkSource, sink linkbridge.PMSAttachmentSink, workItemID, requirementID int, tables linkbridge.LinkTables) error {
	return linkbridge.Inbound(ctx, p.Logger, source, sink, mapping.ArtifactTypeRequirement, requirementID, workItemID, tables)
}
