package processor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/config"
	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/engineerrors"
	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// IncidentOutboundInput bundles everything CreateOutboundIncident needs
// beyond the shared Context: the artifact itself, the translation tables
// its fields depend on, and the release it belongs to.
type IncidentOutboundInput struct {
	Incident pms.Incident

	ReleaseName          string
	KnownReleaseMappings []mapping.ArtifactMapping

	TypeTable     []mapping.FieldValueMapping
	PriorityTable []mapping.FieldValueMapping
	SeverityTable []mapping.FieldValueMapping
	StatusTable   []mapping.FieldValueMapping
	UserMappings  []mapping.UserMapping

	CustomProperties  []customprop.Slot
	CustomPropertyCtx *customprop.Context
}

// CreateOutboundIncident implements the PMS-incident-to-WITS-work-item
// create flow. Callers must already have checked the artifact isn't
// mapped yet; CreateOutboundIncident does not re-check.
func (p *Context) CreateOutboundIncident(ctx context.Context, in IncidentOutboundInput) (int, error) {
	workItemType, ok := mapping.FindFieldValue(strconv.Itoa(in.Incident.TypeID), in.TypeTable)
	if !ok {
		return 0, engineerrors.Wrapf(engineerrors.ErrUnmappedStatusOrType, "processor: incident %d has unmapped type %d", in.Incident.ID, in.Incident.TypeID)
	}

	if _, err := p.Releases.ResolveReleaseToIteration(ctx, p.ProjectID, in.Incident.ReleaseID, in.ReleaseName, in.KnownReleaseMappings); err != nil {
		return 0, fmt.Errorf("processor: resolve iteration for incident %d: %w", in.Incident.ID, err)
	}

	state, ok := translate.StatusToExternal(p.Logger, strconv.Itoa(in.Incident.StatusID), in.StatusTable)
	if !ok {
		return 0, fmt.Errorf("processor: incident %d: %w", in.Incident.ID, engineerrors.ErrUnmappedStatusOrType)
	}

	ops := p.buildIncidentCreateOps(ctx, in, iteration.StripReservedChars(in.ReleaseName))

	if p.DryRun {
		p.Logger.Info("dry run: would create work item", "incident_id", in.Incident.ID, "work_item_type", workItemType)
		return 0, nil
	}

	created, err := p.WITS.CreateWorkItem(ctx, workItemType, ops)
	if err != nil {
		if engineerrors.IsValidationFailure(err) {
			for _, op := range ops {
				p.Logger.Error("field rejected on create, artifact left unsynced", "incident_id", in.Incident.ID, "field", op.Path)
			}
			return 0, fmt.Errorf("processor: %w", engineerrors.ErrValidationFailed)
		}
		return 0, fmt.Errorf("processor: create work item for incident %d: %w", in.Incident.ID, err)
	}

	// Mandatory two-step save: the state machine forbids arbitrary
	// initial transitions, so state/reason are only set now that the
	// item exists in its type's default state.
	if _, err := p.WITS.SetState(ctx, created.ID, state.State, state.Reason); err != nil {
		return 0, fmt.Errorf("processor: set initial state for work item %d: %w", created.ID, err)
	}

	if err := p.WITS.AddHyperlink(ctx, created.ID, artifactURL(p.PMSBaseURL, "incident", in.Incident.ID)); err != nil {
		p.Logger.Warn("failed to add PMS hyperlink", "work_item_id", created.ID, "error", err)
	}

	return created.ID, nil
}

func (p *Context) buildIncidentCreateOps(ctx context.Context, in IncidentOutboundInput, iterationName string) []wits.PatchOperation {
	repro, description := outboundDescription(in.Incident.StepsToReproduce, in.Incident.RichDescription, in.Incident.Description)

	ops := []wits.PatchOperation{
		{Op: "add", Path: "/fields/System.Title", Value: in.Incident.Name},
		{Op: "add", Path: "/fields/System.IterationPath", Value: wits.IterationPath(p.WITSProject, iterationName)},
	}
	if repro != "" {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.ReproSteps", Value: repro})
	} else if description != "" {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.Description", Value: description})
	}

	if p.ArtifactIDField != "" {
		if artifactID, ok := config.FormatArtifactID("incident", in.Incident.ID); ok {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/" + p.ArtifactIDField, Value: artifactID})
		}
	}
	if p.OpenerField != "" {
		if name, ok := p.Users.ToExternal(ctx, in.Incident.OwnerID, "", in.UserMappings); ok {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/" + p.OpenerField, Value: name})
		}
	}

	if priority := translate.ToExternal(p.Logger, "priority", strconv.Itoa(in.Incident.PriorityID), in.PriorityTable); priority.Mapped {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Priority", Value: priority.Value})
	}
	if severity := translate.ToExternal(p.Logger, "severity", strconv.Itoa(in.Incident.SeverityID), in.SeverityTable); severity.Mapped {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Severity", Value: severity.Value})
	}
	if name, ok := p.Users.ToExternal(ctx, in.Incident.AssigneeID, "", in.UserMappings); ok {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.AssignedTo", Value: name})
	}

	for _, slot := range in.CustomProperties {
		writes, ok := customprop.ToExternal(in.CustomPropertyCtx, slot)
		if !ok {
			continue
		}
		for _, w := range writes {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/" + w.FieldName, Value: w.Value})
		}
	}

	return ops
}

// IncidentInboundInput bundles a WITS work item that classified as an
// incident (the default classification for any work item type not
// listed as a task or requirement type) with the lookups
// CreateInboundIncident needs.
type IncidentInboundInput struct {
	WorkItem wits.WorkItem

	UserMappings         []mapping.UserMapping
	KnownReleaseMappings []mapping.ArtifactMapping

	PriorityTable []mapping.FieldValueMapping
	SeverityTable []mapping.FieldValueMapping
	StatusTable   []mapping.FieldValueMapping

	CustomPropertyDefs []pms.CustomPropertyDefinition
	CustomPropertyMap  []mapping.CustomPropertyMapping
	CustomPropertyCtx  *customprop.Context
}

// CreateInboundIncident implements the WITS-work-item-to-PMS-incident
// create flow, the mirror of CreateOutboundIncident for work items that
// originate on WITS rather than on PMS.
func (p *Context) CreateInboundIncident(ctx context.Context, in IncidentInboundInput) (int, error) {
	wi := in.WorkItem
	repro := wi.Fields.StepsToReproduce
	description := inboundDescription(wi.Fields.Description, "")

	fields := map[string]interface{}{
		"name": wi.Fields.Title,
	}
	if repro != "" {
		fields["stepsToReproduce"] = repro
	} else {
		fields["richDescription"] = description
	}

	if priority := translate.ToInternal(p.Logger, "priority", strconv.Itoa(wi.Fields.Priority), in.PriorityTable); priority.Mapped {
		if v, err := strconv.Atoi(priority.Value); err == nil {
			fields["priorityId"] = v
		}
	}
	if severity := translate.ToInternal(p.Logger, "severity", wi.Fields.Severity, in.SeverityTable); severity.Mapped {
		if v, err := strconv.Atoi(severity.Value); err == nil {
			fields["severityId"] = v
		}
	}
	if internal, ok := translate.StatusToInternal(p.Logger, wi.Fields.State, wi.Fields.Reason, in.StatusTable); ok {
		if v, err := strconv.Atoi(internal); err == nil {
			fields["statusId"] = v
		}
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
		p.Logger.Warn("failed to resolve release for incident work item, leaving unset", "work_item_id", wi.ID, "error", err)
	}
	if len(in.CustomPropertyDefs) > 0 {
		fields["customProperties"] = InboundCustomProperties(in.CustomPropertyCtx, in.CustomPropertyDefs, in.CustomPropertyMap, wi.RawFields)
	}

	if p.DryRun {
		p.Logger.Info("dry run: would create incident", "work_item_id", wi.ID)
		return 0, nil
	}

	incidentID, err := p.PMS.CreateIncident(ctx, p.ProjectID, fields)
	if err != nil {
		return 0, fmt.Errorf("processor: create incident for work item %d: %w", wi.ID, err)
	}
	return incidentID, nil
}

// PersistIncidentMapping records the newly-created work item's mapping.
// Callers must call this before CopyIncidentLinksOutbound so the mapping
// survives any downstream attachment/comment failure.
func (p *Context) PersistIncidentMapping(ctx context.Context, store mapping.Store, internalID, workItemID int) error {
	return store.AddArtifactMappings(ctx, mapping.ArtifactTypeIncident, []mapping.ArtifactMapping{{
		ProjectID:      p.ProjectID,
		ArtifactTypeID: mapping.ArtifactTypeIncident,
		InternalID:     internalID,
		ExternalKey:    strconv.Itoa(workItemID),
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	}})
}

// CopyIncidentCommentsOutbound replicates every PMS comment not already
// present (trimmed-text dedup) onto the mapped work item's discussion.
func (p *Context) CopyIncidentCommentsOutbound(ctx context.Context, internalID, workItemID int) error {
	comments, err := p.PMS.ListComments(ctx, mapping.ArtifactTypeIncident, internalID)
	if err != nil {
		return fmt.Errorf("processor: list comments for incident %d: %w", internalID, err)
	}
	revisions, err := p.WITS.GetRevisions(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("processor: list revisions for work item %d: %w", workItemID, err)
	}
	existing := historyTextSet(revisions)
	for _, c := range comments {
		if existing[trimmed(c.Text)] {
			continue
		}
		if err := p.WITS.AddComment(ctx, workItemID, c.Text); err != nil {
			p.Logger.Warn("failed to copy comment outbound", "work_item_id", workItemID, "error", err)
		}
	}
	return nil
}

// CopyIncidentLinksOutbound transfers attachments via C5.
func (p *Context) CopyIncidentLinksOutbound(ctx context.Context, source linkbridge.PMSAttachmentSource, sink linkbridge.WITSAttachmentSink, internalID, workItemID int) error {
	return linkbridge.Outbound(ctx, p.Logger, source, sink, mapping.ArtifactTypeIncident, internalID, workItemID)
}
