package processor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// IncidentMergeInput bundles an already-mapped incident's current state
// on both sides plus the translation tables MergeUpdateIncident needs to
// reconcile them.
type IncidentMergeInput struct {
	Incident   pms.Incident
	WorkItem   wits.WorkItem
	WorkItemID int

	ReleaseName          string
	KnownReleaseMappings []mapping.ArtifactMapping

	TypeTable     []mapping.FieldValueMapping
	PriorityTable []mapping.FieldValueMapping
	SeverityTable []mapping.FieldValueMapping
	StatusTable   []mapping.FieldValueMapping
	UserMappings  []mapping.UserMapping

	CustomProperties   []customprop.Slot
	CustomPropertyCtx  *customprop.Context
	CustomPropertyDefs []pms.CustomPropertyDefinition
	CustomPropertyMap  []mapping.CustomPropertyMapping
}

// MergeUpdateIncident reconciles an incident that changed on both sides
// since the last cycle: whichever side changed more recently (WITS's
// ChangedDate adjusted by the configured time-zone offset versus PMS's
// LastUpdateDate) is authoritative for this pass, mirroring how the
// legacy integration picked a winner rather than attempting a
// field-by-field three-way merge.
func (p *Context) MergeUpdateIncident(ctx context.Context, in IncidentMergeInput) error {
	witsChangedAt := in.WorkItem.Fields.ChangedDate.Add(time.Duration(p.TimeOffsetHours) * time.Hour).UTC()
	pmsUpdatedAt := in.Incident.LastUpdateDate.UTC()

	var err error
	if pmsUpdatedAt.After(witsChangedAt) {
		err = p.mergeIncidentFromPMS(ctx, in)
	} else {
		err = p.mergeIncidentFromWITS(ctx, in)
	}
	if err != nil {
		return err
	}

	if cerr := p.CopyIncidentCommentsOutbound(ctx, in.Incident.ID, in.WorkItemID); cerr != nil {
		p.Logger.Warn("comment reconciliation (outbound) failed during merge-update", "incident_id", in.Incident.ID, "error", cerr)
	}
	if cerr := p.copyIncidentCommentsInbound(ctx, in.WorkItemID, in.Incident.ID); cerr != nil {
		p.Logger.Warn("comment reconciliation (inbound) failed during merge-update", "incident_id", in.Incident.ID, "error", cerr)
	}
	return nil
}

// mergeIncidentFromPMS treats the PMS incident as authoritative and
// pushes only the fields that differ from the work item's current
// state. The opener field and artifact-id field are stamped once at
// creation and never revisited here.
func (p *Context) mergeIncidentFromPMS(ctx context.Context, in IncidentMergeInput) error {
	wi := in.WorkItem
	dirty := &dirtyTracker{}
	var ops []wits.PatchOperation

	if dirty.diff(wi.Fields.Title, in.Incident.Name) {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.Title", Value: in.Incident.Name})
	}

	repro, description := outboundDescription(in.Incident.StepsToReproduce, in.Incident.RichDescription, in.Incident.Description)
	if dirty.diff(wi.Fields.StepsToReproduce, repro) {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.ReproSteps", Value: repro})
	}
	if dirty.diff(wi.Fields.Description, description) {
		ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.Description", Value: description})
	}

	if priority := translate.ToExternal(p.Logger, "priority", strconv.Itoa(in.Incident.PriorityID), in.PriorityTable); priority.Mapped {
		if dirty.diff(wi.Fields.Priority, priority.Value) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Priority", Value: priority.Value})
		}
	}
	if severity := translate.ToExternal(p.Logger, "severity", strconv.Itoa(in.Incident.SeverityID), in.SeverityTable); severity.Mapped {
		if dirty.diff(wi.Fields.Severity, severity.Value) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Severity", Value: severity.Value})
		}
	}
	if state, ok := translate.StatusToExternal(p.Logger, strconv.Itoa(in.Incident.StatusID), in.StatusTable); ok {
		if dirty.diff(wi.Fields.State, state.State) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.State", Value: state.State})
		}
		if dirty.diff(wi.Fields.Reason, state.Reason) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.Reason", Value: state.Reason})
		}
	}
	if name, ok := p.Users.ToExternal(ctx, in.Incident.AssigneeID, "", in.UserMappings); ok {
		if dirty.diff(wi.Fields.AssignedTo, name) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.AssignedTo", Value: name})
		}
	}

	if _, err := p.Releases.ResolveReleaseToIteration(ctx, p.ProjectID, in.Incident.ReleaseID, in.ReleaseName, in.KnownReleaseMappings); err != nil {
		p.Logger.Warn("failed to resolve iteration during merge-update, leaving unset", "incident_id", in.Incident.ID, "error", err)
	} else {
		iterationPath := wits.IterationPath(p.WITSProject, iteration.StripReservedChars(in.ReleaseName))
		if dirty.diff(wi.Fields.IterationPath, iterationPath) {
			ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/System.IterationPath", Value: iterationPath})
		}
	}

	for _, slot := range in.CustomProperties {
		writes, ok := customprop.ToExternal(in.CustomPropertyCtx, slot)
		if !ok {
			continue
		}
		for _, w := range writes {
			current, _ := rawFieldString(wi.RawFields, w.FieldName)
			if dirty.diff(current, w.Value) {
				ops = append(ops, wits.PatchOperation{Op: "add", Path: "/fields/" + w.FieldName, Value: w.Value})
			}
		}
	}

	if !dirty.dirty {
		return nil
	}
	if p.DryRun {
		p.Logger.Info("dry run: would update work item", "incident_id", in.Incident.ID, "work_item_id", in.WorkItemID)
		return nil
	}
	if _, err := p.WITS.UpdateWorkItem(ctx, in.WorkItemID, ops); err != nil {
		return fmt.Errorf("processor: merge-update work item %d from incident %d: %w", in.WorkItemID, in.Incident.ID, err)
	}
	return nil
}

// mergeIncidentFromWITS treats the work item as authoritative and pushes
// only the fields that differ from the incident's current state.
func (p *Context) mergeIncidentFromWITS(ctx context.Context, in IncidentMergeInput) error {
	wi := in.WorkItem
	dirty := &dirtyTracker{}
	fields := map[string]interface{}{}

	if dirty.diff(in.Incident.Name, wi.Fields.Title) {
		fields["name"] = wi.Fields.Title
	}
	if wi.Fields.StepsToReproduce != "" {
		if dirty.diff(in.Incident.StepsToReproduce, wi.Fields.StepsToReproduce) {
			fields["stepsToReproduce"] = wi.Fields.StepsToReproduce
		}
	} else if dirty.diff(in.Incident.RichDescription, wi.Fields.Description) {
		fields["richDescription"] = wi.Fields.Description
	}

	if priority := translate.ToInternal(p.Logger, "priority", strconv.Itoa(wi.Fields.Priority), in.PriorityTable); priority.Mapped {
		if v, err := strconv.Atoi(priority.Value); err == nil && dirty.diff(in.Incident.PriorityID, v) {
			fields["priorityId"] = v
		}
	}
	if severity := translate.ToInternal(p.Logger, "severity", wi.Fields.Severity, in.SeverityTable); severity.Mapped {
		if v, err := strconv.Atoi(severity.Value); err == nil && dirty.diff(in.Incident.SeverityID, v) {
			fields["severityId"] = v
		}
	}
	if internal, ok := translate.StatusToInternal(p.Logger, wi.Fields.State, wi.Fields.Reason, in.StatusTable); ok {
		if v, err := strconv.Atoi(internal); err == nil && dirty.diff(in.Incident.StatusID, v) {
			fields["statusId"] = v
		}
	}
	if assigneeID, ok := p.Users.ToInternal(wi.Fields.AssignedTo, in.UserMappings); ok {
		if dirty.diff(in.Incident.AssigneeID, assigneeID) {
			fields["assigneeId"] = assigneeID
		}
	}
	if releaseID, err := p.Releases.ResolveIterationToRelease(ctx, p.ProjectID, wi.Fields.IterationID, iterationLeafName(wi.Fields.IterationPath), in.KnownReleaseMappings); err == nil {
		if dirty.diff(in.Incident.ReleaseID, releaseID) {
			fields["releaseId"] = releaseID
		}
	} else {
		p.Logger.Warn("failed to resolve release during merge-update, leaving unset", "work_item_id", wi.ID, "error", err)
	}
	if len(in.CustomPropertyDefs) > 0 {
		custom := InboundCustomProperties(in.CustomPropertyCtx, in.CustomPropertyDefs, in.CustomPropertyMap, wi.RawFields)
		for id, v := range custom {
			if dirty.diff(in.Incident.CustomProperties[id], v) {
				fields["customProperties"] = custom
				break
			}
		}
	}

	if !dirty.dirty {
		return nil
	}
	if p.DryRun {
		p.Logger.Info("dry run: would update incident", "work_item_id", wi.ID, "incident_id", in.Incident.ID)
		return nil
	}
	if err := p.PMS.UpdateIncident(ctx, p.ProjectID, in.Incident.ID, fields); err != nil {
		return fmt.Errorf("processor: merge-update incident %d from work item %d: %w", in.Incident.ID, wi.ID, err)
	}
	return nil
}

// copyIncidentCommentsInbound replicates every un-replicated History
// entry onto the mapped PMS incident as a comment, the mirror of
// CopyIncidentCommentsOutbound run during merge-update so neither side's
// discussion falls behind.
func (p *Context) copyIncidentCommentsInbound(ctx context.Context, workItemID, incidentID int) error {
	revisions, err := p.WITS.GetRevisions(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("processor: list revisions for work item %d: %w", workItemID, err)
	}
	existing, err := p.PMS.ListComments(ctx, mapping.ArtifactTypeIncident, incidentID)
	if err != nil {
		return fmt.Errorf("processor: list comments for incident %d: %w", incidentID, err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[trimmed(c.Text)] = true
	}
	for text := range historyTextSet(revisions) {
		if have[text] {
			continue
		}
		if err := p.PMS.CreateComment(ctx, mapping.ArtifactTypeIncident, incidentID, pms.Comment{Text: text, CreationDate: time.Now().UTC()}); err != nil {
			p.Logger.Warn("failed to copy comment inbound", "incident_id", incidentID, "error", err)
		}
	}
	return nil
}

// CopyIncidentLinksInbound transfers attachments/associations via C5,
// the inbound mirror of CopyIncidentLinksOutbound.
func (p *Context) CopyIncidentLinksInbound(ctx context.Context, source linkbridge.WITSLinkSource, sink linkbridge.PMSAttachmentSink, workItemID, incidentID int, tables linkbridge.LinkTables) error {
	return linkbridge.Inbound(ctx, p.Logger, source, sink, mapping.ArtifactTypeIncident, incidentID, workItemID, tables)
}
