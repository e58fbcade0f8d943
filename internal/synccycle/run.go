package synccycle

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/config"
	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/engineerrors"
	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/processor"
	"github.com/syncbridge/pms-wits-sync/internal/translate"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// sentinelWatermark is the cutover used on the very first cycle for a
// given plug-in, when neither the host nor the local store has ever
// observed a watermark. It must be far enough in the past that no
// artifact is missed, while the query-cap narrowing in
// queryCreatedSince/queryChangedSince keeps any single WITS query from
// trying to scan unbounded history.
var sentinelWatermark = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// cycle bundles the collaborators and the reconciled lookup tables built
// once per invocation and shared across every phase; the artifact mapping
// slices grow as phases create new counterparts.
type cycle struct {
	cfg    *config.Config
	store  mapping.Store
	pmsc   PMSClient
	witsc  WITSClient
	logger *slog.Logger

	proc *processor.Context
	recs *iteration.Reconciler

	incidentMappings    []mapping.ArtifactMapping
	taskMappings        []mapping.ArtifactMapping
	requirementMappings []mapping.ArtifactMapping
	releaseMappings     []mapping.ArtifactMapping
	userMappings        []mapping.UserMapping

	priorityTable []mapping.FieldValueMapping
	severityTable []mapping.FieldValueMapping
	statusTable   []mapping.FieldValueMapping
	typeTable     []mapping.FieldValueMapping

	taskCustomDefs   []pms.CustomPropertyDefinition
	taskCustomMap    []mapping.CustomPropertyMapping
	taskCustomCtx    *customprop.Context
	reqCustomDefs    []pms.CustomPropertyDefinition
	reqCustomMap     []mapping.CustomPropertyMapping
	reqCustomCtx     *customprop.Context
	incidentCustomDefs []pms.CustomPropertyDefinition
	incidentCustomMap  []mapping.CustomPropertyMapping
	incidentCustomCtx  *customprop.Context

	linkTables linkbridge.LinkTables

	taskTypes        []string
	requirementTypes []string

	releaseNames map[int]string

	status Status
}

// releaseName returns the release's display name, fetching and caching
// it from PMS the first time a given release id is needed, so this is at
// most one lookup per distinct release per cycle.
func (c *cycle) releaseName(ctx context.Context, releaseID int) (string, error) {
	if name, ok := c.releaseNames[releaseID]; ok {
		return name, nil
	}
	release, err := c.pmsc.GetRelease(ctx, c.cfg.ProjectID, releaseID)
	if err != nil {
		return "", fmt.Errorf("synccycle: get release %d: %w", releaseID, err)
	}
	c.releaseNames[releaseID] = release.Name
	return release.Name, nil
}

// Run executes one sync cycle: new-on-PMS, new-on-WITS, updated-on-
// either, then a mapping flush, in that order, with per-artifact error
// isolation so one bad artifact never aborts the rest of the cycle.
//
// lastSyncDate and serverDateTime are the host's invocation contract: the
// host passes the watermark it last advanced (or nil on its own first
// call) plus its current time. lastSyncDate, when non-nil, is always
// authoritative for this cycle's cutover; the engine's own local
// watermark is consulted only when the host passes nil, as a
// crash-recovery aid. serverDateTime is persisted as the new local
// watermark once the cycle completes.
func Run(ctx context.Context, cfg *config.Config, store mapping.Store, pmsc PMSClient, witsc WITSClient, logger *slog.Logger, lastSyncDate *time.Time, serverDateTime time.Time) (Status, error) {
	if err := pmsc.Authenticate(ctx); err != nil {
		return StatusError, engineerrors.Wrap("synccycle: authenticate", err)
	}
	if err := pmsc.ConnectToProject(ctx, cfg.ProjectID); err != nil {
		return StatusError, engineerrors.Wrap("synccycle: connect to project", err)
	}

	c, err := newCycle(ctx, cfg, store, pmsc, witsc, logger)
	if err != nil {
		return StatusError, err
	}

	since, err := c.resolveSince(ctx, lastSyncDate)
	if err != nil {
		return StatusError, err
	}

	c.runNewOnPMS(ctx, since)
	c.runNewOnWITS(ctx, since)
	c.runUpdated(ctx, since)

	if err := c.flush(ctx); err != nil {
		c.logger.Error("failed to flush mappings", "error", err)
		c.status = worse(c.status, StatusError)
	}

	if err := store.SetWatermark(ctx, serverDateTime.UTC().Format(time.RFC3339)); err != nil {
		c.logger.Warn("failed to persist local watermark", "error", err)
	}

	return c.status, nil
}

func newCycle(ctx context.Context, cfg *config.Config, store mapping.Store, pmsc PMSClient, witsc WITSClient, logger *slog.Logger) (*cycle, error) {
	projectMappings, err := store.ListProjectMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list project mappings: %w", err)
	}
	userMappings, err := store.ListUserMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list user mappings: %w", err)
	}

	priorityTable, err := store.ListFieldValueMappings(ctx, mapping.FieldPriority)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list priority mappings: %w", err)
	}
	severityTable, err := store.ListFieldValueMappings(ctx, mapping.FieldSeverity)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list severity mappings: %w", err)
	}
	statusTable, err := store.ListFieldValueMappings(ctx, mapping.FieldStatus)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list status mappings: %w", err)
	}
	typeTable, err := store.ListFieldValueMappings(ctx, mapping.FieldType)
	if err != nil {
		return nil, fmt.Errorf("synccycle: list type mappings: %w", err)
	}

	loc := time.FixedZone("wits-offset", cfg.TimeOffsetHours*3600)

	recs := iteration.New(logger, pmsc, witsc)
	recs.DurationDays = cfg.ReleaseDuration()
	recs.CreatorID = cfg.ReleaseCreator()
	recs.DryRun = cfg.DryRun

	userResolver := translate.NewUserResolver(logger, cfg.AutoMapUsers, witsc)

	c := &cycle{
		cfg:    cfg,
		store:  store,
		pmsc:   pmsc,
		witsc:  witsc,
		logger: logger,
		recs:   recs,

		incidentMappings: filterByType(projectMappings, mapping.ArtifactTypeIncident),
		taskMappings:     filterByType(projectMappings, mapping.ArtifactTypeTask),
		requirementMappings: filterByType(projectMappings, mapping.ArtifactTypeRequirement),
		releaseMappings:  filterByType(projectMappings, mapping.ArtifactTypeRelease),
		userMappings:     userMappings,

		priorityTable: priorityTable,
		severityTable: severityTable,
		statusTable:   statusTable,
		typeTable:     typeTable,

		taskTypes:        cfg.TaskTypeList(),
		requirementTypes: cfg.RequirementTypeList(),

		linkTables: linkbridge.LinkTables{
			IncidentArtifactTypeID:    mapping.ArtifactTypeIncident,
			TaskArtifactTypeID:        mapping.ArtifactTypeTask,
			RequirementArtifactTypeID: mapping.ArtifactTypeRequirement,
		},

		releaseNames: make(map[int]string),
		status:       StatusSuccess,
	}
	c.linkTables.Incidents = c.incidentMappings
	c.linkTables.Tasks = c.taskMappings
	c.linkTables.Requirements = c.requirementMappings

	c.proc = &processor.Context{
		Logger:          logger,
		PMS:             pmsc,
		WITS:            witsc,
		Users:           userResolver,
		Releases:        recs,
		Location:        loc,
		ProjectID:       cfg.ProjectID,
		WITSProject:     cfg.WITSProjectName,
		PMSBaseURL:      cfg.PMSBaseURL,
		TimeOffsetHours: cfg.TimeOffsetHours,
		ArtifactIDField: cfg.ArtifactIDField,
		OpenerField:     cfg.OpenerField,
		DryRun:          cfg.DryRun,
	}

	// Task custom-property definitions were historically fetched using
	// the Requirement artifact-type constant; UseCorrectTaskCustomPropertyType
	// opts into the fix.
	taskArtifactType := mapping.ArtifactTypeRequirement
	if cfg.UseCorrectTaskCustomPropertyType {
		taskArtifactType = mapping.ArtifactTypeTask
	}

	var buildErr error
	c.incidentCustomDefs, c.incidentCustomMap, c.incidentCustomCtx, buildErr = c.buildCustomPropertyState(ctx, mapping.ArtifactTypeIncident, loc, userMappings)
	if buildErr != nil {
		return nil, buildErr
	}
	c.taskCustomDefs, c.taskCustomMap, c.taskCustomCtx, buildErr = c.buildCustomPropertyState(ctx, taskArtifactType, loc, userMappings)
	if buildErr != nil {
		return nil, buildErr
	}
	c.reqCustomDefs, c.reqCustomMap, c.reqCustomCtx, buildErr = c.buildCustomPropertyState(ctx, mapping.ArtifactTypeRequirement, loc, userMappings)
	if buildErr != nil {
		return nil, buildErr
	}

	return c, nil
}

func (c *cycle) buildCustomPropertyState(ctx context.Context, artifactTypeID int, loc *time.Location, userMappings []mapping.UserMapping) ([]pms.CustomPropertyDefinition, []mapping.CustomPropertyMapping, *customprop.Context, error) {
	defs, err := c.pmsc.ListCustomPropertyDefinitions(ctx, artifactTypeID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("synccycle: list custom property definitions for artifact type %d: %w", artifactTypeID, err)
	}
	fieldMap, err := c.store.ListCustomPropertyMapping(ctx, artifactTypeID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("synccycle: list custom property field mapping for artifact type %d: %w", artifactTypeID, err)
	}
	var valueTable []mapping.CustomPropertyValueMapping
	for _, def := range defs {
		vt, err := c.store.ListCustomPropertyValueMappings(ctx, artifactTypeID, def.CustomPropertyID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("synccycle: list custom property value mappings for property %d: %w", def.CustomPropertyID, err)
		}
		valueTable = append(valueTable, vt...)
	}
	return defs, fieldMap, &customprop.Context{
		Logger:     c.logger,
		Location:   loc,
		ValueTable: valueTable,
		Users:      userMappings,
	}, nil
}

func filterByType(all []mapping.ArtifactMapping, artifactTypeID int) []mapping.ArtifactMapping {
	var out []mapping.ArtifactMapping
	for _, m := range all {
		if m.ArtifactTypeID == artifactTypeID {
			out = append(out, m)
		}
	}
	return out
}

// resolveSince returns the cutover time new-artifact/updated-artifact
// queries filter on. The host-supplied lastSyncDate is always
// authoritative when present; only when the host passes nil does the
// engine fall back to its own locally-persisted watermark (a
// crash-recovery aid, not a second source of truth).
func (c *cycle) resolveSince(ctx context.Context, lastSyncDate *time.Time) (time.Time, error) {
	if lastSyncDate != nil {
		return lastSyncDate.UTC(), nil
	}
	return c.loadWatermark(ctx)
}

// loadWatermark returns the engine's own local bookmark, falling back to
// the fixed sentinel date on the first-ever run (or an unparsable
// stored value) so nothing is missed; the query-cap narrowing in
// queryCreatedSince/queryChangedSince keeps this from trying to scan
// unbounded history in a single WITS query.
func (c *cycle) loadWatermark(ctx context.Context) (time.Time, error) {
	raw, err := c.store.GetWatermark(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("synccycle: get watermark: %w", err)
	}
	if raw == "" {
		return sentinelWatermark, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.logger.Warn("stored watermark unparsable, falling back to sentinel date", "error", err)
		return sentinelWatermark, nil
	}
	return t, nil
}

func workItemIDFromKey(externalKey string) (int, bool) {
	id, err := strconv.Atoi(externalKey)
	if err != nil {
		return 0, false
	}
	return id, true
}
