package iteration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// PMSClient is the subset of the PMS surface the reconciler needs.
type PMSClient interface {
	CreateRelease(ctx context.Context, projectID int, name, version string, start, end time.Time) (Release, error)
}

// WITSClient is the subset of the WITS surface the reconciler needs.
// CreateIterationNode may return before the new node is visible through
// the tree-read path; FindIterationNode is polled until the new node
// appears.
type WITSClient interface {
	CreateIterationNode(ctx context.Context, projectID int, name string) error
	FindIterationNode(ctx context.Context, projectID int, name string) (IterationNode, bool, error)
}

// Reconciler resolves releases/iterations bidirectionally, creating the
// missing side and recording the mapping for phase-boundary flush.
type Reconciler struct {
	logger *slog.Logger
	pms    PMSClient
	wits   WITSClient

	// DurationDays overrides DefaultDurationDays for auto-created PMS
	// releases.
	DurationDays int
	// CreatorID holds the configured creator id for auto-created PMS
	// releases. It is not passed to PMSClient.CreateRelease, so releases
	// the reconciler creates carry no creator id set by the engine.
	CreatorID int
	// DryRun, when true, skips the actual CreateIterationNode/
	// CreateRelease calls (and the mapping that would record them),
	// returning a hypothetical value for a side not yet mapped.
	DryRun bool

	newMappings []mapping.ArtifactMapping
}

// New constructs a Reconciler.
func New(logger *slog.Logger, pms PMSClient, wits WITSClient) *Reconciler {
	return &Reconciler{
		logger:       logger,
		pms:          pms,
		wits:         wits,
		DurationDays: DefaultDurationDays,
	}
}

// NewMappings drains the auto-created mappings accumulated since the
// last flush, for persistence at phase boundaries.
func (r *Reconciler) NewMappings() []mapping.ArtifactMapping {
	out := r.newMappings
	r.newMappings = nil
	return out
}

// ResolveReleaseToIteration returns the WITS iteration id mapped to the
// given PMS release, creating the iteration (and its mapping) if none
// exists yet.
func (r *Reconciler) ResolveReleaseToIteration(ctx context.Context, projectID, releaseID int, releaseName string, known []mapping.ArtifactMapping) (string, error) {
	if m := mapping.FindByInternalIDScoped(releaseID, known); m != nil {
		return m.ExternalKey, nil
	}

	name := StripReservedChars(releaseName)

	if r.DryRun {
		r.logger.Info("dry run: would create WITS iteration node", "release_id", releaseID, "name", name)
		return "", nil
	}

	if err := r.wits.CreateIterationNode(ctx, projectID, name); err != nil {
		return "", fmt.Errorf("iteration: create iteration node: %w", err)
	}

	node, err := r.awaitIterationVisible(ctx, projectID, name)
	if err != nil {
		return "", fmt.Errorf("iteration: await iteration visibility: %w", err)
	}

	externalKey := strconv.Itoa(node.ID)
	r.newMappings = append(r.newMappings, mapping.ArtifactMapping{
		ProjectID:      projectID,
		ArtifactTypeID: mapping.ArtifactTypeRelease,
		InternalID:     releaseID,
		ExternalKey:    externalKey,
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	})
	return externalKey, nil
}

// ResolveIterationToRelease returns the PMS release id mapped to the
// given WITS iteration, auto-creating the release if none exists yet.
func (r *Reconciler) ResolveIterationToRelease(ctx context.Context, projectID int, iterationID int, iterationName string, known []mapping.ArtifactMapping) (int, error) {
	externalKey := strconv.Itoa(iterationID)
	if m := mapping.FindByExternalKeyScoped(externalKey, known, true); m != nil {
		return m.InternalID, nil
	}

	if r.DryRun {
		r.logger.Info("dry run: would create PMS release", "iteration_id", iterationID, "name", iterationName)
		return 0, nil
	}

	start, end := releaseWindow(time.Now(), r.durationDays())
	release, err := r.pms.CreateRelease(ctx, projectID, iterationName, versionFromIterationID(iterationID), start, end)
	if err != nil {
		return 0, fmt.Errorf("iteration: create release: %w", err)
	}

	r.newMappings = append(r.newMappings, mapping.ArtifactMapping{
		ProjectID:      projectID,
		ArtifactTypeID: mapping.ArtifactTypeRelease,
		InternalID:     release.ID,
		ExternalKey:    externalKey,
		Primary:        true,
		CreatedAt:      time.Now().UTC(),
	})
	return release.ID, nil
}

func (r *Reconciler) durationDays() int {
	if r.DurationDays <= 0 {
		return DefaultDurationDays
	}
	return r.DurationDays
}

// newIterationVisibilityBackoff is an exponential backoff capped by a
// fixed MaxElapsedTime, sized for eventual-consistency lag on the
// structure service rather than transient connection errors.
func newIterationVisibilityBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	return bo
}

// awaitIterationVisible polls the iteration tree until the newly-created
// node appears. A non-retryable rejection from the structure service is
// wrapped in backoff.Permanent to stop immediately instead of exhausting
// the window.
func (r *Reconciler) awaitIterationVisible(ctx context.Context, projectID int, name string) (IterationNode, error) {
	var found IterationNode
	bo := newIterationVisibilityBackoff()
	err := backoff.Retry(func() error {
		node, ok, err := r.wits.FindIterationNode(ctx, projectID, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return fmt.Errorf("iteration node %q not yet visible", name)
		}
		found = node
		return nil
	}, backoff.WithContext(bo, ctx))
	return found, err
}
