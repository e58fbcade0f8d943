package linkbridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// WITSLinkSource is the subset of the WITS surface C5 needs for the
// inbound (WITS->PMS) direction.
type WITSLinkSource interface {
	ListLinks(ctx context.Context, workItemID int) ([]Link, error)
	ListAttachments(ctx context.Context, workItemID int) ([]Attachment, error)
	DownloadAttachment(ctx context.Context, workItemID, attachmentID int) ([]byte, error)
}

// PMSAttachmentSink is the subset of the PMS surface C5 needs for the
// inbound direction.
type PMSAttachmentSink interface {
	CreateURLAttachment(ctx context.Context, artifactTypeID, internalID int, url string) error
	UploadAttachmentFile(ctx context.Context, artifactTypeID, internalID int, name, path string) error
	CreateAssociation(ctx context.Context, assoc Association) error
}

// LinkTables gives Inbound the mapping lists it needs to resolve a WITS
// related-work-item link back to a known PMS artifact, one per artifact
// kind (incident/task/requirement).
type LinkTables struct {
	IncidentArtifactTypeID, TaskArtifactTypeID, RequirementArtifactTypeID int
	Incidents, Tasks, Requirements                                       []mapping.ArtifactMapping
}

// Inbound pulls every link and attachment off a WITS work item and
// reflects it onto the mapped PMS artifact: hyperlinks become URL
// attachments, file attachments are downloaded and re-uploaded,
// related/work-item links become typed associations once both ends map.
func Inbound(ctx context.Context, logger *slog.Logger, wits WITSLinkSource, pms PMSAttachmentSink, artifactTypeID, internalID, workItemID int, tables LinkTables) error {
	links, err := wits.ListLinks(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("linkbridge: list links: %w", err)
	}
	for _, l := range links {
		processInboundLink(ctx, logger, pms, artifactTypeID, internalID, l, tables)
	}

	attachments, err := wits.ListAttachments(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("linkbridge: list attachments: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for _, a := range attachments {
		a := a
		g.Go(func() error {
			transferOneInbound(gctx, logger, wits, pms, artifactTypeID, internalID, workItemID, a)
			return nil
		})
	}
	return g.Wait()
}

func processInboundLink(ctx context.Context, logger *slog.Logger, pms PMSAttachmentSink, artifactTypeID, internalID int, l Link, tables LinkTables) {
	switch l.Kind {
	case LinkHyperlink:
		if err := pms.CreateURLAttachment(ctx, artifactTypeID, internalID, l.URL); err != nil && logger != nil {
			logger.Warn("failed to create URL attachment, continuing", "error", err, "url", l.URL)
		}
	case LinkRelatedWorkItem, LinkWorkItem:
		target, targetTypeID, ok := resolveLinkTarget(l.TargetID, tables)
		if !ok {
			return
		}
		assoc := Association{
			SourceArtifactTypeID: artifactTypeID,
			SourceInternalID:     internalID,
			TargetArtifactTypeID: targetTypeID,
			TargetInternalID:     target,
		}
		if err := pms.CreateAssociation(ctx, assoc); err != nil && logger != nil {
			logger.Warn("failed to create association, continuing", "error", err)
		}
	}
}

// resolveLinkTarget looks up targetWorkItemID across the three known
// artifact kinds, returning the first match.
func resolveLinkTarget(targetWorkItemID int, tables LinkTables) (internalID int, artifactTypeID int, ok bool) {
	key := fmt.Sprintf("%d", targetWorkItemID)
	if m := mapping.FindByExternalKeyScoped(key, tables.Incidents, true); m != nil {
		return m.InternalID, tables.IncidentArtifactTypeID, true
	}
	if m := mapping.FindByExternalKeyScoped(key, tables.Tasks, true); m != nil {
		return m.InternalID, tables.TaskArtifactTypeID, true
	}
	if m := mapping.FindByExternalKeyScoped(key, tables.Requirements, true); m != nil {
		return m.InternalID, tables.RequirementArtifactTypeID, true
	}
	return 0, 0, false
}

func transferOneInbound(ctx context.Context, logger *slog.Logger, wits WITSLinkSource, pms PMSAttachmentSink, artifactTypeID, internalID, workItemID int, a Attachment) {
	data, err := wits.DownloadAttachment(ctx, workItemID, a.ID)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to download WITS attachment, continuing", "error", err, "attachment_id", a.ID)
		}
		return
	}

	dir, err := os.MkdirTemp("", "syncengine-attach-*")
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create temp dir for attachment, continuing", "error", err)
		}
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		if logger != nil {
			logger.Warn("failed to write temp attachment file, continuing", "error", err)
		}
		return
	}

	if err := pms.UploadAttachmentFile(ctx, artifactTypeID, internalID, a.Name, path); err != nil && logger != nil {
		logger.Warn("attachment upload to PMS failed, continuing", "error", err, "attachment_id", a.ID)
	}
}
