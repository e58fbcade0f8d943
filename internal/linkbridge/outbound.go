package linkbridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// PMSAttachmentSource is the subset of the PMS surface C5 needs for the
// outbound (PMS->WITS) direction.
type PMSAttachmentSource interface {
	ListAttachments(ctx context.Context, artifactTypeID, internalID int) ([]Attachment, error)
	FetchAttachmentBytes(ctx context.Context, artifactTypeID, internalID, attachmentID int) ([]byte, error)
}

// WITSAttachmentSink is the subset of the WITS surface C5 needs for the
// outbound direction.
type WITSAttachmentSink interface {
	UploadAttachmentFile(ctx context.Context, workItemID int, name, path string) error
	AddHyperlink(ctx context.Context, workItemID int, url string) error
}

// Outbound transfers every attachment on a PMS artifact to the mapped
// WITS work item: file attachments are materialized to a temp file and
// uploaded, URL attachments become hyperlinks. A failure to list the
// attachments is returned as an error; a failure on any single
// attachment is logged and never returned.
func Outbound(ctx context.Context, logger *slog.Logger, pms PMSAttachmentSource, wits WITSAttachmentSink, artifactTypeID, internalID, workItemID int) error {
	attachments, err := pms.ListAttachments(ctx, artifactTypeID, internalID)
	if err != nil {
		return fmt.Errorf("linkbridge: list attachments: %w", err)
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].ID < attachments[j].ID })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)

	for _, a := range attachments {
		a := a
		g.Go(func() error {
			transferOneOutbound(gctx, logger, pms, wits, artifactTypeID, internalID, workItemID, a)
			return nil
		})
	}
	return g.Wait()
}

func transferOneOutbound(ctx context.Context, logger *slog.Logger, pms PMSAttachmentSource, wits WITSAttachmentSink, artifactTypeID, internalID, workItemID int, a Attachment) {
	if a.IsURL {
		if err := wits.AddHyperlink(ctx, workItemID, a.URL); err != nil && logger != nil {
			logger.Warn("failed to add hyperlink, continuing", "error", err, "url", a.URL)
		}
		return
	}

	data, err := pms.FetchAttachmentBytes(ctx, artifactTypeID, internalID, a.ID)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to fetch attachment bytes, continuing", "error", err, "attachment_id", a.ID)
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

	if err := wits.UploadAttachmentFile(ctx, workItemID, a.Name, path); err != nil && logger != nil {
		logger.Warn("attachment upload failed, continuing", "error", err, "attachment_id", a.ID, "name", a.Name)
	}
}
