package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
)

// CreateAssociation creates a typed cross-artifact association, satisfying
// linkbridge.PMSAttachmentSink.
func (c *Client) CreateAssociation(ctx context.Context, assoc linkbridge.Association) error {
	payload := map[string]interface{}{
		"source_artifact_type_id": assoc.SourceArtifactTypeID,
		"source_internal_id":      assoc.SourceInternalID,
		"target_artifact_type_id": assoc.TargetArtifactTypeID,
		"target_internal_id":      assoc.TargetInternalID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pms: marshal association: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/associations", c.Endpoint)
	if _, err := c.doRequest(ctx, http.MethodPost, apiURL, data); err != nil {
		return fmt.Errorf("pms: create association: %w", err)
	}
	return nil
}
