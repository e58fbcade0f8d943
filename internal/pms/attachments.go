package pms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
)

// ListAttachments lists an artifact's attachments, satisfying
// linkbridge.PMSAttachmentSource.
func (c *Client) ListAttachments(ctx context.Context, artifactTypeID, internalID int) ([]linkbridge.Attachment, error) {
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/attachments", c.Endpoint, artifactTypeID, internalID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: list attachments: %w", err)
	}
	var attachments []linkbridge.Attachment
	if err := json.Unmarshal(body, &attachments); err != nil {
		return nil, fmt.Errorf("pms: parse attachments response: %w", err)
	}
	return attachments, nil
}

// FetchAttachmentBytes downloads one attachment's content, satisfying
// linkbridge.PMSAttachmentSource.
func (c *Client) FetchAttachmentBytes(ctx context.Context, artifactTypeID, internalID, attachmentID int) ([]byte, error) {
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/attachments/%d/content", c.Endpoint, artifactTypeID, internalID, attachmentID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: fetch attachment %d: %w", attachmentID, err)
	}
	var result struct {
		Content string `json:"content_base64"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("pms: parse attachment content response: %w", err)
	}
	return base64.StdEncoding.DecodeString(result.Content)
}

// CreateURLAttachment records a hyperlink as a URL-kind attachment on a
// PMS artifact, satisfying linkbridge.PMSAttachmentSink.
func (c *Client) CreateURLAttachment(ctx context.Context, artifactTypeID, internalID int, url string) error {
	payload := map[string]interface{}{"is_url": true, "url": url}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pms: marshal URL attachment: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/attachments", c.Endpoint, artifactTypeID, internalID)
	if _, err := c.doRequest(ctx, http.MethodPost, apiURL, data); err != nil {
		return fmt.Errorf("pms: create URL attachment: %w", err)
	}
	return nil
}

// UploadAttachmentFile reads path and uploads it as a named attachment,
// satisfying linkbridge.PMSAttachmentSink.
func (c *Client) UploadAttachmentFile(ctx context.Context, artifactTypeID, internalID int, name, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is an engine-managed temp file
	if err != nil {
		return fmt.Errorf("pms: read attachment file: %w", err)
	}
	payload := map[string]interface{}{
		"name":           name,
		"content_base64": base64.StdEncoding.EncodeToString(data),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pms: marshal attachment upload: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/attachments", c.Endpoint, artifactTypeID, internalID)
	if _, err := c.doRequest(ctx, http.MethodPost, apiURL, body); err != nil {
		return fmt.Errorf("pms: upload attachment: %w", err)
	}
	return nil
}
