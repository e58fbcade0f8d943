package wits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
)

var (
	_ linkbridge.WITSAttachmentSink = (*Client)(nil)
	_ linkbridge.WITSLinkSource     = (*Client)(nil)
)

type relationsEnvelope struct {
	Relations []relation `json:"relations"`
}

type relation struct {
	Rel        string            `json:"rel"`
	URL        string            `json:"url"`
	Attributes map[string]string `json:"attributes"`
}

// AddHyperlink attaches a hyperlink relation pointing at url to the work
// item, satisfying linkbridge.WITSAttachmentSink.
func (c *Client) AddHyperlink(ctx context.Context, workItemID int, url string) error {
	ops := []PatchOperation{
		{
			Op:   "add",
			Path: "/relations/-",
			Value: map[string]interface{}{
				"rel": "Hyperlink",
				"url": url,
			},
		},
	}
	_, err := c.UpdateWorkItem(ctx, workItemID, ops)
	if err != nil {
		return fmt.Errorf("wits: add hyperlink to %d: %w", workItemID, err)
	}
	return nil
}

// UploadAttachmentFile uploads the file at path as a new attachment,
// then links it to the work item, satisfying
// linkbridge.WITSAttachmentSink.
func (c *Client) UploadAttachmentFile(ctx context.Context, workItemID int, name, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is a temp file the caller created itself
	if err != nil {
		return fmt.Errorf("wits: read attachment file %s: %w", path, err)
	}
	uploadURL := fmt.Sprintf("%s/_apis/wit/attachments?fileName=%s", c.Endpoint, name)
	respBody, err := c.doRequestWithContentType(ctx, http.MethodPost, uploadURL, data, "application/octet-stream")
	if err != nil {
		return fmt.Errorf("wits: upload attachment %s: %w", name, err)
	}
	var uploaded struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return fmt.Errorf("wits: parse attachment upload response: %w", err)
	}
	ops := []PatchOperation{
		{
			Op:   "add",
			Path: "/relations/-",
			Value: map[string]interface{}{
				"rel": "AttachedFile",
				"url": uploaded.URL,
				"attributes": map[string]string{
					"comment": name,
				},
			},
		},
	}
	if _, err := c.UpdateWorkItem(ctx, workItemID, ops); err != nil {
		return fmt.Errorf("wits: link attachment to %d: %w", workItemID, err)
	}
	return nil
}

// ListLinks returns the hyperlink and related-work-item relations on a
// work item, satisfying linkbridge.WITSLinkSource.
func (c *Client) ListLinks(ctx context.Context, workItemID int) ([]linkbridge.Link, error) {
	wi, ok, err := c.GetWorkItem(ctx, workItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	url := fmt.Sprintf("%s/_apis/wit/workitems/%d?$expand=relations", c.Endpoint, wi.ID)
	respBody, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wits: get relations for %d: %w", workItemID, err)
	}
	var env relationsEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("wits: parse relations response: %w", err)
	}
	var links []linkbridge.Link
	for _, r := range env.Relations {
		switch r.Rel {
		case "Hyperlink":
			links = append(links, linkbridge.Link{Kind: linkbridge.LinkHyperlink, URL: r.URL})
		case "System.LinkTypes.Related", "System.LinkTypes.Related-Forward", "System.LinkTypes.Related-Reverse":
			if id, ok := parseWorkItemIDFromURL(r.URL); ok {
				links = append(links, linkbridge.Link{Kind: linkbridge.LinkRelatedWorkItem, TargetID: id})
			}
		}
	}
	return links, nil
}

// ListAttachments returns the file attachments (AttachedFile relations)
// on a work item, satisfying linkbridge.WITSLinkSource.
func (c *Client) ListAttachments(ctx context.Context, workItemID int) ([]linkbridge.Attachment, error) {
	url := fmt.Sprintf("%s/_apis/wit/workitems/%d?$expand=relations", c.Endpoint, workItemID)
	respBody, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wits: get relations for %d: %w", workItemID, err)
	}
	var env relationsEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("wits: parse relations response: %w", err)
	}
	var out []linkbridge.Attachment
	for i, r := range env.Relations {
		if r.Rel != "AttachedFile" {
			continue
		}
		out = append(out, linkbridge.Attachment{
			ID:   i,
			Name: r.Attributes["comment"],
			URL:  r.URL,
		})
	}
	return out, nil
}

// DownloadAttachment fetches the bytes of a previously-listed attachment
// by its relation URL, satisfying linkbridge.WITSLinkSource. attachmentID
// is the index ListAttachments assigned; callers must re-list before
// downloading if the work item may have changed since.
func (c *Client) DownloadAttachment(ctx context.Context, workItemID, attachmentID int) ([]byte, error) {
	attachments, err := c.ListAttachments(ctx, workItemID)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		if a.ID != attachmentID {
			continue
		}
		respBody, err := c.doRequest(ctx, http.MethodGet, a.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("wits: download attachment %d: %w", attachmentID, err)
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("wits: attachment %d not found on work item %d", attachmentID, workItemID)
}

// parseWorkItemIDFromURL extracts the trailing numeric id from a work
// item REST URL such as ".../_apis/wit/workItems/42".
func parseWorkItemIDFromURL(url string) (int, bool) {
	tail := url[strings.LastIndex(url, "/")+1:]
	id, err := strconv.Atoi(tail)
	if err != nil {
		return 0, false
	}
	return id, true
}
