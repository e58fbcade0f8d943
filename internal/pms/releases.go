package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
)

// GetRelease fetches a single release by id, used to resolve the
// iteration name for a release that isn't mapped to WITS yet.
func (c *Client) GetRelease(ctx context.Context, projectID, releaseID int) (Release, error) {
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/releases/%d", c.Endpoint, projectID, releaseID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Release{}, fmt.Errorf("pms: get release %d: %w", releaseID, err)
	}
	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return Release{}, fmt.Errorf("pms: parse release response: %w", err)
	}
	return release, nil
}

// CreateRelease creates a PMS release, satisfying iteration.PMSClient.
func (c *Client) CreateRelease(ctx context.Context, projectID int, name, version string, start, end time.Time) (iteration.Release, error) {
	payload := map[string]interface{}{
		"name":    name,
		"version": version,
		"start":   start.UTC().Format(time.RFC3339),
		"end":     end.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return iteration.Release{}, fmt.Errorf("pms: marshal release: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/releases", c.Endpoint, projectID)
	body, err := c.doRequest(ctx, http.MethodPost, apiURL, data)
	if err != nil {
		return iteration.Release{}, fmt.Errorf("pms: create release: %w", err)
	}
	var created struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return iteration.Release{}, fmt.Errorf("pms: parse create release response: %w", err)
	}
	return iteration.Release{ProjectID: projectID, ID: created.ID, Name: name}, nil
}
