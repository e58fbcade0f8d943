package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetTask fetches a single task by id, the current-state snapshot
// merge-update diffs proposed field changes against.
func (c *Client) GetTask(ctx context.Context, projectID, taskID int) (Task, error) {
	var task Task
	if err := c.getArtifact(ctx, projectID, "tasks", taskID, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// CreateTask creates a PMS task, used by create-inbound for WITS work
// items classified as a task type.
func (c *Client) CreateTask(ctx context.Context, projectID int, fields map[string]interface{}) (int, error) {
	return c.createArtifact(ctx, projectID, "tasks", fields)
}

// UpdateTask applies a partial field update to an existing task.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID int, fields map[string]interface{}) error {
	return c.updateArtifact(ctx, projectID, "tasks", taskID, fields)
}

// GetRequirement fetches a single requirement by id, the current-state
// snapshot merge-update diffs proposed field changes against.
func (c *Client) GetRequirement(ctx context.Context, projectID, requirementID int) (Requirement, error) {
	var requirement Requirement
	if err := c.getArtifact(ctx, projectID, "requirements", requirementID, &requirement); err != nil {
		return Requirement{}, err
	}
	return requirement, nil
}

// CreateRequirement creates a PMS requirement, used by create-inbound for
// WITS work items classified as a requirement type.
func (c *Client) CreateRequirement(ctx context.Context, projectID int, fields map[string]interface{}) (int, error) {
	return c.createArtifact(ctx, projectID, "requirements", fields)
}

// UpdateRequirement applies a partial field update to an existing
// requirement.
func (c *Client) UpdateRequirement(ctx context.Context, projectID, requirementID int, fields map[string]interface{}) error {
	return c.updateArtifact(ctx, projectID, "requirements", requirementID, fields)
}

func (c *Client) getArtifact(ctx context.Context, projectID int, kind string, id int, out interface{}) error {
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/%s/%d", c.Endpoint, projectID, kind, id)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("pms: get %s %d: %w", kind, id, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("pms: parse %s response: %w", kind, err)
	}
	return nil
}

func (c *Client) createArtifact(ctx context.Context, projectID int, kind string, fields map[string]interface{}) (int, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("pms: marshal %s: %w", kind, err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/%s", c.Endpoint, projectID, kind)
	body, err := c.doRequest(ctx, http.MethodPost, apiURL, data)
	if err != nil {
		return 0, fmt.Errorf("pms: create %s: %w", kind, err)
	}
	var created struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("pms: parse create %s response: %w", kind, err)
	}
	return created.ID, nil
}

func (c *Client) updateArtifact(ctx context.Context, projectID int, kind string, id int, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("pms: marshal %s update: %w", kind, err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/%s/%d", c.Endpoint, projectID, kind, id)
	if _, err := c.doRequest(ctx, http.MethodPut, apiURL, data); err != nil {
		return fmt.Errorf("pms: update %s %d: %w", kind, id, err)
	}
	return nil
}
