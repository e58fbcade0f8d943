package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// ListComments returns an artifact's comments sorted by creation date
// ascending.
func (c *Client) ListComments(ctx context.Context, artifactTypeID, internalID int) ([]Comment, error) {
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/comments", c.Endpoint, artifactTypeID, internalID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: list comments: %w", err)
	}
	var comments []Comment
	if err := json.Unmarshal(body, &comments); err != nil {
		return nil, fmt.Errorf("pms: parse comments response: %w", err)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreationDate.Before(comments[j].CreationDate)
	})
	return comments, nil
}

// CreateComment adds a comment to a PMS artifact.
func (c *Client) CreateComment(ctx context.Context, artifactTypeID, internalID int, comment Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("pms: marshal comment: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/artifacts/%d/%d/comments", c.Endpoint, artifactTypeID, internalID)
	if _, err := c.doRequest(ctx, http.MethodPost, apiURL, data); err != nil {
		return fmt.Errorf("pms: create comment: %w", err)
	}
	return nil
}
