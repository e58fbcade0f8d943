package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ListIncidentsCreatedSince lists incidents created on or after since,
// used by P1 (new-on-PMS).
func (c *Client) ListIncidentsCreatedSince(ctx context.Context, projectID int, since time.Time) ([]Incident, error) {
	params := url.Values{"creationDate_gte": {since.UTC().Format(time.RFC3339)}}
	return c.listIncidents(ctx, projectID, params)
}

// ListIncidentsUpdatedSince lists incidents whose lastUpdateDate is on or
// after since but whose creationDate is strictly before excludeCreatedAt,
// used by P3 to exclude incidents already handled in P1.
func (c *Client) ListIncidentsUpdatedSince(ctx context.Context, projectID int, since, excludeCreatedAt time.Time) ([]Incident, error) {
	params := url.Values{
		"lastUpdateDate_gte": {since.UTC().Format(time.RFC3339)},
		"creationDate_lt":    {excludeCreatedAt.UTC().Format(time.RFC3339)},
	}
	return c.listIncidents(ctx, projectID, params)
}

func (c *Client) listIncidents(ctx context.Context, projectID int, params url.Values) ([]Incident, error) {
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/incidents?%s", c.Endpoint, projectID, params.Encode())
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: list incidents: %w", err)
	}
	var incidents []Incident
	if err := json.Unmarshal(body, &incidents); err != nil {
		return nil, fmt.Errorf("pms: parse incidents response: %w", err)
	}
	return incidents, nil
}

// GetIncident fetches a single incident by id.
func (c *Client) GetIncident(ctx context.Context, projectID, incidentID int) (Incident, error) {
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/incidents/%d", c.Endpoint, projectID, incidentID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Incident{}, fmt.Errorf("pms: get incident %d: %w", incidentID, err)
	}
	var incident Incident
	if err := json.Unmarshal(body, &incident); err != nil {
		return Incident{}, fmt.Errorf("pms: parse incident response: %w", err)
	}
	return incident, nil
}

// CreateIncident creates a new incident on the PMS side directly.
func (c *Client) CreateIncident(ctx context.Context, projectID int, fields map[string]interface{}) (int, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("pms: marshal incident: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/incidents", c.Endpoint, projectID)
	body, err := c.doRequest(ctx, http.MethodPost, apiURL, data)
	if err != nil {
		return 0, fmt.Errorf("pms: create incident: %w", err)
	}
	var created struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("pms: parse create incident response: %w", err)
	}
	return created.ID, nil
}

// UpdateIncident applies a partial field update to an existing incident.
func (c *Client) UpdateIncident(ctx context.Context, projectID, incidentID int, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("pms: marshal incident update: %w", err)
	}
	apiURL := fmt.Sprintf("%s/api/v1/projects/%d/incidents/%d", c.Endpoint, projectID, incidentID)
	_, err = c.doRequest(ctx, http.MethodPut, apiURL, data)
	if err != nil {
		return fmt.Errorf("pms: update incident %d: %w", incidentID, err)
	}
	return nil
}
