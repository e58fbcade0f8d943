package wits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type wiqlResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type batchResult struct {
	Value []WorkItem `json:"value"`
}

// rawFieldsEnvelope captures the "fields" object generically alongside
// the typed decode, since dynamically-named fields have no home in
// WorkItemFields.
type rawFieldsEnvelope struct {
	Fields map[string]interface{} `json:"fields"`
}

// parseWorkItem decodes body into a WorkItem with RawFields populated.
func parseWorkItem(body []byte) (WorkItem, error) {
	var wi WorkItem
	if err := json.Unmarshal(body, &wi); err != nil {
		return WorkItem{}, err
	}
	var raw rawFieldsEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return WorkItem{}, err
	}
	wi.RawFields = raw.Fields
	return wi, nil
}

// rawBatchResult mirrors batchResult but decodes each item's "fields"
// object generically, for RawFields population.
type rawBatchResult struct {
	Value []rawFieldsEnvelope `json:"value"`
}

func attachRawFields(items []WorkItem, body []byte) ([]WorkItem, error) {
	var raw rawBatchResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	for i := range items {
		if i < len(raw.Value) {
			items[i].RawFields = raw.Value[i].Fields
		}
	}
	return items, nil
}

// QueryCreatedSince returns every work item in project created at or
// after since, using the System.CreatedDate query dialect. The caller is
// responsible for recognizing a result-cap error (engineerrors.
// IsQueryCapExceeded) and retrying with a narrower window.
func (c *Client) QueryCreatedSince(ctx context.Context, project string, since time.Time) ([]WorkItem, error) {
	return c.runQuery(ctx, filterCreatedDate, project, since)
}

// QueryChangedSince returns every work item in project last changed at
// or after since, using the System.ChangedDate query dialect.
func (c *Client) QueryChangedSince(ctx context.Context, project string, since time.Time) ([]WorkItem, error) {
	return c.runQuery(ctx, filterChangedDate, project, since)
}

func (c *Client) runQuery(ctx context.Context, field dateFilterField, project string, since time.Time) ([]WorkItem, error) {
	query := buildWIQL(field, project, since)
	body, err := wiqlRequestBody(query)
	if err != nil {
		return nil, err
	}
	respBody, err := c.doRequest(ctx, http.MethodPost, wiqlBatchIDsURL(c.Endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("wits: wiql query: %w", err)
	}
	var wiql wiqlResult
	if err := json.Unmarshal(respBody, &wiql); err != nil {
		return nil, fmt.Errorf("wits: parse wiql response: %w", err)
	}
	if len(wiql.WorkItems) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(wiql.WorkItems))
	for _, wi := range wiql.WorkItems {
		ids = append(ids, wi.ID)
	}
	return c.getWorkItemsBatch(ctx, ids)
}

func (c *Client) getWorkItemsBatch(ctx context.Context, ids []int) ([]WorkItem, error) {
	payload := map[string]interface{}{"ids": ids, "$expand": "all"}
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/_apis/wit/workitemsbatch", c.Endpoint)
	respBody, err := c.doRequest(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("wits: batch get work items: %w", err)
	}
	var result batchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("wits: parse batch response: %w", err)
	}
	items, err := attachRawFields(result.Value, respBody)
	if err != nil {
		return nil, fmt.Errorf("wits: parse batch response fields: %w", err)
	}
	return items, nil
}

// GetWorkItem fetches a single work item by id. A 404 is reported as
// (zero, false, nil) rather than an error.
func (c *Client) GetWorkItem(ctx context.Context, id int) (WorkItem, bool, error) {
	url := fmt.Sprintf("%s/_apis/wit/workitems/%d?$expand=all", c.Endpoint, id)
	respBody, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if errors.Is(err, errNotFound) {
		return WorkItem{}, false, nil
	}
	if err != nil {
		return WorkItem{}, false, fmt.Errorf("wits: get work item %d: %w", id, err)
	}
	wi, err := parseWorkItem(respBody)
	if err != nil {
		return WorkItem{}, false, fmt.Errorf("wits: parse work item response: %w", err)
	}
	return wi, true, nil
}

// CreateWorkItem creates a new work item of workItemType with the given
// field patch ops and returns the created item. Callers building an
// incident outbound must save in a default state first and issue a
// separate SetState call afterward; the WITS state machine forbids
// arbitrary initial transitions.
func (c *Client) CreateWorkItem(ctx context.Context, workItemType string, ops []PatchOperation) (WorkItem, error) {
	body, err := jsonBody(ops)
	if err != nil {
		return WorkItem{}, err
	}
	url := fmt.Sprintf("%s/_apis/wit/workitems/$%s", c.Endpoint, workItemType)
	respBody, err := c.doRequestWithContentType(ctx, http.MethodPost, url, body, "application/json-patch+json")
	if err != nil {
		return WorkItem{}, fmt.Errorf("wits: create work item: %w", err)
	}
	wi, err := parseWorkItem(respBody)
	if err != nil {
		return WorkItem{}, fmt.Errorf("wits: parse create response: %w", err)
	}
	return wi, nil
}

// UpdateWorkItem applies ops to an existing work item and returns the
// updated item.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, ops []PatchOperation) (WorkItem, error) {
	body, err := jsonBody(ops)
	if err != nil {
		return WorkItem{}, err
	}
	url := fmt.Sprintf("%s/_apis/wit/workitems/%d", c.Endpoint, id)
	respBody, err := c.doRequestWithContentType(ctx, http.MethodPatch, url, body, "application/json-patch+json")
	if err != nil {
		return WorkItem{}, fmt.Errorf("wits: update work item %d: %w", id, err)
	}
	wi, err := parseWorkItem(respBody)
	if err != nil {
		return WorkItem{}, fmt.Errorf("wits: parse update response: %w", err)
	}
	return wi, nil
}

// SetState issues the second of the two mandatory saves when creating a
// work item: the item is first saved in its type's default state, then
// state/reason are set in a follow-up save.
func (c *Client) SetState(ctx context.Context, id int, state, reason string) (WorkItem, error) {
	ops := []PatchOperation{
		{Op: "add", Path: "/fields/System.State", Value: state},
	}
	if reason != "" {
		ops = append(ops, PatchOperation{Op: "add", Path: "/fields/System.Reason", Value: reason})
	}
	return c.UpdateWorkItem(ctx, id, ops)
}

// GetRevisions returns every historical revision of a work item, used to
// mine History entries for comment reconciliation.
func (c *Client) GetRevisions(ctx context.Context, id int) ([]Revision, error) {
	url := fmt.Sprintf("%s/_apis/wit/workitems/%d/revisions", c.Endpoint, id)
	respBody, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wits: get revisions for %d: %w", id, err)
	}
	var result struct {
		Value []Revision `json:"value"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("wits: parse revisions response: %w", err)
	}
	return result.Value, nil
}
