package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListCustomPropertyDefinitions returns the custom-property slot
// definitions for an artifact type.
func (c *Client) ListCustomPropertyDefinitions(ctx context.Context, artifactTypeID int) ([]CustomPropertyDefinition, error) {
	apiURL := fmt.Sprintf("%s/api/v1/artifact-types/%d/custom-properties", c.Endpoint, artifactTypeID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: list custom property definitions: %w", err)
	}
	var defs []CustomPropertyDefinition
	if err := json.Unmarshal(body, &defs); err != nil {
		return nil, fmt.Errorf("pms: parse custom property definitions response: %w", err)
	}
	return defs, nil
}
