package wits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/syncbridge/pms-wits-sync/internal/translate"
)

var _ translate.UserLookup = (*Client)(nil)

// LookupDisplayNameByLogin resolves a WITS identity's display name from
// its login, satisfying translate.UserLookup for the auto-map-users
// fallback path.
func (c *Client) LookupDisplayNameByLogin(ctx context.Context, login string) (string, bool, error) {
	apiURL := fmt.Sprintf("%s/_apis/identities?searchFilter=AccountName&filterValue=%s", c.Endpoint, url.QueryEscape(login))
	respBody, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("wits: lookup identity %q: %w", login, err)
	}
	var result struct {
		Value []User `json:"value"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", false, fmt.Errorf("wits: parse identity response: %w", err)
	}
	if len(result.Value) == 0 {
		return "", false, nil
	}
	return result.Value[0].DisplayName, true, nil
}
