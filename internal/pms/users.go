package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GetUserByID fetches a PMS user by internal id.
func (c *Client) GetUserByID(ctx context.Context, userID int) (User, error) {
	apiURL := fmt.Sprintf("%s/api/v1/users/%d", c.Endpoint, userID)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return User{}, fmt.Errorf("pms: get user %d: %w", userID, err)
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("pms: parse user response: %w", err)
	}
	return u, nil
}

// GetUserByLogin fetches a PMS user by login name, used by the auto-map
// users lookup path.
func (c *Client) GetUserByLogin(ctx context.Context, login string) (User, bool, error) {
	apiURL := fmt.Sprintf("%s/api/v1/users?login=%s", c.Endpoint, url.QueryEscape(login))
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return User{}, false, fmt.Errorf("pms: get user by login: %w", err)
	}
	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return User{}, false, fmt.Errorf("pms: parse user-by-login response: %w", err)
	}
	if len(users) == 0 {
		return User{}, false, nil
	}
	return users[0], true, nil
}
