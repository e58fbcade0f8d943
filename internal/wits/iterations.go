package wits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
)

var _ iteration.WITSClient = (*Client)(nil)

type classificationNode struct {
	ID       int                  `json:"id"`
	Name     string               `json:"name"`
	Children []classificationNode `json:"children,omitempty"`
}

// CreateIterationNode creates a new iteration node named name under the
// project's iteration root, satisfying iteration.WITSClient. The node
// may not be immediately visible through the tree-read path; callers
// poll FindIterationNode until it appears.
func (c *Client) CreateIterationNode(ctx context.Context, projectID int, name string) error {
	payload := map[string]string{"name": name}
	body, err := jsonBody(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/_apis/wit/classificationnodes/iterations", c.Endpoint)
	if _, err := c.doRequest(ctx, http.MethodPost, url, body); err != nil {
		return fmt.Errorf("wits: create iteration node %q: %w", name, err)
	}
	return nil
}

// FindIterationNode looks up an iteration node by name within the
// project's iteration tree, satisfying iteration.WITSClient.
func (c *Client) FindIterationNode(ctx context.Context, projectID int, name string) (iteration.IterationNode, bool, error) {
	url := fmt.Sprintf("%s/_apis/wit/classificationnodes/iterations?$depth=2", c.Endpoint)
	respBody, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return iteration.IterationNode{}, false, fmt.Errorf("wits: list iteration nodes: %w", err)
	}
	var root classificationNode
	if err := json.Unmarshal(respBody, &root); err != nil {
		return iteration.IterationNode{}, false, fmt.Errorf("wits: parse iteration tree: %w", err)
	}
	if node, ok := findNodeByName(root, name); ok {
		return iteration.IterationNode{ProjectID: projectID, ID: node.ID, Name: node.Name}, true, nil
	}
	return iteration.IterationNode{}, false, nil
}

func findNodeByName(node classificationNode, name string) (classificationNode, bool) {
	if node.Name == name {
		return node, true
	}
	for _, child := range node.Children {
		if found, ok := findNodeByName(child, name); ok {
			return found, true
		}
	}
	return classificationNode{}, false
}

// IterationPath renders the System.IterationPath value for a node name,
// used by processors assigning a work item to its resolved iteration.
func IterationPath(project, nodeName string) string {
	return project + "\\" + nodeName
}
