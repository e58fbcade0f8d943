package wits

import (
	"context"
	"fmt"
)

// AddComment appends text to a work item's discussion by patching
// System.History, the field TFS/Azure DevOps overloads for comment
// entries. WITS attributes the revision to whichever identity is
// authenticated.
func (c *Client) AddComment(ctx context.Context, workItemID int, text string) error {
	ops := []PatchOperation{
		{Op: "add", Path: "/fields/System.History", Value: text},
	}
	if _, err := c.UpdateWorkItem(ctx, workItemID, ops); err != nil {
		return fmt.Errorf("wits: add comment to %d: %w", workItemID, err)
	}
	return nil
}
