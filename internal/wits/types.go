package wits

import "time"

// WorkItem mirrors the field-dictionary shape the tracker corpus uses
// for ADO/TFS work items (internal/tracker/azuredevops's WorkItem/Fields
// fixtures), trimmed to the fields this engine reads or writes.
type WorkItem struct {
	ID     int            `json:"id"`
	Fields WorkItemFields `json:"fields"`
	Rev    int            `json:"rev"`

	// RawFields holds the same "fields" object decoded generically,
	// keyed by field reference string. Dynamically-named fields (the
	// artifact-id field, opener field, and custom properties) have no
	// place in WorkItemFields and are only reachable here.
	RawFields map[string]interface{} `json:"-"`
}

// WorkItemFields holds the subset of the System.*/Microsoft.VSTS.* field
// dictionary the engine participates in. Dynamically-named fields (the
// configured artifact-id and opener-name fields, and custom properties)
// are addressed directly by field reference string in patch operations
// rather than modeled here.
type WorkItemFields struct {
	Title            string    `json:"System.Title"`
	Description      string    `json:"System.Description"`
	StepsToReproduce string    `json:"Microsoft.VSTS.TCM.ReproSteps"`
	WorkItemType     string    `json:"System.WorkItemType"`
	State            string    `json:"System.State"`
	Reason           string    `json:"System.Reason"`
	AreaID           int       `json:"System.AreaId"`
	IterationID      int       `json:"System.IterationId"`
	IterationPath    string    `json:"System.IterationPath"`
	TeamProject      string    `json:"System.TeamProject"`
	CreatedDate      time.Time `json:"System.CreatedDate"`
	ChangedDate      time.Time `json:"System.ChangedDate"`
	Priority         int       `json:"Microsoft.VSTS.Common.Priority"`
	Severity         string    `json:"Microsoft.VSTS.Common.Severity"`
	CompletedWork    float64   `json:"Microsoft.VSTS.Scheduling.CompletedWork"`
	History          string    `json:"System.History"`
	ChangedBy        string    `json:"System.ChangedBy"`
	CreatedBy        string    `json:"System.CreatedBy"`
	AssignedTo       string    `json:"System.AssignedTo"`
}

// PatchOperation is one step of a JSON Patch document, the wire format
// WITS work-item updates use (grounded on azuredevops's PatchOperation).
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// Revision is one historical snapshot of a work item, used to mine
// comment-worthy History entries.
type Revision struct {
	Rev    int            `json:"rev"`
	Fields WorkItemFields `json:"fields"`
}

// User identifies a WITS identity by login and display name.
type User struct {
	UniqueName  string `json:"uniqueName"`
	DisplayName string `json:"displayName"`
}
