package pms

import "time"

// Incident is a PMS incident artifact.
type Incident struct {
	ID               int
	ProjectID        int
	Name             string
	Description      string
	RichDescription  string
	StepsToReproduce string
	PriorityID       int
	SeverityID       int
	StatusID         int
	TypeID           int
	OwnerID          int
	AssigneeID       int
	ReleaseID        int
	CreationDate     time.Time
	LastUpdateDate   time.Time

	// CustomProperties holds the raw value of each populated
	// custom-property slot, keyed by slot id.
	CustomProperties map[int]interface{}
}

// Task is a PMS task artifact, originating on WITS and flowing inbound
// only.
type Task struct {
	ID               int
	ProjectID        int
	Name             string
	Description      string
	OwnerID          int
	AssigneeID       int
	ReleaseID        int
	EffortMinutes    int
	CreationDate     time.Time
	LastUpdateDate   time.Time
	CustomProperties map[int]interface{}
}

// Requirement is a PMS requirement artifact, originating on WITS and
// flowing inbound only.
type Requirement struct {
	ID               int
	ProjectID        int
	Name             string
	Description      string
	OwnerID          int
	ReleaseID        int
	CreationDate     time.Time
	LastUpdateDate   time.Time
	CustomProperties map[int]interface{}
}

// Release is a PMS release.
type Release struct {
	ID        int
	ProjectID int
	Name      string
	Version   string
	Start     time.Time
	End       time.Time
}

// Comment is a PMS artifact comment.
type Comment struct {
	Text         string
	AuthorID     int
	CreationDate time.Time
}

// User is a PMS user account.
type User struct {
	ID          int
	Login       string
	DisplayName string
}

// CustomPropertyDefinition describes one of an artifact type's up-to-30
// positional custom-property slots.
type CustomPropertyDefinition struct {
	ArtifactTypeID   int
	CustomPropertyID int
	Name             string
	Type             string
}
