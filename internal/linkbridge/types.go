// Package linkbridge implements the attachment and link bridge (C5):
// file/URL attachment transfer between PMS and WITS, and association
// creation for artifacts whose both ends are already mapped.
package linkbridge

import "time"

// Attachment is a PMS or WITS attachment as the bridge needs to see it.
type Attachment struct {
	ID          int
	Name        string
	IsURL       bool
	URL         string // set when IsURL
	ContentSize int64
	CreatedAt   time.Time
}

// LinkKind classifies a WITS work-item link.
type LinkKind string

const (
	LinkHyperlink        LinkKind = "hyperlink"
	LinkRelatedWorkItem  LinkKind = "related"
	LinkWorkItem         LinkKind = "work-item"
)

// Link is a WITS link on a work item.
type Link struct {
	Kind          LinkKind
	URL           string // set for LinkHyperlink
	TargetID      int    // WITS work item id, set for LinkRelatedWorkItem/LinkWorkItem
}

// Association is a PMS cross-artifact association, created once both
// ends are known to be mapped.
type Association struct {
	SourceArtifactTypeID int
	SourceInternalID     int
	TargetArtifactTypeID int
	TargetInternalID     int
}

// DefaultConcurrency bounds how many attachments transfer at once for a
// single artifact, via errgroup.SetLimit.
const DefaultConcurrency = 4
