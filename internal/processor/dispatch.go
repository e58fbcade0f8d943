package processor

import "strings"

// ArtifactKind is the classification of a WITS work item for the
// create-inbound and merge-update flows.
type ArtifactKind string

const (
	KindIncident    ArtifactKind = "incident"
	KindTask        ArtifactKind = "task"
	KindRequirement ArtifactKind = "requirement"
)

// Classify dispatches a work-item-type name against the two configured
// comma-separated type lists; anything matching neither is treated as an
// incident.
func Classify(workItemType string, taskTypes, requirementTypes []string) ArtifactKind {
	if containsFold(taskTypes, workItemType) {
		return KindTask
	}
	if containsFold(requirementTypes, workItemType) {
		return KindRequirement
	}
	return KindIncident
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
