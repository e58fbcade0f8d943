package wits

import (
	"fmt"
	"strings"
	"time"
)

// dateFilterField names which date field a query window filters on.
type dateFilterField string

const (
	filterCreatedDate dateFilterField = "System.CreatedDate"
	filterChangedDate dateFilterField = "System.ChangedDate"
)

// defaultFields is the WIQL SELECT list used for every query this engine
// issues; field order does not affect correctness, only readability of
// the generated query text.
var defaultFields = []string{
	"System.Id",
	"System.Title",
	"System.WorkItemType",
	"System.State",
	"System.CreatedDate",
	"System.ChangedDate",
}

// buildWIQL renders the literal query dialect the engine expects the
// WITS collection to accept: a field-list SELECT scoped to one team
// project and filtered on a single date field at or after since,
// ordered ascending on that same field.
func buildWIQL(field dateFilterField, project string, since time.Time) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(defaultFields, ", "))
	b.WriteString(" FROM WorkItems WHERE [")
	b.WriteString(string(field))
	b.WriteString("] >= '")
	b.WriteString(since.Format("2006-01-02"))
	b.WriteString("' AND [System.TeamProject] = '")
	b.WriteString(project)
	b.WriteString("' ORDER BY [")
	b.WriteString(string(field))
	b.WriteString("]")
	return b.String()
}

// QueryCapWindow is the fallback lookback window the driver retries with
// once a query trips the result-set cap.
const QueryCapWindow = 2 * 24 * time.Hour

// NarrowedSince returns the start of the fallback window anchored at now,
// for a caller that caught engineerrors.IsQueryCapExceeded and needs to
// retry with a narrower window.
func NarrowedSince(now time.Time) time.Time {
	return now.Add(-QueryCapWindow)
}

func wiqlRequestBody(query string) ([]byte, error) {
	return jsonBody(map[string]string{"query": query})
}

func wiqlBatchIDsURL(endpoint string) string {
	return fmt.Sprintf("%s/_apis/wit/wiql", endpoint)
}
