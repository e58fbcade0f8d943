package synccycle_test

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// scenarioPMS and scenarioWITS are hand-written fakes implementing the
// full synccycle.PMSClient/WITSClient surfaces, in the style of
// internal/iteration/reconciler_test.go's narrow fakes scaled up to the
// larger interface one sync cycle needs. Each scenario test configures
// only the fields it exercises; everything else defaults to an empty,
// successful response.
type scenarioPMS struct {
	incidentsCreatedSince []pms.Incident
	incidentsUpdatedSince []pms.Incident
	incidentsByID         map[int]pms.Incident
	tasksByID             map[int]pms.Task
	requirementsByID      map[int]pms.Requirement
	releasesByID          map[int]pms.Release
	customPropDefs        map[int][]pms.CustomPropertyDefinition
	comments              map[string][]pms.Comment

	createIncidentCalls int
	lastCreatedFields   map[string]interface{}
	updateIncidentCalls int
	createReleaseCalls  int
	nextReleaseID       int
}

func newScenarioPMS() *scenarioPMS {
	return &scenarioPMS{
		incidentsByID:    make(map[int]pms.Incident),
		tasksByID:        make(map[int]pms.Task),
		requirementsByID: make(map[int]pms.Requirement),
		releasesByID:     make(map[int]pms.Release),
		customPropDefs:   make(map[int][]pms.CustomPropertyDefinition),
		comments:         make(map[string][]pms.Comment),
		nextReleaseID:    100,
	}
}

func (f *scenarioPMS) Authenticate(_ context.Context) error           { return nil }
func (f *scenarioPMS) ConnectToProject(_ context.Context, _ int) error { return nil }

func (f *scenarioPMS) ListIncidentsCreatedSince(_ context.Context, _ int, _ time.Time) ([]pms.Incident, error) {
	return f.incidentsCreatedSince, nil
}

func (f *scenarioPMS) ListIncidentsUpdatedSince(_ context.Context, _ int, _, _ time.Time) ([]pms.Incident, error) {
	return f.incidentsUpdatedSince, nil
}

func (f *scenarioPMS) GetIncident(_ context.Context, _, incidentID int) (pms.Incident, error) {
	return f.incidentsByID[incidentID], nil
}

func (f *scenarioPMS) GetTask(_ context.Context, _, taskID int) (pms.Task, error) {
	return f.tasksByID[taskID], nil
}

func (f *scenarioPMS) GetRequirement(_ context.Context, _, requirementID int) (pms.Requirement, error) {
	return f.requirementsByID[requirementID], nil
}

func (f *scenarioPMS) GetRelease(_ context.Context, _, releaseID int) (pms.Release, error) {
	return f.releasesByID[releaseID], nil
}

func (f *scenarioPMS) ListCustomPropertyDefinitions(_ context.Context, artifactTypeID int) ([]pms.CustomPropertyDefinition, error) {
	return f.customPropDefs[artifactTypeID], nil
}

func (f *scenarioPMS) CreateIncident(_ context.Context, _ int, fields map[string]interface{}) (int, error) {
	f.createIncidentCalls++
	f.lastCreatedFields = fields
	return 900, nil
}

func (f *scenarioPMS) UpdateIncident(_ context.Context, _, _ int, fields map[string]interface{}) error {
	f.updateIncidentCalls++
	f.lastCreatedFields = fields
	return nil
}

func (f *scenarioPMS) CreateTask(_ context.Context, _ int, _ map[string]interface{}) (int, error) {
	return 0, nil
}
func (f *scenarioPMS) UpdateTask(_ context.Context, _, _ int, _ map[string]interface{}) error {
	return nil
}
func (f *scenarioPMS) CreateRequirement(_ context.Context, _ int, _ map[string]interface{}) (int, error) {
	return 0, nil
}
func (f *scenarioPMS) UpdateRequirement(_ context.Context, _, _ int, _ map[string]interface{}) error {
	return nil
}

func (f *scenarioPMS) ListComments(_ context.Context, artifactTypeID, internalID int) ([]pms.Comment, error) {
	return f.comments[commentKey(artifactTypeID, internalID)], nil
}

func (f *scenarioPMS) CreateComment(_ context.Context, artifactTypeID, internalID int, comment pms.Comment) error {
	key := commentKey(artifactTypeID, internalID)
	f.comments[key] = append(f.comments[key], comment)
	return nil
}

func (f *scenarioPMS) CreateRelease(_ context.Context, projectID int, name, _ string, _, _ time.Time) (iteration.Release, error) {
	f.createReleaseCalls++
	id := f.nextReleaseID
	f.nextReleaseID++
	return iteration.Release{ProjectID: projectID, ID: id, Name: name}, nil
}

func (f *scenarioPMS) ListAttachments(_ context.Context, _, _ int) ([]linkbridge.Attachment, error) {
	return nil, nil
}
func (f *scenarioPMS) FetchAttachmentBytes(_ context.Context, _, _, _ int) ([]byte, error) {
	return nil, nil
}
func (f *scenarioPMS) CreateURLAttachment(_ context.Context, _, _ int, _ string) error { return nil }
func (f *scenarioPMS) UploadAttachmentFile(_ context.Context, _, _ int, _, _ string) error {
	return nil
}
func (f *scenarioPMS) CreateAssociation(_ context.Context, _ linkbridge.Association) error {
	return nil
}

func commentKey(artifactTypeID, internalID int) string {
	return strconv.Itoa(artifactTypeID) + ":" + strconv.Itoa(internalID)
}

// scenarioWITS implements synccycle.WITSClient.
type scenarioWITS struct {
	createdSinceByCall []queryResult
	createdSinceCalls  int
	changedSinceByCall []queryResult
	changedSinceCalls  int

	workItemsByID map[int]wits.WorkItem
	revisionsByID map[int][]wits.Revision

	createWorkItemCalls  int
	lastCreateOps        []wits.PatchOperation
	updateWorkItemCalls  int
	setStateCalls        int
	addCommentCalls      int
	createIterationCalls int
	iterationsByName     map[string]iteration.IterationNode
}

type queryResult struct {
	items []wits.WorkItem
	err   error
}

func newScenarioWITS() *scenarioWITS {
	return &scenarioWITS{
		workItemsByID:    make(map[int]wits.WorkItem),
		revisionsByID:    make(map[int][]wits.Revision),
		iterationsByName: make(map[string]iteration.IterationNode),
	}
}

func (f *scenarioWITS) QueryCreatedSince(_ context.Context, _ string, _ time.Time) ([]wits.WorkItem, error) {
	idx := f.createdSinceCalls
	f.createdSinceCalls++
	if idx >= len(f.createdSinceByCall) {
		return nil, nil
	}
	r := f.createdSinceByCall[idx]
	return r.items, r.err
}

func (f *scenarioWITS) QueryChangedSince(_ context.Context, _ string, _ time.Time) ([]wits.WorkItem, error) {
	idx := f.changedSinceCalls
	f.changedSinceCalls++
	if idx >= len(f.changedSinceByCall) {
		return nil, nil
	}
	r := f.changedSinceByCall[idx]
	return r.items, r.err
}

func (f *scenarioWITS) GetWorkItem(_ context.Context, id int) (wits.WorkItem, bool, error) {
	wi, ok := f.workItemsByID[id]
	return wi, ok, nil
}

func (f *scenarioWITS) CreateWorkItem(_ context.Context, workItemType string, ops []wits.PatchOperation) (wits.WorkItem, error) {
	f.createWorkItemCalls++
	f.lastCreateOps = ops
	return wits.WorkItem{ID: 2001, Fields: wits.WorkItemFields{WorkItemType: workItemType}}, nil
}

func (f *scenarioWITS) UpdateWorkItem(_ context.Context, id int, ops []wits.PatchOperation) (wits.WorkItem, error) {
	f.updateWorkItemCalls++
	f.lastCreateOps = ops
	return wits.WorkItem{ID: id}, nil
}

func (f *scenarioWITS) SetState(_ context.Context, id int, _, _ string) (wits.WorkItem, error) {
	f.setStateCalls++
	return wits.WorkItem{ID: id}, nil
}

func (f *scenarioWITS) AddHyperlink(_ context.Context, _ int, _ string) error { return nil }

func (f *scenarioWITS) AddComment(_ context.Context, _ int, _ string) error {
	f.addCommentCalls++
	return nil
}

func (f *scenarioWITS) GetRevisions(_ context.Context, id int) ([]wits.Revision, error) {
	return f.revisionsByID[id], nil
}

func (f *scenarioWITS) CreateIterationNode(_ context.Context, _ int, name string) error {
	f.createIterationCalls++
	f.iterationsByName[name] = iteration.IterationNode{ID: 777, Name: name}
	return nil
}

func (f *scenarioWITS) FindIterationNode(_ context.Context, _ int, name string) (iteration.IterationNode, bool, error) {
	node, ok := f.iterationsByName[name]
	return node, ok, nil
}

func (f *scenarioWITS) ListLinks(_ context.Context, _ int) ([]linkbridge.Link, error) { return nil, nil }
func (f *scenarioWITS) ListAttachments(_ context.Context, _ int) ([]linkbridge.Attachment, error) {
	return nil, nil
}
func (f *scenarioWITS) DownloadAttachment(_ context.Context, _, _ int) ([]byte, error) {
	return nil, nil
}
func (f *scenarioWITS) UploadAttachmentFile(_ context.Context, _ int, _, _ string) error { return nil }

func (f *scenarioWITS) LookupDisplayNameByLogin(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

var errQueryCapExceeded = errors.New("TF401268: VS402337: the query returned too many results")
