package processor_test

import (
	"context"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/iteration"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// fakePMS implements processor.PMSClient with simple in-memory recording,
// in the style of internal/iteration/reconciler_test.go's fakePMS.
type fakePMS struct {
	comments map[int][]pms.Comment

	createIncidentCalls int
	updateIncidentCalls int
	createdFields       map[string]interface{}
	updatedFields        map[string]interface{}
}

func newFakePMS() *fakePMS {
	return &fakePMS{comments: make(map[int][]pms.Comment)}
}

func (f *fakePMS) CreateIncident(_ context.Context, _ int, fields map[string]interface{}) (int, error) {
	f.createIncidentCalls++
	f.createdFields = fields
	return 900, nil
}

func (f *fakePMS) UpdateIncident(_ context.Context, _, _ int, fields map[string]interface{}) error {
	f.updateIncidentCalls++
	f.updatedFields = fields
	return nil
}

func (f *fakePMS) CreateTask(_ context.Context, _ int, _ map[string]interface{}) (int, error) {
	return 0, nil
}
func (f *fakePMS) UpdateTask(_ context.Context, _, _ int, _ map[string]interface{}) error {
	return nil
}
func (f *fakePMS) CreateRequirement(_ context.Context, _ int, _ map[string]interface{}) (int, error) {
	return 0, nil
}
func (f *fakePMS) UpdateRequirement(_ context.Context, _, _ int, _ map[string]interface{}) error {
	return nil
}

func (f *fakePMS) ListComments(_ context.Context, _, internalID int) ([]pms.Comment, error) {
	return f.comments[internalID], nil
}

func (f *fakePMS) CreateComment(_ context.Context, _, internalID int, comment pms.Comment) error {
	f.comments[internalID] = append(f.comments[internalID], comment)
	return nil
}

// fakeWITS implements processor.WITSClient.
type fakeWITS struct {
	revisions map[int][]wits.Revision

	createWorkItemCalls int
	updateWorkItemCalls int
	setStateCalls       int
	addCommentCalls     int
}

func newFakeWITS() *fakeWITS {
	return &fakeWITS{revisions: make(map[int][]wits.Revision)}
}

func (f *fakeWITS) GetWorkItem(_ context.Context, id int) (wits.WorkItem, bool, error) {
	return wits.WorkItem{}, false, nil
}

func (f *fakeWITS) CreateWorkItem(_ context.Context, workItemType string, ops []wits.PatchOperation) (wits.WorkItem, error) {
	f.createWorkItemCalls++
	return wits.WorkItem{ID: 1001, Fields: wits.WorkItemFields{WorkItemType: workItemType}}, nil
}

func (f *fakeWITS) UpdateWorkItem(_ context.Context, id int, ops []wits.PatchOperation) (wits.WorkItem, error) {
	f.updateWorkItemCalls++
	return wits.WorkItem{ID: id}, nil
}

func (f *fakeWITS) SetState(_ context.Context, id int, state, reason string) (wits.WorkItem, error) {
	f.setStateCalls++
	return wits.WorkItem{ID: id}, nil
}

func (f *fakeWITS) AddHyperlink(_ context.Context, _ int, _ string) error { return nil }
func (f *fakeWITS) AddComment(_ context.Context, _ int, _ string) error {
	f.addCommentCalls++
	return nil
}

func (f *fakeWITS) GetRevisions(_ context.Context, id int) ([]wits.Revision, error) {
	return f.revisions[id], nil
}

// fakeReleasePMS and fakeReleaseWITS implement iteration.PMSClient/
// iteration.WITSClient, the narrow surface backing a *iteration.Reconciler
// under test. They record whether any mutating call happened, so a
// DryRun reconciler can be asserted to have never touched them.
type fakeReleasePMS struct {
	createReleaseCalls int
}

func (f *fakeReleasePMS) CreateRelease(_ context.Context, projectID int, name, version string, start, end time.Time) (iteration.Release, error) {
	f.createReleaseCalls++
	return iteration.Release{ID: 55, Name: name}, nil
}

type fakeReleaseWITS struct {
	createIterationCalls int
}

func (f *fakeReleaseWITS) CreateIterationNode(_ context.Context, projectID int, name string) error {
	f.createIterationCalls++
	return nil
}

func (f *fakeReleaseWITS) FindIterationNode(_ context.Context, projectID int, name string) (iteration.IterationNode, bool, error) {
	return iteration.IterationNode{ID: 77, Name: name}, true, nil
}
