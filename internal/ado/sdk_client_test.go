package ado

import (
	"context"
	"testing"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/test"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/webapi"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The embedded SDK interfaces are nil: calling a method the stub does not
// override panics, which keeps each test honest about the calls it expects.

type stubTestPlans struct {
	testplan.Client
	plans      map[int]testplan.TestPlan
	suiteCases map[int][]testplan.TestCase
	created    *testplan.CreateTestPlanArgs
	caseLists  []testplan.GetTestCaseListArgs
}

func (s *stubTestPlans) CreateTestPlan(_ context.Context, args testplan.CreateTestPlanArgs) (*testplan.TestPlan, error) {
	s.created = &args
	return &testplan.TestPlan{Id: ptr(77), Name: args.TestPlanCreateParams.Name}, nil
}

func (s *stubTestPlans) GetTestPlanById(_ context.Context, args testplan.GetTestPlanByIdArgs) (*testplan.TestPlan, error) {
	plan, ok := s.plans[*args.PlanId]
	if !ok {
		return nil, &azuredevops.WrappedError{StatusCode: ptr(404), Message: ptr("plan not found")}
	}
	return &plan, nil
}

func (s *stubTestPlans) GetTestCaseList(_ context.Context, args testplan.GetTestCaseListArgs) (*testplan.GetTestCaseListResponseValue, error) {
	s.caseLists = append(s.caseLists, args)
	return &testplan.GetTestCaseListResponseValue{Value: s.suiteCases[*args.SuiteId]}, nil
}

type stubWorkItems struct {
	workitemtracking.Client
	items   map[int]workitemtracking.WorkItem
	created *workitemtracking.CreateWorkItemArgs
}

func (s *stubWorkItems) CreateWorkItem(_ context.Context, args workitemtracking.CreateWorkItemArgs) (*workitemtracking.WorkItem, error) {
	s.created = &args
	fields := map[string]interface{}{}
	for _, op := range *args.Document {
		fields[(*op.Path)[len("/fields/"):]] = op.Value
	}
	return &workitemtracking.WorkItem{Id: ptr(501), Rev: ptr(1), Fields: &fields}, nil
}

func (s *stubWorkItems) GetWorkItem(_ context.Context, args workitemtracking.GetWorkItemArgs) (*workitemtracking.WorkItem, error) {
	item, ok := s.items[*args.Id]
	if !ok {
		return nil, azuredevops.WrappedError{StatusCode: ptr(404), Message: ptr("work item does not exist")}
	}
	return &item, nil
}

func (s *stubWorkItems) GetWorkItemsBatch(_ context.Context, args workitemtracking.GetWorkItemsBatchArgs) (*[]workitemtracking.WorkItem, error) {
	// The service answers in its own order.
	var out []workitemtracking.WorkItem
	ids := *args.WorkItemGetRequest.Ids
	for i := len(ids) - 1; i >= 0; i-- {
		if item, ok := s.items[ids[i]]; ok {
			out = append(out, item)
		}
	}
	return &out, nil
}

type stubResults struct {
	test.Client
	runs        []test.TestRun
	results     map[int][]test.TestCaseResult
	runsArgs    *test.GetTestRunsArgs
	resultsArgs []test.GetTestResultsArgs
}

func (s *stubResults) GetTestRuns(_ context.Context, args test.GetTestRunsArgs) (*[]test.TestRun, error) {
	s.runsArgs = &args
	runs := append([]test.TestRun(nil), s.runs...)
	return &runs, nil
}

func (s *stubResults) GetTestResults(_ context.Context, args test.GetTestResultsArgs) (*[]test.TestCaseResult, error) {
	s.resultsArgs = append(s.resultsArgs, args)
	all := s.results[*args.RunId]
	start, end := *args.Skip, *args.Skip+*args.Top
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	page := append([]test.TestCaseResult(nil), all[start:end]...)
	return &page, nil
}

func titledWorkItem(id int, title string) workitemtracking.WorkItem {
	fields := map[string]interface{}{FieldTitle: title}
	return workitemtracking.WorkItem{Id: ptr(id), Fields: &fields}
}

func newStubbedClient() (*sdkClient, *stubTestPlans, *stubWorkItems, *stubResults) {
	plans := &stubTestPlans{plans: map[int]testplan.TestPlan{}, suiteCases: map[int][]testplan.TestCase{}}
	items := &stubWorkItems{items: map[int]workitemtracking.WorkItem{}}
	results := &stubResults{results: map[int][]test.TestCaseResult{}}
	return &sdkClient{project: "Shop", testPlans: plans, workItems: items, results: results}, plans, items, results
}

func TestSDKClient_CreateTestPlan(t *testing.T) {
	client, plans, _, _ := newStubbedClient()

	plan, err := client.CreateTestPlan(context.Background(), CreateTestPlanParams{
		Name:      "Release 4",
		Iteration: `Shop\Sprint 4`,
	})
	require.NoError(t, err)
	assert.Equal(t, 77, *plan.Id)

	require.NotNil(t, plans.created)
	assert.Equal(t, "Shop", *plans.created.Project)
	params := plans.created.TestPlanCreateParams
	require.NotNil(t, params)
	assert.Equal(t, "Release 4", *params.Name)
	assert.Equal(t, `Shop\Sprint 4`, *params.Iteration)
	assert.Nil(t, params.Description)
	assert.Nil(t, params.StartDate)
}

func TestSDKClient_CreateTestCase(t *testing.T) {
	client, _, items, _ := newStubbedClient()

	detail, err := client.CreateTestCase(context.Background(), CreateTestCaseParams{
		Title:    "Login",
		Steps:    "1. Open|Shown",
		Priority: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 501, detail.ID)
	assert.Equal(t, "Login", detail.Title)
	assert.Equal(t, "1. Open|Shown", detail.Steps)

	require.NotNil(t, items.created)
	assert.Equal(t, "Test Case", *items.created.Type)
	var paths []string
	for _, op := range *items.created.Document {
		assert.Equal(t, webapi.OperationValues.Add, *op.Op)
		paths = append(paths, *op.Path)
	}
	assert.Equal(t, []string{"/fields/System.Title", "/fields/Microsoft.VSTS.TCM.Steps", "/fields/Microsoft.VSTS.Common.Priority"}, paths)
}

func TestSDKClient_GetTestCase(t *testing.T) {
	client, _, items, _ := newStubbedClient()
	items.items[5] = titledWorkItem(5, "Five")

	detail, err := client.GetTestCase(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Five", detail.Title)

	_, err = client.GetTestCase(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSDKClient_GetTestCasesKeepsRequestOrder(t *testing.T) {
	client, _, items, _ := newStubbedClient()
	items.items[1] = titledWorkItem(1, "One")
	items.items[2] = titledWorkItem(2, "Two")
	items.items[3] = titledWorkItem(3, "Three")

	details, err := client.GetTestCases(context.Background(), []int{2, 3, 1})
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{details[0].ID, details[1].ID, details[2].ID})

	_, err = client.GetTestCases(context.Background(), make([]int, MaxBatchSize+1))
	assert.Error(t, err)
}

func TestSDKClient_ListPlanTestCases(t *testing.T) {
	client, plans, _, _ := newStubbedClient()
	plans.plans[9] = testplan.TestPlan{Id: ptr(9), RootSuite: &testplan.TestSuiteReference{Id: ptr(90)}}
	plans.suiteCases[90] = []testplan.TestCase{{WorkItem: &testplan.WorkItemDetails{Id: ptr(1), Name: ptr("Existing")}}}

	cases, err := client.ListPlanTestCases(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
	require.Len(t, plans.caseLists, 1)
	assert.Equal(t, 9, *plans.caseLists[0].PlanId)
	assert.Equal(t, 90, *plans.caseLists[0].SuiteId)

	_, err = client.ListPlanTestCases(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSDKClient_GetBuildTestResults(t *testing.T) {
	client, _, _, results := newStubbedClient()
	results.runs = []test.TestRun{{Id: ptr(11)}, {Id: ptr(12)}}
	results.results[11] = make([]test.TestCaseResult, resultsPageSize+1)
	results.results[12] = []test.TestCaseResult{{Outcome: ptr("Failed")}}

	got, err := client.GetBuildTestResults(context.Background(), 321)
	require.NoError(t, err)
	assert.Len(t, got, resultsPageSize+2)
	assert.Equal(t, "Failed", *got[len(got)-1].Outcome)

	require.NotNil(t, results.runsArgs)
	assert.Equal(t, "vstfs:///Build/Build/321", *results.runsArgs.BuildUri)
	assert.Equal(t, "Shop", *results.runsArgs.Project)

	// Run 11 needs a second page, run 12 fits in one.
	require.Len(t, results.resultsArgs, 3)
	assert.Equal(t, 11, *results.resultsArgs[0].RunId)
	assert.Equal(t, resultsPageSize, *results.resultsArgs[1].Skip)
	assert.Equal(t, 12, *results.resultsArgs[2].RunId)
}

func TestSDKClient_GetBuildTestResultsWithoutRuns(t *testing.T) {
	client, _, _, results := newStubbedClient()

	got, err := client.GetBuildTestResults(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, results.resultsArgs)
}
