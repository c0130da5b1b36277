package ado

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/test"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/webapi"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"

	"github.com/khushigoel4699/Testplansserver/internal/config"
)

const (
	testCaseWorkItemType = "Test Case"
	// Largest page GetTestResults serves without detail expansion.
	resultsPageSize = 1000
)

var _ Client = (*sdkClient)(nil)

// sdkClient implements Client on top of the Azure DevOps SDK.
type sdkClient struct {
	project   string
	testPlans testplan.Client
	workItems workitemtracking.Client
	results   test.Client
}

// Connect opens a PAT connection and resolves the three SDK clients the
// adapter needs. Resolving a client talks to the organization, so a bad URL
// or token fails here.
func Connect(ctx context.Context, cfg config.AzureDevOpsConfig) (Client, error) {
	if cfg.OrgURL == "" || cfg.Project == "" || cfg.PAT == "" {
		return nil, errors.New("Azure DevOps organization URL, project and personal access token are required")
	}

	connection := azuredevops.NewPatConnection(cfg.OrgURL, cfg.PAT)

	testPlans := testplan.NewClient(ctx, connection)
	workItems, err := workitemtracking.NewClient(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create work item client: %w", err)
	}
	results, err := test.NewClient(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create test results client: %w", err)
	}

	return &sdkClient{
		project:   cfg.Project,
		testPlans: testPlans,
		workItems: workItems,
		results:   results,
	}, nil
}

// ===== Test plans =====

func (c *sdkClient) ListTestPlans(ctx context.Context, filterActivePlans, includePlanDetails bool) ([]testplan.TestPlan, error) {
	resp, err := c.testPlans.GetTestPlans(ctx, testplan.GetTestPlansArgs{
		Project:            &c.project,
		FilterActivePlans:  &filterActivePlans,
		IncludePlanDetails: &includePlanDetails,
	})
	if err != nil {
		return nil, translate(err)
	}
	if resp == nil || resp.Value == nil {
		return []testplan.TestPlan{}, nil
	}
	return resp.Value, nil
}

func (c *sdkClient) GetTestPlan(ctx context.Context, id int) (*testplan.TestPlan, error) {
	plan, err := c.testPlans.GetTestPlanById(ctx, testplan.GetTestPlanByIdArgs{
		Project: &c.project,
		PlanId:  &id,
	})
	if err != nil {
		return nil, translate(err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: test plan %d", ErrNotFound, id)
	}
	return plan, nil
}

func (c *sdkClient) CreateTestPlan(ctx context.Context, params CreateTestPlanParams) (*testplan.TestPlan, error) {
	plan, err := c.testPlans.CreateTestPlan(ctx, testplan.CreateTestPlanArgs{
		Project: &c.project,
		TestPlanCreateParams: &testplan.TestPlanCreateParams{
			Name:        optString(params.Name),
			Iteration:   optString(params.Iteration),
			Description: optString(params.Description),
			AreaPath:    optString(params.AreaPath),
			StartDate:   optTime(params.StartDate),
			EndDate:     optTime(params.EndDate),
		},
	})
	if err != nil {
		return nil, translate(err)
	}
	return plan, nil
}

func (c *sdkClient) UpdateTestPlan(ctx context.Context, id int, params UpdateTestPlanParams) (*testplan.TestPlan, error) {
	plan, err := c.testPlans.UpdateTestPlan(ctx, testplan.UpdateTestPlanArgs{
		Project: &c.project,
		PlanId:  &id,
		TestPlanUpdateParams: &testplan.TestPlanUpdateParams{
			Name:        optString(params.Name),
			Iteration:   optString(params.Iteration),
			Description: optString(params.Description),
			AreaPath:    optString(params.AreaPath),
			State:       optString(params.State),
			StartDate:   optTime(params.StartDate),
			EndDate:     optTime(params.EndDate),
		},
	})
	if err != nil {
		return nil, translate(err)
	}
	return plan, nil
}

func (c *sdkClient) DeleteTestPlan(ctx context.Context, id int) error {
	err := c.testPlans.DeleteTestPlan(ctx, testplan.DeleteTestPlanArgs{
		Project: &c.project,
		PlanId:  &id,
	})
	return translate(err)
}

// ===== Test cases =====

func (c *sdkClient) CreateTestCase(ctx context.Context, params CreateTestCaseParams) (*TestCaseDetail, error) {
	doc := buildTestCaseDocument(params)
	workItemType := testCaseWorkItemType

	item, err := c.workItems.CreateWorkItem(ctx, workitemtracking.CreateWorkItemArgs{
		Document: &doc,
		Project:  &c.project,
		Type:     &workItemType,
	})
	if err != nil {
		return nil, translate(err)
	}
	detail := detailFromWorkItem(item)
	return &detail, nil
}

func (c *sdkClient) GetTestCase(ctx context.Context, id int) (*TestCaseDetail, error) {
	item, err := c.workItems.GetWorkItem(ctx, workitemtracking.GetWorkItemArgs{
		Id:      &id,
		Project: &c.project,
	})
	if err != nil {
		return nil, translate(err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: test case %d", ErrNotFound, id)
	}
	detail := detailFromWorkItem(item)
	return &detail, nil
}

func (c *sdkClient) GetTestCases(ctx context.Context, ids []int) ([]TestCaseDetail, error) {
	if len(ids) == 0 {
		return []TestCaseDetail{}, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("at most %d test case ids per batch, got %d", MaxBatchSize, len(ids))
	}

	requested := append([]int(nil), ids...)
	items, err := c.workItems.GetWorkItemsBatch(ctx, workitemtracking.GetWorkItemsBatchArgs{
		Project: &c.project,
		WorkItemGetRequest: &workitemtracking.WorkItemBatchGetRequest{
			Ids: &requested,
		},
	})
	if err != nil {
		return nil, translate(err)
	}
	if items == nil {
		return []TestCaseDetail{}, nil
	}
	return orderDetails(ids, *items), nil
}

// ===== Suites =====

func (c *sdkClient) AddTestCasesToSuite(ctx context.Context, planID, suiteID int, testCaseIDs []int) ([]testplan.TestCase, error) {
	params := make([]testplan.SuiteTestCaseCreateUpdateParameters, 0, len(testCaseIDs))
	for _, id := range testCaseIDs {
		params = append(params, testplan.SuiteTestCaseCreateUpdateParameters{
			WorkItem: &testplan.WorkItem{Id: ptr(id)},
		})
	}

	added, err := c.testPlans.AddTestCasesToSuite(ctx, testplan.AddTestCasesToSuiteArgs{
		SuiteTestCaseCreateUpdateParameters: &params,
		Project:                             &c.project,
		PlanId:                              &planID,
		SuiteId:                             &suiteID,
	})
	if err != nil {
		return nil, translate(err)
	}
	if added == nil {
		return []testplan.TestCase{}, nil
	}
	return *added, nil
}

func (c *sdkClient) ListSuiteTestCases(ctx context.Context, planID, suiteID int) ([]testplan.TestCase, error) {
	resp, err := c.testPlans.GetTestCaseList(ctx, testplan.GetTestCaseListArgs{
		Project: &c.project,
		PlanId:  &planID,
		SuiteId: &suiteID,
	})
	if err != nil {
		return nil, translate(err)
	}
	if resp == nil || resp.Value == nil {
		return []testplan.TestCase{}, nil
	}
	return resp.Value, nil
}

func (c *sdkClient) ListPlanTestCases(ctx context.Context, planID int) ([]testplan.TestCase, error) {
	plan, err := c.GetTestPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.RootSuite == nil || plan.RootSuite.Id == nil {
		return []testplan.TestCase{}, nil
	}
	return c.ListSuiteTestCases(ctx, planID, *plan.RootSuite.Id)
}

// ===== Builds =====

// GetBuildTestResults collects the results of every test run published for
// the build, run by run.
func (c *sdkClient) GetBuildTestResults(ctx context.Context, buildID int) ([]test.TestCaseResult, error) {
	buildURI := BuildURI(buildID)
	runs, err := c.results.GetTestRuns(ctx, test.GetTestRunsArgs{
		Project:  &c.project,
		BuildUri: &buildURI,
	})
	if err != nil {
		return nil, translate(err)
	}

	results := []test.TestCaseResult{}
	if runs == nil {
		return results, nil
	}
	for _, run := range *runs {
		if run.Id == nil {
			continue
		}
		runResults, err := c.runResults(ctx, *run.Id)
		if err != nil {
			return nil, err
		}
		results = append(results, runResults...)
	}
	return results, nil
}

func (c *sdkClient) runResults(ctx context.Context, runID int) ([]test.TestCaseResult, error) {
	var results []test.TestCaseResult
	for skip := 0; ; skip += resultsPageSize {
		top, offset := resultsPageSize, skip
		page, err := c.results.GetTestResults(ctx, test.GetTestResultsArgs{
			Project: &c.project,
			RunId:   &runID,
			Skip:    &offset,
			Top:     &top,
		})
		if err != nil {
			return nil, translate(err)
		}
		if page == nil {
			return results, nil
		}
		results = append(results, *page...)
		if len(*page) < resultsPageSize {
			return results, nil
		}
	}
}

// BuildURI is the artifact URI test runs use to reference a build.
func BuildURI(buildID int) string {
	return fmt.Sprintf("vstfs:///Build/Build/%d", buildID)
}

// ===== helpers =====

func buildTestCaseDocument(params CreateTestCaseParams) []webapi.JsonPatchOperation {
	doc := []webapi.JsonPatchOperation{addField(FieldTitle, params.Title)}
	if params.Steps != "" {
		doc = append(doc, addField(FieldSteps, params.Steps))
	}
	if params.Priority > 0 {
		doc = append(doc, addField(FieldPriority, params.Priority))
	}
	if params.AreaPath != "" {
		doc = append(doc, addField(FieldAreaPath, params.AreaPath))
	}
	if params.IterationPath != "" {
		doc = append(doc, addField(FieldIterationPath, params.IterationPath))
	}
	return doc
}

func addField(field string, value interface{}) webapi.JsonPatchOperation {
	return webapi.JsonPatchOperation{
		Op:    &webapi.OperationValues.Add,
		Path:  ptr("/fields/" + field),
		Value: value,
	}
}

// translate maps a vendor 404 onto ErrNotFound and leaves everything else alone.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if status := statusCode(err); status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	return err
}

func statusCode(err error) int {
	var wrappedPtr *azuredevops.WrappedError
	if errors.As(err, &wrappedPtr) && wrappedPtr != nil && wrappedPtr.StatusCode != nil {
		return *wrappedPtr.StatusCode
	}
	var wrapped azuredevops.WrappedError
	if errors.As(err, &wrapped) && wrapped.StatusCode != nil {
		return *wrapped.StatusCode
	}
	return 0
}

func ptr[T any](v T) *T {
	return &v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optTime(t *time.Time) *azuredevops.Time {
	if t == nil {
		return nil
	}
	return &azuredevops.Time{Time: *t}
}
