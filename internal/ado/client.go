// Package ado adapts the Azure DevOps Go SDK to the handful of Test Plans,
// work item and test result calls the server proxies. Each method maps to a
// single SDK call with minimal reshaping; there is no caching or retry.
package ado

import (
	"context"
	"errors"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/test"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"
)

var (
	// ErrNotFound is returned when Azure DevOps answers 404 for a plan, work item or suite.
	ErrNotFound = errors.New("resource not found in Azure DevOps")

	// ErrNotInitialized is returned while the client lifecycle is not Ready.
	ErrNotInitialized = errors.New("Azure DevOps client not initialized")
)

// MaxBatchSize is the largest id list GetTestCases accepts.
const MaxBatchSize = 100

// Client is the vendor client adapter.
type Client interface {
	ListTestPlans(ctx context.Context, filterActivePlans, includePlanDetails bool) ([]testplan.TestPlan, error)
	GetTestPlan(ctx context.Context, id int) (*testplan.TestPlan, error)
	CreateTestPlan(ctx context.Context, params CreateTestPlanParams) (*testplan.TestPlan, error)
	UpdateTestPlan(ctx context.Context, id int, params UpdateTestPlanParams) (*testplan.TestPlan, error)
	DeleteTestPlan(ctx context.Context, id int) error

	CreateTestCase(ctx context.Context, params CreateTestCaseParams) (*TestCaseDetail, error)
	GetTestCase(ctx context.Context, id int) (*TestCaseDetail, error)
	// GetTestCases returns details in the order the ids were requested.
	GetTestCases(ctx context.Context, ids []int) ([]TestCaseDetail, error)

	AddTestCasesToSuite(ctx context.Context, planID, suiteID int, testCaseIDs []int) ([]testplan.TestCase, error)
	ListSuiteTestCases(ctx context.Context, planID, suiteID int) ([]testplan.TestCase, error)
	// ListPlanTestCases lists the test cases in the plan's root suite.
	ListPlanTestCases(ctx context.Context, planID int) ([]testplan.TestCase, error)

	GetBuildTestResults(ctx context.Context, buildID int) ([]test.TestCaseResult, error)
}

// CreateTestPlanParams describes a new test plan.
type CreateTestPlanParams struct {
	Name        string
	Iteration   string
	Description string
	AreaPath    string
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateTestPlanParams describes a test plan update. Empty strings and nil
// dates leave the field unchanged.
type UpdateTestPlanParams struct {
	Name        string
	Iteration   string
	Description string
	AreaPath    string
	State       string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateTestCaseParams describes a new Test Case work item. Steps is kept
// verbatim in the "N. step|expected" newline-joined encoding.
type CreateTestCaseParams struct {
	Title         string
	Steps         string
	Priority      int
	AreaPath      string
	IterationPath string
}

// TestCaseDetail is the reshaped view of a Test Case work item.
type TestCaseDetail struct {
	ID            int        `json:"id"`
	Rev           int        `json:"rev,omitempty"`
	Title         string     `json:"title"`
	State         string     `json:"state,omitempty"`
	Priority      int        `json:"priority,omitempty"`
	AreaPath      string     `json:"areaPath,omitempty"`
	IterationPath string     `json:"iterationPath,omitempty"`
	Steps         string     `json:"steps,omitempty"`
	AssignedTo    string     `json:"assignedTo,omitempty"`
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	ChangedDate   *time.Time `json:"changedDate,omitempty"`
	URL           string     `json:"url,omitempty"`
}
