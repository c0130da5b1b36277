// Package adotest provides an in-memory ado.Client for tests.
package adotest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/test"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
)

// Call records one adapter invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Fake is a programmable ado.Client. Unset data yields empty results; Err,
// when set, is returned by every method.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	Plans       map[int]testplan.TestPlan
	TestCases   map[int]ado.TestCaseDetail
	SuiteCases  map[[2]int][]testplan.TestCase
	PlanCases   map[int][]testplan.TestCase
	TestResults map[int][]test.TestCaseResult
	NextID      int
	Err         error
}

var _ ado.Client = (*Fake)(nil)

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Plans:       make(map[int]testplan.TestPlan),
		TestCases:   make(map[int]ado.TestCaseDetail),
		SuiteCases:  make(map[[2]int][]testplan.TestCase),
		PlanCases:   make(map[int][]testplan.TestCase),
		TestResults: make(map[int][]test.TestCaseResult),
		NextID:      1000,
	}
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) record(method string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Args: args})
	return f.Err
}

// Plan builds a test plan value.
func Plan(id int, name string) testplan.TestPlan {
	return testplan.TestPlan{Id: &id, Name: &name}
}

// SuiteCase builds a suite membership value.
func SuiteCase(id int, name string) testplan.TestCase {
	return testplan.TestCase{WorkItem: &testplan.WorkItemDetails{Id: &id, Name: &name}}
}

func (f *Fake) ListTestPlans(_ context.Context, filterActivePlans, includePlanDetails bool) ([]testplan.TestPlan, error) {
	if err := f.record("ListTestPlans", filterActivePlans, includePlanDetails); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := sortedKeys(f.Plans)
	plans := make([]testplan.TestPlan, 0, len(ids))
	for _, id := range ids {
		plans = append(plans, f.Plans[id])
	}
	return plans, nil
}

func (f *Fake) GetTestPlan(_ context.Context, id int) (*testplan.TestPlan, error) {
	if err := f.record("GetTestPlan", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	plan, ok := f.Plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: test plan %d", ado.ErrNotFound, id)
	}
	return &plan, nil
}

func (f *Fake) CreateTestPlan(_ context.Context, params ado.CreateTestPlanParams) (*testplan.TestPlan, error) {
	if err := f.record("CreateTestPlan", params); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.NextID++
	plan := Plan(f.NextID, params.Name)
	iteration := params.Iteration
	plan.Iteration = &iteration
	f.Plans[f.NextID] = plan
	return &plan, nil
}

func (f *Fake) UpdateTestPlan(_ context.Context, id int, params ado.UpdateTestPlanParams) (*testplan.TestPlan, error) {
	if err := f.record("UpdateTestPlan", id, params); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	plan, ok := f.Plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: test plan %d", ado.ErrNotFound, id)
	}
	iteration := params.Iteration
	plan.Iteration = &iteration
	if params.Name != "" {
		name := params.Name
		plan.Name = &name
	}
	f.Plans[id] = plan
	return &plan, nil
}

func (f *Fake) DeleteTestPlan(_ context.Context, id int) error {
	if err := f.record("DeleteTestPlan", id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.Plans[id]; !ok {
		return fmt.Errorf("%w: test plan %d", ado.ErrNotFound, id)
	}
	delete(f.Plans, id)
	return nil
}

func (f *Fake) CreateTestCase(_ context.Context, params ado.CreateTestCaseParams) (*ado.TestCaseDetail, error) {
	if err := f.record("CreateTestCase", params); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.NextID++
	detail := ado.TestCaseDetail{
		ID:            f.NextID,
		Rev:           1,
		Title:         params.Title,
		State:         "Design",
		Priority:      params.Priority,
		AreaPath:      params.AreaPath,
		IterationPath: params.IterationPath,
		Steps:         params.Steps,
	}
	f.TestCases[detail.ID] = detail
	return &detail, nil
}

func (f *Fake) GetTestCase(_ context.Context, id int) (*ado.TestCaseDetail, error) {
	if err := f.record("GetTestCase", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	detail, ok := f.TestCases[id]
	if !ok {
		return nil, fmt.Errorf("%w: test case %d", ado.ErrNotFound, id)
	}
	return &detail, nil
}

func (f *Fake) GetTestCases(_ context.Context, ids []int) ([]ado.TestCaseDetail, error) {
	if err := f.record("GetTestCases", append([]int(nil), ids...)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]ado.TestCaseDetail, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.TestCases[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *Fake) AddTestCasesToSuite(_ context.Context, planID, suiteID int, testCaseIDs []int) ([]testplan.TestCase, error) {
	if err := f.record("AddTestCasesToSuite", planID, suiteID, append([]int(nil), testCaseIDs...)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := [2]int{planID, suiteID}
	added := make([]testplan.TestCase, 0, len(testCaseIDs))
	for _, id := range testCaseIDs {
		name := f.TestCases[id].Title
		tc := SuiteCase(id, name)
		added = append(added, tc)
		f.SuiteCases[key] = append(f.SuiteCases[key], tc)
	}
	return added, nil
}

func (f *Fake) ListSuiteTestCases(_ context.Context, planID, suiteID int) ([]testplan.TestCase, error) {
	if err := f.record("ListSuiteTestCases", planID, suiteID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cases := f.SuiteCases[[2]int{planID, suiteID}]
	return append([]testplan.TestCase{}, cases...), nil
}

func (f *Fake) ListPlanTestCases(_ context.Context, planID int) ([]testplan.TestCase, error) {
	if err := f.record("ListPlanTestCases", planID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]testplan.TestCase{}, f.PlanCases[planID]...), nil
}

func (f *Fake) GetBuildTestResults(_ context.Context, buildID int) ([]test.TestCaseResult, error) {
	if err := f.record("GetBuildTestResults", buildID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]test.TestCaseResult{}, f.TestResults[buildID]...), nil
}

func sortedKeys(m map[int]testplan.TestPlan) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
