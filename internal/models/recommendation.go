package models

// Priorities and test types a recommended test case may carry.
var (
	RecommendationPriorities = []string{"Critical", "High", "Medium", "Low"}
	RecommendationTestTypes  = []string{"Functional", "Integration", "Performance", "Security", "Usability", "Regression"}
)

// TestPlanRecommendation is one model-proposed test plan. It is built per
// request and never stored.
type TestPlanRecommendation struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Objective   string                `json:"objective"`
	TestCases   []RecommendedTestCase `json:"testCases"`
	Coverage    *Coverage             `json:"coverage,omitempty"`
}

// RecommendedTestCase 推荐的测试用例
type RecommendedTestCase struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
	Priority       string   `json:"priority,omitempty"`
	TestType       string   `json:"testType,omitempty"`
}

// Coverage summarizes what a recommended plan exercises.
type Coverage struct {
	FunctionalAreas []string `json:"functionalAreas"`
	RiskAreas       []string `json:"riskAreas"`
	UserScenarios   []string `json:"userScenarios"`
}
