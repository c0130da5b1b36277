package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Connection 保存的外部集成配置. Keyed by the caller-chosen ResourceID with no
// ownership check: whoever knows a resourceId can read or overwrite it.
type Connection struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ResourceID   string    `gorm:"uniqueIndex;size:255;not null" json:"resourceId"`
	ConnectionID string    `gorm:"size:64;not null" json:"connectionId"`
	GithubURL    string    `gorm:"type:text" json:"github_url"`
	PRD          string    `gorm:"type:text" json:"prd"`
	AdoURL       string    `gorm:"type:text" json:"ado_url"`
	WebsiteURL   string    `gorm:"type:text" json:"website_url"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName 指定表名
func (Connection) TableName() string {
	return "connections"
}

// MockTestSuite is a locally synthesized suite used by the simulated
// issue-creation flow. TestCaseID is compared by string equality.
type MockTestSuite struct {
	ID         uint          `gorm:"primaryKey" json:"-"`
	ResourceID string        `gorm:"size:255;not null;index" json:"-"`
	Position   int           `gorm:"not null" json:"-"`
	Name       string        `gorm:"size:255" json:"name"`
	TestCaseID string        `gorm:"size:255;index" json:"testCaseId"`
	TestCases  MockTestCases `gorm:"type:text;column:test_cases" json:"testCases"`
}

// TableName 指定表名
func (MockTestSuite) TableName() string {
	return "mock_test_suites"
}

// MockTestCase is a sample test case inside a MockTestSuite. IssueID and
// Status are set once a simulated issue has been raised for it.
type MockTestCase struct {
	Name    string   `json:"name"`
	Steps   []string `json:"steps"`
	IssueID string   `json:"issueId,omitempty"`
	Status  string   `json:"status,omitempty"`
}

// MockTestCases is stored as a JSON text column.
type MockTestCases []MockTestCase

func (m MockTestCases) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MockTestCases) Scan(value interface{}) error {
	if value == nil {
		*m = MockTestCases{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal MockTestCases value: unsupported type %T", value)
	}

	if len(bytes) == 0 {
		*m = MockTestCases{}
		return nil
	}
	if err := json.Unmarshal(bytes, m); err != nil {
		return fmt.Errorf("failed to unmarshal MockTestCases value: %w (input: %s)", err, string(bytes))
	}
	return nil
}

// CloneSuites returns a deep copy so callers can mutate suites without
// touching what a store holds.
func CloneSuites(suites []MockTestSuite) []MockTestSuite {
	if suites == nil {
		return nil
	}
	out := make([]MockTestSuite, len(suites))
	for i, s := range suites {
		out[i] = s
		if s.TestCases != nil {
			out[i].TestCases = make(MockTestCases, len(s.TestCases))
			for j, tc := range s.TestCases {
				tc.Steps = append([]string(nil), tc.Steps...)
				out[i].TestCases[j] = tc
			}
		}
	}
	return out
}
