package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlan = `{
  "name": "Checkout security",
  "description": "Security checks for checkout",
  "objective": "Prevent payment tampering",
  "testCases": [
    {
      "title": "Reject modified totals",
      "description": "Tamper with the total before submit",
      "steps": ["Add item", "Edit total in request", "Submit"],
      "expectedResult": "Order is rejected",
      "priority": "Critical",
      "testType": "Security"
    }
  ],
  "coverage": {"functionalAreas": ["checkout"], "riskAreas": ["fraud"], "userScenarios": ["guest checkout"]}
}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n[1]\n```", "[1]"},
		{"bare fence", "```\n[1]\n```", "[1]"},
		{"no fence", "  [1]  ", "[1]"},
		{"leading only", "```json [1]", "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseRecommendations_Valid(t *testing.T) {
	recs, err := ParseRecommendations("```json\n[" + validPlan + "]\n```")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "Checkout security", recs[0].Name)
	require.Len(t, recs[0].TestCases, 1)
	assert.Equal(t, []string{"Add item", "Edit total in request", "Submit"}, recs[0].TestCases[0].Steps)
	assert.Equal(t, "Security", recs[0].TestCases[0].TestType)
	require.NotNil(t, recs[0].Coverage)
	assert.Equal(t, []string{"fraud"}, recs[0].Coverage.RiskAreas)
}

func TestParseRecommendations_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"invalid json", "this is not json", "invalid character"},
		{"single object not array", validPlan, "not a JSON array"},
		{"missing objective", `[{"name":"a","description":"b","testCases":[]}]`, `"objective"`},
		{"testCases not array", `[{"name":"a","description":"b","objective":"c","testCases":{}}]`, "testCases array"},
		{"case without steps", `[{"name":"a","description":"b","objective":"c","testCases":[{"title":"t","description":"d","expectedResult":"e"}]}]`, "steps array"},
		{"case without expectedResult", `[{"name":"a","description":"b","objective":"c","testCases":[{"title":"t","description":"d","steps":[]}]}]`, `"expectedResult"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecommendations(tt.content)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.Contains(t, err.Error(), "Failed to parse recommendations")
			assert.Contains(t, err.Error(), tt.msg)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.content, parseErr.RawContent)
		})
	}
}

func TestParseRecommendations_EmptyArray(t *testing.T) {
	recs, err := ParseRecommendations("[]")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseRecommendations_LenientOptionalFields(t *testing.T) {
	content := `[{
	  "name": "Search",
	  "description": "Search relevance",
	  "objective": "Find products",
	  "coverage": "broad",
	  "testCases": [
	    {
	      "title": "Exact match",
	      "description": "Search by full product name",
	      "steps": [{"action": "Type the name", "expected": "Suggestions open"}, "Press enter", 3],
	      "expectedResult": "Product is first",
	      "priority": 1,
	      "testType": 7
	    },
	    {
	      "title": "Typo",
	      "description": "Search with a typo",
	      "steps": [],
	      "expectedResult": "Product still found",
	      "priority": 9
	    }
	  ]
	}]`

	recs, err := ParseRecommendations(content)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Coverage)

	first := recs[0].TestCases[0]
	assert.Equal(t, []string{"Type the name|Suggestions open", "Press enter", "3"}, first.Steps)
	assert.Equal(t, "Critical", first.Priority)
	assert.Empty(t, first.TestType)

	second := recs[0].TestCases[1]
	assert.Equal(t, "9", second.Priority)
	assert.NotNil(t, second.Steps)
	assert.Empty(t, second.Steps)
}

func TestSystemPromptListsChoices(t *testing.T) {
	assert.Contains(t, systemPrompt, `"priority": "Critical | High | Medium | Low"`)
	assert.Contains(t, systemPrompt, "Functional, Integration, Performance, Security, Usability, Regression")
	assert.NotContains(t, systemPrompt, "{{")
}
