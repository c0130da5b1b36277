package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

var systemPrompt = strings.NewReplacer(
	"{{testTypes}}", strings.Join(models.RecommendationTestTypes, ", "),
	"{{testTypeChoices}}", strings.Join(models.RecommendationTestTypes, " | "),
	"{{priorities}}", strings.Join(models.RecommendationPriorities, ", "),
	"{{priorityChoices}}", strings.Join(models.RecommendationPriorities, " | "),
).Replace(systemPromptTemplate)

const systemPromptTemplate = `You are a senior QA architect who designs test plans from product requirements.

Given a Product Requirements Document (PRD) and the test plans that already exist, propose 2 to 3 NEW test plans.
Rules:
- Do not duplicate or restate any existing test plan or test case; every plan must cover ground the existing ones do not.
- Mix test types across the plans: {{testTypes}}.
- Mix priorities across the test cases: {{priorities}}.
- Each test case needs concrete, ordered steps and a single verifiable expected result.

Respond with ONLY a JSON array, no prose and no markdown. Each element must have this shape:
{
  "name": "string",
  "description": "string",
  "objective": "string",
  "testCases": [
    {
      "title": "string",
      "description": "string",
      "steps": ["string"],
      "expectedResult": "string",
      "priority": "{{priorityChoices}}",
      "testType": "{{testTypeChoices}}"
    }
  ],
  "coverage": {
    "functionalAreas": ["string"],
    "riskAreas": ["string"],
    "userScenarios": ["string"]
  }
}`

// ExistingTestCase is the slice of an existing test case shown to the model.
type ExistingTestCase struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Suite string `json:"suite,omitempty"`
}

func buildUserPrompt(prd string, testPlanID int, existing []ExistingTestCase) string {
	var b strings.Builder
	b.WriteString("Product Requirements Document:\n")
	b.WriteString(prd)
	b.WriteString("\n")

	if len(existing) > 0 {
		dump, err := json.MarshalIndent(existing, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "\nExisting test plans (test plan %d):\n%s\n", testPlanID, dump)
		}
	}

	b.WriteString("\nGenerate 2-3 new test plans as a JSON array.")
	return b.String()
}
