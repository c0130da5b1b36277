package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// StripCodeFences removes a leading ```json (or bare ```) marker and a
// trailing ``` marker from a model reply.
func StripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseRecommendations strips fences, decodes a JSON array and validates the
// shape of every plan and test case. Failures come back as *ParseError.
func ParseRecommendations(content string) ([]models.TestPlanRecommendation, error) {
	cleaned := StripCodeFences(content)

	var raw interface{}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ParseError{Err: err, RawContent: content}
	}
	if err := validateShape(raw); err != nil {
		return nil, &ParseError{Err: err, RawContent: content}
	}

	plans := raw.([]interface{})
	recs := make([]models.TestPlanRecommendation, 0, len(plans))
	for _, p := range plans {
		recs = append(recs, toRecommendation(p.(map[string]interface{})))
	}
	return recs, nil
}

func validateShape(raw interface{}) error {
	plans, ok := raw.([]interface{})
	if !ok {
		return errors.New("response is not a JSON array")
	}

	for i, p := range plans {
		plan, ok := p.(map[string]interface{})
		if !ok {
			return fmt.Errorf("recommendation %d is not an object", i)
		}
		for _, field := range []string{"name", "description", "objective"} {
			if _, ok := plan[field].(string); !ok {
				return fmt.Errorf("recommendation %d is missing required string field %q", i, field)
			}
		}
		cases, ok := plan["testCases"].([]interface{})
		if !ok {
			return fmt.Errorf("recommendation %d is missing testCases array", i)
		}
		for j, c := range cases {
			if err := validateTestCase(c); err != nil {
				return fmt.Errorf("recommendation %d test case %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func validateTestCase(raw interface{}) error {
	tc, ok := raw.(map[string]interface{})
	if !ok {
		return errors.New("not an object")
	}
	for _, field := range []string{"title", "description", "expectedResult"} {
		if _, ok := tc[field].(string); !ok {
			return fmt.Errorf("missing required string field %q", field)
		}
	}
	if _, ok := tc["steps"].([]interface{}); !ok {
		return errors.New("missing steps array")
	}
	return nil
}

// toRecommendation builds a plan from an already validated object. Optional
// fields of an unexpected type are dropped rather than failing the reply.
func toRecommendation(plan map[string]interface{}) models.TestPlanRecommendation {
	rec := models.TestPlanRecommendation{
		Name:        plan["name"].(string),
		Description: plan["description"].(string),
		Objective:   plan["objective"].(string),
		Coverage:    toCoverage(plan["coverage"]),
	}

	cases := plan["testCases"].([]interface{})
	rec.TestCases = make([]models.RecommendedTestCase, 0, len(cases))
	for _, c := range cases {
		tc := c.(map[string]interface{})
		steps := tc["steps"].([]interface{})

		out := models.RecommendedTestCase{
			Title:          tc["title"].(string),
			Description:    tc["description"].(string),
			ExpectedResult: tc["expectedResult"].(string),
			Steps:          make([]string, 0, len(steps)),
			Priority:       toPriority(tc["priority"]),
		}
		out.TestType, _ = tc["testType"].(string)
		for _, step := range steps {
			out.Steps = append(out.Steps, stepText(step))
		}
		rec.TestCases = append(rec.TestCases, out)
	}
	return rec
}

// stepText flattens one step. Objects with an action and an expectation use
// the "action|expected" form.
func stepText(step interface{}) string {
	switch v := step.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]interface{}:
		action := firstString(v, "action", "step", "description")
		expected := firstString(v, "expected", "expectedResult", "result")
		switch {
		case action != "" && expected != "":
			return action + "|" + expected
		case action != "":
			return action
		}
	}
	raw, err := json.Marshal(step)
	if err != nil {
		return fmt.Sprint(step)
	}
	return string(raw)
}

// toPriority keeps string priorities and maps 1-based numbers onto the
// priority names.
func toPriority(v interface{}) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		n := int(p)
		if float64(n) == p && n >= 1 && n <= len(models.RecommendationPriorities) {
			return models.RecommendationPriorities[n-1]
		}
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return ""
}

func toCoverage(v interface{}) *models.Coverage {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return &models.Coverage{
		FunctionalAreas: stringList(obj["functionalAreas"]),
		RiskAreas:       stringList(obj["riskAreas"]),
		UserScenarios:   stringList(obj["userScenarios"]),
	}
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
