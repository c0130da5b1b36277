package ado

import (
	"fmt"
	"strings"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
)

// Work item field reference names used for Test Case items.
const (
	FieldTitle         = "System.Title"
	FieldState         = "System.State"
	FieldAreaPath      = "System.AreaPath"
	FieldIterationPath = "System.IterationPath"
	FieldAssignedTo    = "System.AssignedTo"
	FieldCreatedDate   = "System.CreatedDate"
	FieldChangedDate   = "System.ChangedDate"
	FieldPriority      = "Microsoft.VSTS.Common.Priority"
	FieldSteps         = "Microsoft.VSTS.TCM.Steps"
)

// Step is one action/expectation pair of a test case.
type Step struct {
	Action   string `json:"action" yaml:"action"`
	Expected string `json:"expected" yaml:"expected"`
}

// FormatSteps renders steps in the "N. step text|expected result" encoding,
// one per line. The server treats the result as opaque.
func FormatSteps(steps []Step) string {
	lines := make([]string, 0, len(steps))
	for i, s := range steps {
		lines = append(lines, fmt.Sprintf("%d. %s|%s", i+1, s.Action, s.Expected))
	}
	return strings.Join(lines, "\n")
}

func detailFromWorkItem(item *workitemtracking.WorkItem) TestCaseDetail {
	var detail TestCaseDetail
	if item == nil {
		return detail
	}
	if item.Id != nil {
		detail.ID = *item.Id
	}
	if item.Rev != nil {
		detail.Rev = *item.Rev
	}
	if item.Url != nil {
		detail.URL = *item.Url
	}
	if item.Fields == nil {
		return detail
	}

	fields := *item.Fields
	detail.Title = stringField(fields, FieldTitle)
	detail.State = stringField(fields, FieldState)
	detail.AreaPath = stringField(fields, FieldAreaPath)
	detail.IterationPath = stringField(fields, FieldIterationPath)
	detail.Steps = stringField(fields, FieldSteps)
	detail.Priority = intField(fields, FieldPriority)
	detail.AssignedTo = identityField(fields, FieldAssignedTo)
	detail.CreatedDate = timeField(fields, FieldCreatedDate)
	detail.ChangedDate = timeField(fields, FieldChangedDate)
	return detail
}

// orderDetails returns one detail per requested id that the vendor returned,
// in request order.
func orderDetails(ids []int, items []workitemtracking.WorkItem) []TestCaseDetail {
	byID := make(map[int]TestCaseDetail, len(items))
	for i := range items {
		d := detailFromWorkItem(&items[i])
		byID[d.ID] = d
	}

	out := make([]TestCaseDetail, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// identityField handles both the identity-ref object and the plain
// "Name <email>" string forms of System.AssignedTo.
func identityField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case map[string]interface{}:
		if name, ok := v["displayName"].(string); ok {
			return name
		}
		if name, ok := v["uniqueName"].(string); ok {
			return name
		}
	}
	return ""
}

func timeField(fields map[string]interface{}, key string) *time.Time {
	s, ok := fields[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
