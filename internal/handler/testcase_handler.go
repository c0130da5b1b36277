package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
)

// TestCaseHandler covers test case work items, suite membership and build results.
type TestCaseHandler struct {
	vendor ado.Source
}

// NewTestCaseHandler 创建处理器
func NewTestCaseHandler(vendor ado.Source) *TestCaseHandler {
	return &TestCaseHandler{vendor: vendor}
}

// RegisterRoutes 注册路由. The plan segment is named :id to share the
// wildcard with the /testplans/:id routes.
func (h *TestCaseHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/testcases", h.CreateTestCase)
	api.POST("/testcases/batch", h.GetTestCasesBatch)
	api.GET("/testcases/:id", h.GetTestCase)

	api.POST("/testplans/:id/suites/:suiteId/testcases", h.AddTestCasesToSuite)
	api.GET("/testplans/:id/suites/:suiteId/testcases", h.ListSuiteTestCases)

	api.GET("/builds/:buildId/testresults", h.GetBuildTestResults)
}

// CreateTestCaseRequest 创建测试用例请求
type CreateTestCaseRequest struct {
	Title         string `json:"title" binding:"required,notblank"`
	Steps         string `json:"steps"`
	Priority      int    `json:"priority"`
	AreaPath      string `json:"areaPath"`
	IterationPath string `json:"iterationPath"`
}

// BatchTestCasesRequest holds the raw ids so each rule can be checked in order.
type BatchTestCasesRequest struct {
	IDs interface{} `json:"ids"`
}

// AddTestCasesRequest accepts testCaseIds as an array, a single number or a
// comma separated string.
type AddTestCasesRequest struct {
	TestCaseIDs interface{} `json:"testCaseIds"`
}

const (
	msgTitleRequired  = "Title is required"
	msgIDsRequired    = "ids array is required and cannot be empty"
	msgTooManyIDs     = "Maximum 100 test case IDs allowed per request"
	msgIDsNotPositive = "All IDs must be positive integers"
)

func (h *TestCaseHandler) CreateTestCase(c *gin.Context) {
	var req CreateTestCaseRequest
	if !bindJSON(c, &req, msgTitleRequired) {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	created, err := client.CreateTestCase(c.Request.Context(), ado.CreateTestCaseParams{
		Title:         req.Title,
		Steps:         req.Steps,
		Priority:      req.Priority,
		AreaPath:      req.AreaPath,
		IterationPath: req.IterationPath,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
		"message": "Test case created successfully",
	})
}

func (h *TestCaseHandler) GetTestCase(c *gin.Context) {
	id, ok := intParam(c, "id", "test case ID")
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	detail, err := client.GetTestCase(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func (h *TestCaseHandler) GetTestCasesBatch(c *gin.Context) {
	var req BatchTestCasesRequest
	// A missing or malformed body is reported as missing ids.
	_ = c.ShouldBindJSON(&req)

	ids, msg := validateBatchIDs(req.IDs)
	if msg != "" {
		badRequest(c, msg)
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	details, err := client.GetTestCases(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    details,
		"count":   len(details),
	})
}

func (h *TestCaseHandler) AddTestCasesToSuite(c *gin.Context) {
	planID, ok := intParam(c, "id", "plan ID")
	if !ok {
		return
	}
	suiteID, ok := intParam(c, "suiteId", "suite ID")
	if !ok {
		return
	}

	var req AddTestCasesRequest
	_ = c.ShouldBindJSON(&req)
	if isEmptyValue(req.TestCaseIDs) {
		badRequest(c, "testCaseIds is required")
		return
	}
	ids, ok := parseTestCaseIDs(req.TestCaseIDs)
	if !ok {
		badRequest(c, "testCaseIds must be positive integers")
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	added, err := client.AddTestCasesToSuite(c.Request.Context(), planID, suiteID, ids)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    added,
		"message": "Test cases added to suite successfully",
	})
}

func (h *TestCaseHandler) ListSuiteTestCases(c *gin.Context) {
	planID, ok := intParam(c, "id", "plan ID")
	if !ok {
		return
	}
	suiteID, ok := intParam(c, "suiteId", "suite ID")
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	cases, err := client.ListSuiteTestCases(c.Request.Context(), planID, suiteID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
		"count":   len(cases),
		"planId":  planID,
		"suiteId": suiteID,
	})
}

func (h *TestCaseHandler) GetBuildTestResults(c *gin.Context) {
	buildID, ok := intParam(c, "buildId", "build ID")
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	results, err := client.GetBuildTestResults(c.Request.Context(), buildID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
		"buildId": buildID,
	})
}

// validateBatchIDs returns the ids or the message of the first rule violated.
func validateBatchIDs(raw interface{}) ([]int, string) {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, msgIDsRequired
	}
	if len(list) > ado.MaxBatchSize {
		return nil, msgTooManyIDs
	}

	ids := make([]int, 0, len(list))
	for _, v := range list {
		n, isNumber := v.(float64)
		if !isNumber {
			return nil, msgIDsNotPositive
		}
		id, ok := positiveInt(n)
		if !ok {
			return nil, msgIDsNotPositive
		}
		ids = append(ids, id)
	}
	return ids, ""
}

func parseTestCaseIDs(raw interface{}) ([]int, bool) {
	var values []interface{}
	switch v := raw.(type) {
	case []interface{}:
		values = v
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	default:
		values = []interface{}{v}
	}
	if len(values) == 0 {
		return nil, false
	}

	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, ok := positiveInt(v)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// positiveInt accepts JSON numbers and numeric strings.
func positiveInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	default:
		return false
	}
}
