package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
)

// TestPlanHandler proxies test plan CRUD to Azure DevOps.
type TestPlanHandler struct {
	vendor ado.Source
}

// NewTestPlanHandler 创建处理器
func NewTestPlanHandler(vendor ado.Source) *TestPlanHandler {
	return &TestPlanHandler{vendor: vendor}
}

// RegisterRoutes 注册路由
func (h *TestPlanHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/testplans", h.ListTestPlans)
	api.GET("/testplans/:id", h.GetTestPlan)
	api.POST("/testplans", h.CreateTestPlan)
	api.PUT("/testplans/:id", h.UpdateTestPlan)
	api.DELETE("/testplans/:id", h.DeleteTestPlan)
}

// CreateTestPlanRequest 创建测试计划请求
type CreateTestPlanRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Iteration   string `json:"iteration" binding:"required,notblank"`
	Description string `json:"description"`
	AreaPath    string `json:"areaPath"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// UpdateTestPlanRequest 更新测试计划请求
type UpdateTestPlanRequest struct {
	Name        string `json:"name"`
	Iteration   string `json:"iteration" binding:"required,notblank"`
	Description string `json:"description"`
	AreaPath    string `json:"areaPath"`
	State       string `json:"state"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

const (
	msgPlanFieldsRequired = "Name and iteration are required fields"
	msgIterationRequired  = "Iteration is required for updating test plan"
)

func (h *TestPlanHandler) ListTestPlans(c *gin.Context) {
	filterActivePlans, ok := boolQuery(c, "filterActivePlans", true)
	if !ok {
		return
	}
	includePlanDetails, ok := boolQuery(c, "includePlanDetails", false)
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	plans, err := client.ListTestPlans(c.Request.Context(), filterActivePlans, includePlanDetails)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    plans,
		"count":   len(plans),
		"filters": gin.H{
			"filterActivePlans":  filterActivePlans,
			"includePlanDetails": includePlanDetails,
		},
	})
}

func (h *TestPlanHandler) GetTestPlan(c *gin.Context) {
	id, ok := intParam(c, "id", "test plan ID")
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	plan, err := client.GetTestPlan(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": plan})
}

func (h *TestPlanHandler) CreateTestPlan(c *gin.Context) {
	var req CreateTestPlanRequest
	if !bindJSON(c, &req, msgPlanFieldsRequired) {
		return
	}
	startDate, ok := dateField(c, "startDate", req.StartDate)
	if !ok {
		return
	}
	endDate, ok := dateField(c, "endDate", req.EndDate)
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	plan, err := client.CreateTestPlan(c.Request.Context(), ado.CreateTestPlanParams{
		Name:        req.Name,
		Iteration:   req.Iteration,
		Description: req.Description,
		AreaPath:    req.AreaPath,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    plan,
		"message": "Test plan created successfully",
	})
}

func (h *TestPlanHandler) UpdateTestPlan(c *gin.Context) {
	id, ok := intParam(c, "id", "test plan ID")
	if !ok {
		return
	}

	var req UpdateTestPlanRequest
	if !bindJSON(c, &req, msgIterationRequired) {
		return
	}
	startDate, ok := dateField(c, "startDate", req.StartDate)
	if !ok {
		return
	}
	endDate, ok := dateField(c, "endDate", req.EndDate)
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	plan, err := client.UpdateTestPlan(c.Request.Context(), id, ado.UpdateTestPlanParams{
		Name:        req.Name,
		Iteration:   req.Iteration,
		Description: req.Description,
		AreaPath:    req.AreaPath,
		State:       req.State,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    plan,
		"message": "Test plan updated successfully",
	})
}

func (h *TestPlanHandler) DeleteTestPlan(c *gin.Context) {
	id, ok := intParam(c, "id", "test plan ID")
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}
	if err := client.DeleteTestPlan(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test plan " + strconv.Itoa(id) + " deleted successfully",
	})
}

func boolQuery(c *gin.Context, name string, def bool) (bool, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "Invalid "+name+": must be true or false")
		return false, false
	}
	return v, true
}

// dateField accepts RFC3339 timestamps and plain 2006-01-02 dates.
func dateField(c *gin.Context, name, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	badRequest(c, "Invalid "+name+": expected an ISO 8601 date")
	return nil, false
}
