package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khushigoel4699/Testplansserver/internal/service"
)

// IntegrationHandler serves the per-resourceId connection and mock suite routes.
type IntegrationHandler struct {
	service service.IntegrationService
}

// NewIntegrationHandler 创建处理器
func NewIntegrationHandler(service service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{service: service}
}

// RegisterRoutes 注册路由. gate guards the routes that reach Azure DevOps.
func (h *IntegrationHandler) RegisterRoutes(r *gin.Engine, gate gin.HandlerFunc) {
	r.POST("/:resourceId/saveConnection", h.SaveConnection)
	r.GET("/:resourceId", h.GetConnection)
	r.GET("/:resourceId/ado_plans", gate, h.ListAdoPlans)
	r.POST("/:resourceId/createIssue/:testCaseId", h.CreateIssue)
}

func (h *IntegrationHandler) SaveConnection(c *gin.Context) {
	var req service.SaveConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.SaveConnection(c.Param("resourceId"), &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *IntegrationHandler) GetConnection(c *gin.Context) {
	conn, err := h.service.GetConnection(c.Param("resourceId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, conn)
}

func (h *IntegrationHandler) ListAdoPlans(c *gin.Context) {
	suites, err := h.service.ListVendorPlansAsSuites(c.Request.Context(), c.Param("resourceId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suites": suites})
}

func (h *IntegrationHandler) CreateIssue(c *gin.Context) {
	resourceID := c.Param("resourceId")
	var req service.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An unknown resourceId answers 404 whatever the body holds.
		if _, connErr := h.service.GetConnection(resourceID); connErr != nil {
			fail(c, connErr)
			return
		}
		badRequest(c, bindErrorMessage(err, service.MsgIssueFieldsRequired))
		return
	}

	suites, err := h.service.SimulateIssueCreation(resourceID, c.Param("testCaseId"), &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suites": suites})
}
