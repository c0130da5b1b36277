package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/models"
	"github.com/khushigoel4699/Testplansserver/internal/repository"
)

var (
	// ErrConnectionNotFound is returned for a resourceId with no saved connection.
	ErrConnectionNotFound = errors.New("no connection found")

	// ErrValidation marks a request that failed input checks.
	ErrValidation = errors.New("validation failed")
)

// Mock suite constants.
const (
	IssueSuiteName       = "GitHub Issue Suite"
	IssueStatusCreating  = "Creating"
	sampleTestCaseName   = "Sample Test Case"
	connectionSavedMsg   = "Connection saved successfully"
	connectionSavedState = "success"
)

var sampleTestCaseSteps = []string{
	"Navigate to the feature under test",
	"Perform the primary user action",
	"Verify the expected result is displayed",
}

// Event types published per resourceId.
const (
	EventConnectionSaved = "connection_saved"
	EventSuitesSynced    = "suites_synced"
	EventIssueCreated    = "issue_created"
)

// Broadcaster publishes registry events to subscribers of a resourceId.
type Broadcaster interface {
	Broadcast(resourceID string, eventType string, payload interface{})
}

// IntegrationService 外部集成注册表服务接口. resourceIds are not
// authenticated: any caller who knows one can read or change its data.
type IntegrationService interface {
	SaveConnection(resourceID string, req *SaveConnectionRequest) (*SaveConnectionResponse, error)
	GetConnection(resourceID string) (*models.Connection, error)

	// ListVendorPlansAsSuites replaces the resourceId's mock suites with one
	// suite per Azure DevOps test plan.
	ListVendorPlansAsSuites(ctx context.Context, resourceID string) ([]models.MockTestSuite, error)

	// SimulateIssueCreation records a simulated GitHub issue against the
	// suite whose testCaseId matches. Nothing external is called.
	SimulateIssueCreation(resourceID, testCaseID string, req *CreateIssueRequest) ([]models.MockTestSuite, error)
}

type integrationService struct {
	connections repository.ConnectionRepository
	suites      repository.SuiteRepository
	vendor      ado.Source
	events      Broadcaster
	logger      *slog.Logger
	newID       func() string
}

// NewIntegrationService creates the registry service. events may be nil.
func NewIntegrationService(
	connections repository.ConnectionRepository,
	suites repository.SuiteRepository,
	vendor ado.Source,
	events Broadcaster,
	logger *slog.Logger,
) IntegrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &integrationService{
		connections: connections,
		suites:      suites,
		vendor:      vendor,
		events:      events,
		logger:      logger,
		newID:       NewShortID,
	}
}

// ===== Request/Response DTOs =====

type SaveConnectionRequest struct {
	GithubURL  string `json:"github_url"`
	PRD        string `json:"prd"`
	AdoURL     string `json:"ado_url"`
	WebsiteURL string `json:"website_url"`
}

type SaveConnectionResponse struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	ResourceID   string `json:"resourceId"`
	ConnectionID string `json:"connectionId"`
}

// MsgIssueFieldsRequired answers a createIssue body without title or body.
const MsgIssueFieldsRequired = "title and body are required"

type CreateIssueRequest struct {
	Title     string     `json:"title" binding:"required,notblank"`
	Body      string     `json:"body" binding:"required,notblank"`
	Labels    StringList `json:"labels"`
	Assignees StringList `json:"assignees"`
}

// StringList decodes from a JSON array of strings or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// ===== Implementation =====

func (s *integrationService) SaveConnection(resourceID string, req *SaveConnectionRequest) (*SaveConnectionResponse, error) {
	conn := &models.Connection{
		ResourceID:   resourceID,
		ConnectionID: s.newID(),
		GithubURL:    req.GithubURL,
		PRD:          req.PRD,
		AdoURL:       req.AdoURL,
		WebsiteURL:   req.WebsiteURL,
	}
	if err := s.connections.Set(conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Info("connection saved", "resource_id", resourceID, "connection_id", conn.ConnectionID)
	s.publish(resourceID, EventConnectionSaved, conn)

	return &SaveConnectionResponse{
		Message:      connectionSavedMsg,
		Status:       connectionSavedState,
		ResourceID:   resourceID,
		ConnectionID: conn.ConnectionID,
	}, nil
}

func (s *integrationService) GetConnection(resourceID string) (*models.Connection, error) {
	conn, err := s.connections.Get(resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w for resourceId: %s", ErrConnectionNotFound, resourceID)
	}
	return conn, nil
}

func (s *integrationService) ListVendorPlansAsSuites(ctx context.Context, resourceID string) ([]models.MockTestSuite, error) {
	if _, err := s.GetConnection(resourceID); err != nil {
		return nil, err
	}

	client, err := s.vendor.Client()
	if err != nil {
		return nil, err
	}
	plans, err := client.ListTestPlans(ctx, true, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list test plans: %w", err)
	}

	suites := make([]models.MockTestSuite, 0, len(plans))
	for _, plan := range plans {
		suites = append(suites, suiteFromPlan(plan))
	}
	if err := s.suites.Set(resourceID, suites); err != nil {
		return nil, fmt.Errorf("failed to store suites: %w", err)
	}

	s.logger.Info("synced test plans as mock suites", "resource_id", resourceID, "suites", len(suites))
	s.publish(resourceID, EventSuitesSynced, map[string]interface{}{"suites": suites})
	return suites, nil
}

func (s *integrationService) SimulateIssueCreation(resourceID, testCaseID string, req *CreateIssueRequest) ([]models.MockTestSuite, error) {
	if _, err := s.GetConnection(resourceID); err != nil {
		return nil, err
	}
	if err := validate(req, MsgIssueFieldsRequired); err != nil {
		return nil, err
	}

	suites, err := s.suites.Update(resourceID, func(current []models.MockTestSuite) ([]models.MockTestSuite, error) {
		for i := range current {
			if current[i].TestCaseID != testCaseID {
				continue
			}
			for j := range current[i].TestCases {
				current[i].TestCases[j].IssueID = s.newID()
				current[i].TestCases[j].Status = IssueStatusCreating
			}
			return current, nil
		}

		return append(current, models.MockTestSuite{
			Name:       IssueSuiteName,
			TestCaseID: testCaseID,
			TestCases: models.MockTestCases{{
				Name:    req.Title,
				Steps:   []string{req.Body},
				IssueID: s.newID(),
				Status:  IssueStatusCreating,
			}},
		}), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record issue: %w", err)
	}

	s.logger.Info("simulated GitHub issue creation",
		"resource_id", resourceID,
		"test_case_id", testCaseID,
		"title", req.Title,
		"labels", req.Labels,
		"assignees", req.Assignees)
	s.publish(resourceID, EventIssueCreated, map[string]interface{}{
		"testCaseId": testCaseID,
		"title":      req.Title,
		"labels":     req.Labels,
		"assignees":  req.Assignees,
	})
	return suites, nil
}

func (s *integrationService) publish(resourceID, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Broadcast(resourceID, eventType, payload)
	}
}

func suiteFromPlan(plan testplan.TestPlan) models.MockTestSuite {
	suite := models.MockTestSuite{
		TestCases: models.MockTestCases{{
			Name:  sampleTestCaseName,
			Steps: append([]string(nil), sampleTestCaseSteps...),
		}},
	}
	if plan.Name != nil {
		suite.Name = *plan.Name
	}
	if plan.Id != nil {
		suite.TestCaseID = strconv.Itoa(*plan.Id)
	}
	return suite
}

// NewShortID returns a 9-character random identifier.
func NewShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
