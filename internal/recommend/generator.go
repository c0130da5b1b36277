// Package recommend asks a language model for new test plans based on a PRD
// and the test cases a plan already holds.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// Sampling settings for every recommendation request.
const (
	Temperature = 0.7
	TopP        = 0.9
	MaxTokens   = 4000
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest is a single-completion chat request.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// ChatClient is the language-model client. It returns the text of the one
// completion requested.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// TestCaseLister reads the test cases already in a plan.
type TestCaseLister interface {
	ListPlanTestCases(ctx context.Context, planID int) ([]testplan.TestCase, error)
}

// Request is the input of one generation.
type Request struct {
	PRD        string
	TestPlanID int
}

// Result is what the recommendation endpoint returns as data.
type Result struct {
	TestPlanID             int                             `json:"testPlanId"`
	PRDLength              int                             `json:"prdLength"`
	ExistingTestCasesCount int                             `json:"existingTestCasesCount"`
	Recommendations        []models.TestPlanRecommendation `json:"recommendations"`
	GeneratedAt            time.Time                       `json:"generatedAt"`
}

// Recommender produces recommendations for a plan.
type Recommender interface {
	Generate(ctx context.Context, cases TestCaseLister, req Request) (*Result, error)
}

// Generator is the Recommender backed by a ChatClient.
type Generator struct {
	chat   ChatClient
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator.
func NewGenerator(chat ChatClient, opts ...Option) *Generator {
	g := &Generator{
		chat:   chat,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one recommendation round. Reading existing test cases is
// best-effort; a failure there only leaves the count at zero.
func (g *Generator) Generate(ctx context.Context, cases TestCaseLister, req Request) (*Result, error) {
	if req.PRD == "" {
		return nil, errors.New("prd is required")
	}

	existing := g.existingTestCases(ctx, cases, req.TestPlanID)

	content, err := g.chat.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req.PRD, req.TestPlanID, existing)},
		},
		Temperature: Temperature,
		TopP:        TopP,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		if IsConfigError(err) || IsUpstreamError(err) {
			return nil, err
		}
		return nil, NewUpstreamError(fmt.Errorf("language model request failed: %w", err))
	}
	if content == "" {
		return nil, NewUpstreamError(errors.New("empty response from language model"))
	}

	recs, err := ParseRecommendations(content)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			g.logger.Error("failed to parse recommendations",
				"test_plan_id", req.TestPlanID,
				"error", parseErr.Err,
				"raw_content", parseErr.RawContent)
		}
		return nil, err
	}

	g.logger.Info("generated recommendations",
		"test_plan_id", req.TestPlanID,
		"existing_test_cases", len(existing),
		"recommendations", len(recs))

	return &Result{
		TestPlanID:             req.TestPlanID,
		PRDLength:              utf8.RuneCountInString(req.PRD),
		ExistingTestCasesCount: len(existing),
		Recommendations:        recs,
		GeneratedAt:            g.now().UTC(),
	}, nil
}

func (g *Generator) existingTestCases(ctx context.Context, cases TestCaseLister, planID int) []ExistingTestCase {
	if cases == nil {
		return nil
	}
	list, err := cases.ListPlanTestCases(ctx, planID)
	if err != nil {
		g.logger.Warn("could not load existing test cases", "test_plan_id", planID, "error", err)
		return nil
	}

	existing := make([]ExistingTestCase, 0, len(list))
	for _, tc := range list {
		if tc.WorkItem == nil || tc.WorkItem.Id == nil {
			continue
		}
		e := ExistingTestCase{ID: *tc.WorkItem.Id}
		if tc.WorkItem.Name != nil {
			e.Title = *tc.WorkItem.Name
		}
		if tc.TestSuite != nil && tc.TestSuite.Name != nil {
			e.Suite = *tc.TestSuite.Name
		}
		existing = append(existing, e)
	}
	return existing
}

type unavailable struct {
	err error
}

// Unavailable returns a Recommender that always fails with a ConfigError
// wrapping err. The server uses it when the language model is not configured.
func Unavailable(err error) Recommender {
	if !IsConfigError(err) {
		err = NewConfigError(err)
	}
	return &unavailable{err: err}
}

func (u *unavailable) Generate(context.Context, TestCaseLister, Request) (*Result, error) {
	return nil, u.err
}
