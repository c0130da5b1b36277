package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/testplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChat struct {
	content string
	err     error
	got     ChatRequest
}

func (s *stubChat) Complete(_ context.Context, req ChatRequest) (string, error) {
	s.got = req
	return s.content, s.err
}

type stubLister struct {
	cases []testplan.TestCase
	err   error
}

func (s *stubLister) ListPlanTestCases(context.Context, int) ([]testplan.TestCase, error) {
	return s.cases, s.err
}

func suiteCase(id int, name string) testplan.TestCase {
	return testplan.TestCase{WorkItem: &testplan.WorkItemDetails{Id: &id, Name: &name}}
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGenerate_Success(t *testing.T) {
	chat := &stubChat{content: "```json\n[" + validPlan + "]\n```"}
	lister := &stubLister{cases: []testplan.TestCase{suiteCase(101, "Login with SSO"), suiteCase(102, "Logout")}}
	g := NewGenerator(chat, WithClock(fixedClock))

	res, err := g.Generate(context.Background(), lister, Request{PRD: "Users can check out", TestPlanID: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TestPlanID)
	assert.Equal(t, len("Users can check out"), res.PRDLength)
	assert.Equal(t, 2, res.ExistingTestCasesCount)
	assert.Len(t, res.Recommendations, 1)
	assert.Equal(t, fixedClock(), res.GeneratedAt)

	require.Len(t, chat.got.Messages, 2)
	assert.Equal(t, "system", chat.got.Messages[0].Role)
	assert.Contains(t, chat.got.Messages[0].Content, "2 to 3 NEW test plans")
	assert.Contains(t, chat.got.Messages[1].Content, "Users can check out")
	assert.Contains(t, chat.got.Messages[1].Content, "Login with SSO")
	assert.InDelta(t, 0.7, chat.got.Temperature, 0.0001)
	assert.InDelta(t, 0.9, chat.got.TopP, 0.0001)
	assert.Equal(t, MaxTokens, chat.got.MaxTokens)
}

func TestGenerate_ExistingCasesAreBestEffort(t *testing.T) {
	chat := &stubChat{content: "[" + validPlan + "]"}
	g := NewGenerator(chat)

	res, err := g.Generate(context.Background(), &stubLister{err: errors.New("boom")}, Request{PRD: "p", TestPlanID: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExistingTestCasesCount)
	assert.False(t, strings.Contains(chat.got.Messages[1].Content, "Existing test plans"))
}

func TestGenerate_InvalidJSONIsParseError(t *testing.T) {
	g := NewGenerator(&stubChat{content: "{not json"})

	_, err := g.Generate(context.Background(), nil, Request{PRD: "p", TestPlanID: 1})
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestGenerate_SingleObjectIsRejected(t *testing.T) {
	g := NewGenerator(&stubChat{content: validPlan})

	_, err := g.Generate(context.Background(), nil, Request{PRD: "p", TestPlanID: 1})
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestGenerate_EmptyContentIsUpstreamError(t *testing.T) {
	g := NewGenerator(&stubChat{content: ""})

	_, err := g.Generate(context.Background(), nil, Request{PRD: "p", TestPlanID: 1})
	assert.True(t, IsUpstreamError(err))
}

func TestGenerate_ChatFailureIsUpstreamError(t *testing.T) {
	g := NewGenerator(&stubChat{err: errors.New("connection reset")})

	_, err := g.Generate(context.Background(), nil, Request{PRD: "p", TestPlanID: 1})
	assert.True(t, IsUpstreamError(err))
	assert.ErrorContains(t, err, "connection reset")
}

func TestUnavailable(t *testing.T) {
	r := Unavailable(errors.New("missing AZURE_OPENAI_ENDPOINT"))

	_, err := r.Generate(context.Background(), nil, Request{PRD: "p", TestPlanID: 1})
	assert.True(t, IsConfigError(err))
	assert.ErrorContains(t, err, "AZURE_OPENAI_ENDPOINT")
}

func TestBuildUserPrompt_OmitsExistingSectionWhenEmpty(t *testing.T) {
	prompt := buildUserPrompt("the prd", 3, nil)
	assert.Contains(t, prompt, "the prd")
	assert.NotContains(t, prompt, "Existing test plans")

	prompt = buildUserPrompt("the prd", 3, []ExistingTestCase{{ID: 1, Title: "A"}})
	assert.Contains(t, prompt, "Existing test plans (test plan 3)")
	assert.Contains(t, prompt, `"title": "A"`)
}
