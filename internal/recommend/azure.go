package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/khushigoel4699/Testplansserver/internal/config"
)

const defaultDeployment = "gpt-4"

// azureChatClient talks to an Azure OpenAI chat deployment.
type azureChatClient struct {
	client     *openai.Client
	deployment string
}

// NewAzureChatClient builds a ChatClient for the configured deployment. A
// missing endpoint or key yields a ConfigError.
func NewAzureChatClient(cfg config.OpenAIConfig) (ChatClient, error) {
	var missing []string
	if cfg.Endpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return nil, NewConfigError(fmt.Errorf("Azure OpenAI is not configured: missing %s", strings.Join(missing, ", ")))
	}

	deployment := cfg.DeploymentName
	if deployment == "" {
		deployment = defaultDeployment
	}

	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientConfig.APIVersion = cfg.APIVersion
	}
	clientConfig.AzureModelMapperFunc = func(string) string {
		return deployment
	}

	return &azureChatClient{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: deployment,
	}, nil
}

func (c *azureChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.deployment,
		Messages:    messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		N:           1,
	})
	if err != nil {
		return "", NewUpstreamError(fmt.Errorf("Azure OpenAI request failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", NewUpstreamError(errors.New("Azure OpenAI returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
