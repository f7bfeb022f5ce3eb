package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"znews/internal/article"
)

const chatSystemPrompt = "你是一名科技新闻编辑。请将用户提供的新闻内容翻译并总结为一段简洁的中文摘要，" +
	"不超过150字。保留公司名、产品名等专有名词，只输出摘要本身。"

// ChatProvider covers the OpenAI-compatible endpoints (DeepSeek, GLM). They
// share the chat-completion wire format and differ only in base URL, model
// name and input budget.
type ChatProvider struct {
	name          string
	client        *openai.Client
	model         string
	maxInputRunes int
}

func NewDeepSeek(apiKey string) *ChatProvider {
	return newChatProvider("deepseek", "https://api.deepseek.com/v1", "deepseek-chat", 800, apiKey)
}

func NewGLM(apiKey string) *ChatProvider {
	return newChatProvider("glm", "https://open.bigmodel.cn/api/paas/v4", "glm-4-flash", 500, apiKey)
}

func newChatProvider(name, baseURL, model string, maxInputRunes int, apiKey string) *ChatProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &ChatProvider{
		name:          name,
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		maxInputRunes: maxInputRunes,
	}
}

func (p *ChatProvider) Name() string { return p.name }

func (p *ChatProvider) Summarize(ctx context.Context, text string) (string, error) {
	text = article.Truncate(strings.TrimSpace(text), p.maxInputRunes)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode == 503) {
			return "", &RateLimitError{Provider: p.name, StatusCode: apiErr.HTTPStatusCode}
		}
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty %s response", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
