package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"znews/internal/article"
)

const geminiModel = "gemini-1.5-flash"

// geminiInputRunes caps the prompt payload; Gemini tolerates longer input
// than the OpenAI-compatible endpoints.
const geminiInputRunes = 800

const geminiPrompt = `请将下面的新闻内容翻译并总结为一段简洁的中文摘要，不超过150字。
要求：保留公司名、产品名等专有名词；不要加“本文讲述”之类的引语；只输出摘要本身。

新闻内容：
%s`

// Gemini summarizes through Google's hosted Gemini API.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Summarize(ctx context.Context, text string) (string, error) {
	text = article.Truncate(strings.TrimSpace(text), geminiInputRunes)

	model := g.client.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(geminiPrompt, text)))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == 429 || gerr.Code == 503) {
			return "", &RateLimitError{Provider: g.Name(), StatusCode: gerr.Code}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty gemini response")
	}

	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
