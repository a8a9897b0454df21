package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// insightResponse is the structured output schema requested from OpenAI.
type insightResponse struct {
	Insights []string `json:"insights" jsonschema_description:"Distinct analysis findings, one per entry"`
}

// openaiClient is the OpenAI implementation of LLMClient.
type openaiClient struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

func newOpenAIClient(cfg LLMConfig) (LLMClient, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4-turbo-preview"
	}

	return &openaiClient{
		client: openai.NewClient(opts...),
		model:  model,
		log:    zap.L(),
	}, nil
}

// Analyze runs one chat completion with a JSON-schema response format
// and flattens the structured insights back into text.
func (c *openaiClient) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultAnalysisMaxTokens
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "analysis_insights",
		Description: openai.String("Structured analysis findings"),
		Schema:      GenerateSchema[insightResponse](),
		Strict:      openai.Bool(true),
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}

	c.log.Debug("openai analysis completed",
		zap.String("model", c.model),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	var structured insightResponse
	if err := json.Unmarshal([]byte(content), &structured); err == nil && len(structured.Insights) > 0 {
		content = strings.Join(structured.Insights, "\n")
	}

	return &AnalysisResult{
		Content:          content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *openaiClient) Provider() string {
	return ProviderOpenAI
}

func (c *openaiClient) Model() string {
	return c.model
}
