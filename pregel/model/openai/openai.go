// Package openai adapts OpenAI's chat completions API to model.ChatModel.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/flowgraph/pregel/model"
)

// ChatModel implements model.ChatModel for OpenAI, with built-in retry on
// transient errors (network issues, 5xx, rate limits).
type ChatModel struct {
	modelName  string
	client     openaiClient
	maxRetries int
	retryDelay time.Duration
}

type openaiClient interface {
	createChatCompletion(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error)
}

// NewChatModel creates an OpenAI-backed ChatModel. An empty modelName
// defaults to gpt-4o.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &ChatModel{
		modelName:  modelName,
		client:     &defaultClient{apiKey: apiKey, modelName: modelName},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.createChatCompletion(ctx, messages, tools)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		delay := m.retryDelay
		if isRateLimitError(err) {
			delay = m.retryDelay * time.Duration(attempt+1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}

	return model.ChatOut{}, fmt.Errorf("openai: failed after %d retries: %w", m.maxRetries, lastErr)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var rateLimitErr *rateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "rate limit", "429", "503", "502", "500"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	var rateLimitErr *rateLimitError
	return errors.As(err, &rateLimitErr)
}

type rateLimitError struct{ message string }

func (e *rateLimitError) Error() string { return e.message }

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createChatCompletion(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("openai API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.modelName),
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, err
	}
	return convertResponse(resp, c.modelName), nil
}

func convertMessages(messages []model.Message) []openaisdk.ChatCompletionMessageParamUnion {
	result := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openaisdk.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			result[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return result
}

func convertTools(tools []model.ToolSpec) []openaisdk.ChatCompletionToolParam {
	result := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		result[i] = openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Schema),
			},
		}
	}
	return result
}

func convertResponse(resp *openaisdk.ChatCompletion, modelName string) model.ChatOut {
	out := model.ChatOut{Model: modelName}
	if resp.Usage.TotalTokens > 0 {
		out.InputTokens = int(resp.Usage.PromptTokens)
		out.OutputTokens = int(resp.Usage.CompletionTokens)
	}
	if len(resp.Choices) == 0 {
		return out
	}

	msg := resp.Choices[0].Message
	out.Text = msg.Content
	if len(msg.ToolCalls) > 0 {
		out.ToolCalls = make([]model.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			out.ToolCalls[i] = model.ToolCall{ID: tc.ID, Name: tc.Function.Name, Input: parseToolInput(tc.Function.Arguments)}
		}
	}
	return out
}

func parseToolInput(jsonStr string) map[string]any {
	if jsonStr == "" {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return map[string]any{"_raw": jsonStr}
	}
	return result
}
