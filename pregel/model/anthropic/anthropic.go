// Package anthropic adapts Anthropic's Claude API to model.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowgraph/pregel/model"
)

// ChatModel implements model.ChatModel for Claude. System messages are
// extracted and sent via Anthropic's separate system parameter rather than
// in the message list.
type ChatModel struct {
	modelName string
	client    anthropicClient
}

type anthropicClient interface {
	createMessage(ctx context.Context, systemPrompt string, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error)
}

// NewChatModel creates a Claude-backed ChatModel. An empty modelName
// defaults to claude-3-5-sonnet-20241022.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-3-5-sonnet-20241022"
	}
	return &ChatModel{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	systemPrompt, conversation := extractSystemPrompt(messages)
	out, err := m.client.createMessage(ctx, systemPrompt, conversation, tools)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}
	return out, nil
}

func extractSystemPrompt(messages []model.Message) (string, []model.Message) {
	var system string
	var rest []model.Message
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createMessage(ctx context.Context, systemPrompt string, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("anthropic API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  convertMessages(messages),
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, err
	}
	return convertResponse(resp, c.modelName), nil
}

func convertMessages(messages []model.Message) []anthropicsdk.MessageParam {
	result := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			result[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			result[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return result
}

func convertTools(tools []model.ToolSpec) []anthropicsdk.ToolUnionParam {
	result := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties any
		var required []string
		if tool.Schema != nil {
			if props, ok := tool.Schema["properties"]; ok {
				properties = props
			}
			if req, ok := tool.Schema["required"].([]string); ok {
				required = req
			}
		}
		result[i] = anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        tool.Name,
				Description: anthropicsdk.String(tool.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{Properties: properties, Required: required},
			},
		}
	}
	return result
}

func convertResponse(resp *anthropicsdk.Message, modelName string) model.ChatOut {
	out := model.ChatOut{Model: modelName}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		case anthropicsdk.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{ID: b.ID, Name: b.Name, Input: convertToolInput(b.Input)})
		}
	}
	out.InputTokens = int(resp.Usage.InputTokens)
	out.OutputTokens = int(resp.Usage.OutputTokens)
	return out
}

func convertToolInput(input any) map[string]any {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]any); ok {
		return m
	}
	return map[string]any{"_raw": input}
}
