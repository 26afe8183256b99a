// Package google adapts Google's Gemini API to model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/flowgraph/pregel/model"
)

// ChatModel implements model.ChatModel for Gemini. Chat returns a
// *SafetyFilterError unchanged when its client reports one; the default
// client does not build one from Gemini's block responses, so a safety
// block from the real API surfaces as the SDK's own error.
type ChatModel struct {
	modelName string
	client    googleClient
}

type googleClient interface {
	generateContent(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error)
}

// NewChatModel creates a Gemini-backed ChatModel. An empty modelName
// defaults to gemini-1.5-flash.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
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

	out, err := m.client.generateContent(ctx, messages, tools)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return model.ChatOut{}, safetyErr
		}
		return model.ChatOut{}, err
	}
	return out, nil
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: creating client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(c.modelName)
	if len(tools) > 0 {
		genModel.Tools = convertTools(tools)
	}

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		return model.ChatOut{}, err
	}
	return convertResponse(resp, c.modelName), nil
}

func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertTools(tools []model.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.Schema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	result := &genai.Schema{Type: genai.TypeObject}

	if props, ok := schema["properties"].(map[string]any); ok {
		properties := make(map[string]*genai.Schema, len(props))
		for key, val := range props {
			propMap, ok := val.(map[string]any)
			if !ok {
				continue
			}
			propSchema := &genai.Schema{}
			if typeStr, ok := propMap["type"].(string); ok {
				propSchema.Type = convertTypeString(typeStr)
			}
			if desc, ok := propMap["description"].(string); ok {
				propSchema.Description = desc
			}
			properties[key] = propSchema
		}
		result.Properties = properties
	}

	if required, ok := schema["required"].([]string); ok {
		result.Required = required
	} else if required, ok := schema["required"].([]any); ok {
		strs := make([]string, 0, len(required))
		for _, v := range required {
			if s, ok := v.(string); ok {
				strs = append(strs, s)
			}
		}
		result.Required = strs
	}

	return result
}

func convertTypeString(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func convertResponse(resp *genai.GenerateContentResponse, modelName string) model.ChatOut {
	out := model.ChatOut{Model: modelName}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: p.Name, Input: p.Args})
		}
	}
	return out
}

// SafetyFilterError reports that Gemini blocked a response via its safety
// filters. Match it with errors.As to inspect Category/Reason.
type SafetyFilterError struct {
	reason   string
	category string
}

func (e *SafetyFilterError) Error() string {
	return "content blocked by safety filter: " + e.category
}

// Category returns the triggered safety category (e.g. HARM_CATEGORY_HATE_SPEECH).
func (e *SafetyFilterError) Category() string { return e.category }

// Reason returns why the content was blocked.
func (e *SafetyFilterError) Reason() string { return e.reason }
