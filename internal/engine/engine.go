// Package engine adapts the OpenAI chat-completions API to the agent's
// reasoning-engine contract: one Invoke call takes a prompt, optionally runs
// a bounded tool loop against the registry, and returns the model's final
// natural-language response.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/vesperlabs/vesper/internal/tools"
)

// maxToolSteps bounds the tool loop. The loop normally ends when the model
// stops requesting tools; this only prevents runaway turns.
const maxToolSteps = 16

// Engine drives one model with a fixed persona prompt and tool registry.
type Engine struct {
	client   openai.Client
	model    shared.ChatModel
	persona  string
	registry *tools.Registry
	logger   *log.Logger
}

// New creates an engine. The registry may be nil when the engine will only
// ever be invoked with tools disabled.
func New(apiKey, model, personaPrompt string, registry *tools.Registry, opts ...option.RequestOption) *Engine {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Engine{
		client:   openai.NewClient(opts...),
		model:    shared.ChatModel(model),
		persona:  personaPrompt,
		registry: registry,
		logger:   log.Default(),
	}
}

// Invoke sends the prompt and returns the model's final text. With tools
// enabled the model may request any number of tool calls first; each is
// executed through the registry and fed back as tool output. Tool failures
// are visible to the model as error results, never as aborted turns.
func (e *Engine) Invoke(ctx context.Context, prompt string, toolsEnabled bool) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if e.persona != "" {
		messages = append(messages, openai.SystemMessage(e.persona))
	}
	messages = append(messages, openai.UserMessage(prompt))

	var toolParams []openai.ChatCompletionToolParam
	if toolsEnabled && e.registry != nil {
		for _, t := range e.registry.Tools() {
			toolParams = append(toolParams, openai.ChatCompletionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  shared.FunctionParameters(t.Schema),
				},
			})
		}
	}

	for step := 0; step < maxToolSteps; step++ {
		params := openai.ChatCompletionNewParams{
			Model:    e.model,
			Messages: messages,
		}
		if len(toolParams) > 0 {
			params.Tools = toolParams
		}

		resp, err := e.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("completion request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			var args map[string]any
			if raw := call.Function.Arguments; raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					e.logger.Printf("[engine] malformed arguments for %s: %v", call.Function.Name, err)
				}
			}
			res := e.registry.Dispatch(ctx, call.Function.Name, args)
			messages = append(messages, openai.ToolMessage(res.JSON(), call.ID))
		}
	}

	return "", fmt.Errorf("model exceeded %d tool steps without a final response", maxToolSteps)
}
