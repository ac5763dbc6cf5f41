package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
	toolx "github.com/shukalink/agrolink/agent/tool"
)

// apologyReply is what the user sees when the reasoning call itself fails.
// Specialist failures are terminal for the turn but never propagate as
// errors past the agent boundary.
const apologyReply = "I encountered an error while processing your request. Please try again or rephrase your question."

type specialistImpl struct {
	route       contractx.Route
	client      *openaisdk.Client
	model       string
	temperature float64
	maxTokens   int
	prompt      string
	tools       []openaisdk.ChatCompletionToolUnionParam
	allowed     map[string]struct{}
	log         zerolog.Logger
}

func newSpecialist(
	route contractx.Route,
	client *openaisdk.Client,
	model string,
	temperature float64,
	maxTokens int,
	systemPrompt string,
) *specialistImpl {
	specs := toolx.ForRoute(route)
	allowed := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		allowed[s.Name] = struct{}{}
	}

	return &specialistImpl{
		route:       route,
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		prompt:      systemPrompt,
		tools:       toolParams(specs),
		allowed:     allowed,
		log:         log.With().Str("component", "specialist").Str("route", string(route)).Logger(),
	}
}

// Invoke runs one reasoning step. The returned message either carries
// final text or pending tool calls; reasoning failures and schema
// violations are converted to a terminal apology here so the graph always
// has something to deliver.
func (s *specialistImpl) Invoke(ctx context.Context, st *contractx.AgentState) (contractx.Message, error) {
	if s.client == nil {
		return contractx.Message{}, contractx.ErrNotConfigured
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(s.model),
		Messages:    toMessageParams(s.prompt, st.Messages),
		Temperature: openaisdk.Float(s.temperature),
	}
	if s.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(s.maxTokens))
	}
	if len(s.tools) > 0 {
		params.Tools = s.tools
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.log.Error().Err(fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)).Msg("model invoke failed")
		return apology(), nil
	}
	if len(resp.Choices) == 0 {
		s.log.Error().Err(fmt.Errorf("%w: empty choices", contractx.ErrModelInvoke)).Msg("model returned no choices")
		return apology(), nil
	}

	msg, err := fromResponse(resp.Choices[0].Message)
	if err != nil {
		s.log.Error().Err(err).Msg("model response rejected")
		return apology(), nil
	}

	if err := s.checkAllowed(msg.ToolCalls); err != nil {
		s.log.Error().Err(err).Msg("tool call outside specialist set")
		return apology(), nil
	}
	return msg, nil
}

func (s *specialistImpl) checkAllowed(calls []contractx.ToolCall) error {
	for _, call := range calls {
		if _, ok := s.allowed[call.Name]; !ok {
			return fmt.Errorf("%w: tool=%s is not allowed for route=%s", contractx.ErrSchemaViolation, call.Name, s.route)
		}
	}
	return nil
}

func apology() contractx.Message {
	return contractx.Message{Role: contractx.RoleAssistant, Content: apologyReply}
}

func toolParams(specs []toolx.Spec) []openaisdk.ChatCompletionToolUnionParam {
	out := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(specs))
	for _, s := range specs {
		out = append(out, openaisdk.ChatCompletionFunctionTool(openaisdk.FunctionDefinitionParam{
			Name:        s.Name,
			Description: openaisdk.String(s.Description),
			Parameters: openaisdk.FunctionParameters{
				"type":       "object",
				"properties": s.Parameters,
				"required":   s.Required,
			},
		}))
	}
	return out
}

// toMessageParams rebuilds the wire-format conversation: system prompt
// first, then the invocation's message sequence including any tool
// call/result pairs from the current loop.
func toMessageParams(systemPrompt string, msgs []contractx.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	out = append(out, openaisdk.SystemMessage(systemPrompt))

	for _, m := range msgs {
		switch m.Role {
		case contractx.RoleUser:
			out = append(out, openaisdk.UserMessage(m.Content))
		case contractx.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openaisdk.AssistantMessage(m.Content))
				continue
			}
			asst := openaisdk.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openaisdk.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				rawArgs, err := json.Marshal(tc.Args)
				if err != nil {
					rawArgs = []byte("{}")
				}
				asst.ToolCalls = append(asst.ToolCalls, openaisdk.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openaisdk.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openaisdk.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(rawArgs),
						},
					},
				})
			}
			out = append(out, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case contractx.RoleTool:
			content := m.Content
			out = append(out, openaisdk.ChatCompletionMessageParamUnion{
				OfTool: &openaisdk.ChatCompletionToolMessageParam{
					ToolCallID: m.ToolCallID,
					Content:    openaisdk.ChatCompletionToolMessageParamContentUnion{OfString: openaisdk.String(content)},
				},
			})
		}
	}
	return out
}

func fromResponse(msg openaisdk.ChatCompletionMessage) (contractx.Message, error) {
	out := contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: strings.TrimSpace(msg.Content),
	}

	for _, tc := range msg.ToolCalls {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			return contractx.Message{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		args := map[string]any{}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.Message{}, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:   tc.ID,
			Name: name,
			Args: args,
		})
	}
	return out, nil
}
