// Package ai turns free-text order descriptions into draft suggestions.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"retail-erp/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("order assistant is disabled: OPENAI_API_KEY is not set")

// Assistant suggests order lines from a customer's message.
type Assistant interface {
	SuggestDraft(ctx context.Context, text string, lists *core.ReferenceLists) (*core.DraftSuggestion, error)
}

type Agent struct {
	client *openai.Client
	model  string
}

var _ Assistant = (*Agent)(nil)

func NewAgent(apiKey, model string, opts ...option.RequestOption) *Agent {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	return &Agent{client: &client, model: model}
}

func (a *Agent) SuggestDraft(ctx context.Context, text string, lists *core.ReferenceLists) (*core.DraftSuggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("nothing to interpret")
	}

	schemaMap, err := schemaMap()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(a.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(buildPrompt(text, lists)),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "order_draft_suggestion",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Order lines and customer details extracted from a message"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, errors.New("empty response content")
	}

	var suggestion core.DraftSuggestion
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion: %w", err)
	}

	suggestion.Normalize()
	if err := suggestion.Validate(); err != nil {
		return nil, fmt.Errorf("suggestion validation failed: %w", err)
	}
	return &suggestion, nil
}

func buildPrompt(text string, lists *core.ReferenceLists) string {
	names := func(t core.RefTable) string {
		items := lists.List(t)
		if len(items) == 0 {
			return "(none)"
		}
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Name
		}
		return strings.Join(out, ", ")
	}

	return fmt.Sprintf(`You are an order clerk for a clothing and accessories shop.
Extract the customer details and the ordered items from the message below.
Rules:
1. Copy category, color and size names exactly from the lists below; leave them empty when nothing matches.
2. Quantities and prices are plain decimal strings (e.g. "2", "5.50").
3. Never invent prices; leave unit_price empty when the message does not state one.
4. If the message describes no orderable item, set is_clarification_request and ask one short question.

Categories: %s
Colors: %s
Sizes: %s

Message: %s`,
		names(core.TableCategories), names(core.TableColors), names(core.TableSizes), text)
}

func generateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.DraftSuggestion
	return reflector.Reflect(v)
}

func schemaMap() (map[string]any, error) {
	b, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return m, nil
}

// Disabled is the Assistant used when no API key is configured.
type Disabled struct{}

func (Disabled) SuggestDraft(context.Context, string, *core.ReferenceLists) (*core.DraftSuggestion, error) {
	return nil, ErrDisabled
}
