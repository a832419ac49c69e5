package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	model "messenger-forecast-bot/internal/model/session"
)

const systemPrompt = `You are the natural-language front end of a weather bot.
Classify the user's message into an intent and extract entities.

Known intents:
- getForecast: the user asks about the weather. Extract the entity "location"
  when the message names a place.
- none: anything else.

Respond with ONLY a JSON object of this exact shape:
{"intent": "<getForecast|none>", "entities": {"<name>": [{"value": "<text>"}]}, "reply": "<one short sentence for the user>"}

If the conversation context below has "missingLocation" set, the user is
answering your question about where they are; treat a bare place name as the
location for getForecast.

Conversation context:
%s`

type turnResult struct {
	Intent   string   `json:"intent"`
	Entities Entities `json:"entities"`
	Reply    string   `json:"reply"`
}

// LLMEngine resolves turns with a chat model prompted to emit a strict JSON
// intent object, then runs the matching registered actions.
type LLMEngine struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	actions map[string]Action
	log     zerolog.Logger
}

// NewLLMEngine compiles the prompt chain around the chat model and binds the
// action table.
func NewLLMEngine(ctx context.Context, chatModel einomodel.ChatModel, actions map[string]Action, log zerolog.Logger) (*LLMEngine, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile nlu chain: %w", err)
	}

	return &LLMEngine{
		chain:   runnable,
		actions: actions,
		log:     log.With().Str("component", "nlu").Logger(),
	}, nil
}

// Run forwards the turn to the model, decodes the intent object, and invokes
// the matching action followed by the send action when the model produced a
// reply. The returned context is the input context as mutated by actions.
func (e *LLMEngine) Run(ctx context.Context, sessionID, text string, data model.Context) (model.Context, error) {
	contextJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}

	response, err := e.chain.Invoke(ctx, map[string]any{
		"system": fmt.Sprintf(systemPrompt, contextJSON),
		"query":  text,
	})
	if err != nil {
		return nil, fmt.Errorf("run nlu chain: %w", err)
	}

	result, err := decodeTurnResult(response.Content)
	if err != nil {
		return nil, fmt.Errorf("decode nlu output: %w", err)
	}

	e.log.Debug().
		Str("session_id", sessionID).
		Str("intent", result.Intent).
		Int("entities", len(result.Entities)).
		Msg("turn classified")

	current := data.Clone()
	// "send" is reserved for the reply-driven invocation below; a model that
	// labels the intent "send" must not trigger an extra, empty delivery.
	if action, ok := e.actions[result.Intent]; ok && result.Intent != "send" {
		current, err = action(ctx, ActionRequest{
			SessionID: sessionID,
			Text:      text,
			Context:   current,
			Entities:  result.Entities,
		})
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", result.Intent, err)
		}
	}

	if send, ok := e.actions["send"]; ok && result.Reply != "" {
		current, err = send(ctx, ActionRequest{
			SessionID: sessionID,
			Text:      text,
			Context:   current,
			Entities:  result.Entities,
			Response:  result.Reply,
		})
		if err != nil {
			return nil, fmt.Errorf("action send: %w", err)
		}
	}

	return current, nil
}

// decodeTurnResult parses the model output, tolerating prose around the JSON
// object by falling back to the outermost brace span.
func decodeTurnResult(raw string) (turnResult, error) {
	var out turnResult
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return normalizeTurnResult(out), nil
	}

	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return turnResult{}, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(raw[first:last+1]), &out); err != nil {
		return turnResult{}, err
	}
	return normalizeTurnResult(out), nil
}

func normalizeTurnResult(out turnResult) turnResult {
	if out.Entities == nil {
		out.Entities = Entities{}
	}
	return out
}
