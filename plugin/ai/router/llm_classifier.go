package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// LLMClassifier classifies intents with an OpenAI-compatible model in strict JSON mode.
// Target: ~400ms latency; bounded by timeout.ClassifierTimeout.
type LLMClassifier struct {
	client ai.ChatCompleter
	model  string
}

// NewLLMClassifier creates an LLM classifier. A nil client yields StatusUnavailable.
func NewLLMClassifier(client ai.ChatCompleter, model string) *LLMClassifier {
	return &LLMClassifier{client: client, model: model}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string, recent []memory.Turn) Result {
	if c == nil || c.client == nil {
		return Result{Status: StatusUnavailable, Intent: IntentUnknown}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ClassifierTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:          c.model,
		MaxTokens:      120,
		Temperature:    0,
		Messages:       buildMessages(text, recent),
		ResponseFormat: ai.StrictJSONFormat("intent_classification", intentJSONSchema),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		status := StatusTransportError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = StatusUnavailable
		}
		slog.Warn("LLM intent classification request failed",
			"status", status,
			"error", err,
			"latency_ms", latency.Milliseconds())
		return Result{Status: status, Intent: IntentUnknown, Err: err}
	}

	content, err := ai.FirstChoice(resp)
	if err != nil {
		return Result{Status: StatusTransportError, Intent: IntentUnknown, Err: err}
	}
	result, err := parseResponse(content)
	if err != nil {
		slog.Warn("failed to parse LLM intent response", "content", textutil.Truncate(content, 200), "error", err)
		return Result{Status: StatusTransportError, Intent: IntentUnknown, Err: err}
	}

	slog.Debug("LLM intent classification completed",
		"input", textutil.Truncate(text, 30),
		"intent", result.Intent,
		"action", result.Action,
		"confidence", result.Confidence,
		"latency_ms", latency.Milliseconds(),
		"tokens", resp.Usage.TotalTokens)
	return result
}

func buildMessages(text string, recent []memory.Turn) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt}}
	for _, t := range recent {
		role := openai.ChatMessageRoleUser
		if t.Role == memory.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		} else if t.Role == memory.RoleSystem {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: textutil.Truncate(t.Text, 300)})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
}

// llmResponse is the expected JSON structure from the model.
type llmResponse struct {
	Intent     string  `json:"intent"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Question   string  `json:"question"`
	Program    string  `json:"program"`
}

func parseResponse(content string) (Result, error) {
	var raw llmResponse
	if err := json.Unmarshal([]byte(ai.ExtractJSON(content)), &raw); err != nil {
		return Result{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return Result{}, fmt.Errorf("confidence %.2f out of range", raw.Confidence)
	}

	result := Result{
		Status:     StatusOK,
		Intent:     mapIntent(raw.Intent),
		Action:     mapAction(raw.Action),
		Confidence: raw.Confidence,
		Question:   strings.TrimSpace(raw.Question),
	}
	if raw.Program != "" {
		result.Entities = map[string]string{"program": raw.Program}
	}
	return result, nil
}

func mapIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentCarteIdentitate:
		return IntentCarteIdentitate
	case IntentSocial:
		return IntentSocial
	case IntentTaxe:
		return IntentTaxe
	case IntentOperator:
		return IntentOperator
	case IntentLegal:
		return IntentLegal
	case IntentScheduling:
		return IntentScheduling
	default:
		return IntentUnknown
	}
}

func mapAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAskClarify:
		return ActionAskClarify
	case ActionSchedulingHelp:
		return ActionSchedulingHelp
	case ActionHubGovSlots:
		return ActionHubGovSlots
	case ActionHubGovReserve:
		return ActionHubGovReserve
	default:
		return ActionRoute
	}
}

const intentSystemPrompt = `Esti clasificatorul de intentii al unui asistent de primarie.
Intentii: carte_identitate, social, taxe, operator, legal, scheduling, unknown.
Actiuni: route, ask_clarify (pune "question"), scheduling_help, hubgov_slots, hubgov_reserve.
Foloseste ask_clarify doar daca cererea e ambigua. Raspunde in JSON.`

var intentJSONSchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"intent": {
			Type:        "string",
			Enum:        []string{"carte_identitate", "social", "taxe", "operator", "legal", "scheduling", "unknown"},
			Description: "The classified intent",
		},
		"action": {
			Type:        "string",
			Enum:        []string{"route", "ask_clarify", "scheduling_help", "hubgov_slots", "hubgov_reserve"},
			Description: "What the router should do",
		},
		"confidence": {
			Type:        "number",
			Description: "Confidence score between 0 and 1",
		},
		"question": {
			Type:        "string",
			Description: "Clarifying question when action is ask_clarify, else empty",
		},
		"program": {
			Type:        "string",
			Description: "Program code mentioned by the user (CI, AS, TAXE) or empty",
		},
	},
	Required:             []string{"intent", "action", "confidence", "question", "program"},
	AdditionalProperties: false,
}
