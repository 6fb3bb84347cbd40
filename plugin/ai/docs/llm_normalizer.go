package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// unknownKind is the LLM's way of declining to pick a kind.
const unknownKind = "unknown"

// Classifier resolves an inconclusive upload to a kind.
// Implementations return "" when they cannot decide.
type Classifier interface {
	Classify(ctx context.Context, in Input, candidates []Kind) (Kind, error)
}

// LLMClassifier asks an OpenAI-compatible model to pick from the allow-list.
type LLMClassifier struct {
	client ai.ChatCompleter
	model  string
}

// NewLLMClassifier creates an LLM-backed document classifier.
func NewLLMClassifier(client ai.ChatCompleter, model string) *LLMClassifier {
	return &LLMClassifier{client: client, model: model}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, in Input, candidates []Kind) (Kind, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.NormalizerTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   30,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: normalizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildNormalizerPrompt(in, candidates)},
		},
		ResponseFormat: ai.StrictJSONFormat("document_kind", docKindSchema),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	content, err := ai.FirstChoice(resp)
	if err != nil {
		return "", err
	}

	var raw struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(content)), &raw); err != nil {
		return "", fmt.Errorf("parse response failed: %w", err)
	}

	slog.Debug("LLM document classification completed",
		"filename", in.Filename,
		"kind", raw.Kind,
		"latency_ms", time.Since(start).Milliseconds())

	if raw.Kind == unknownKind {
		return "", nil
	}
	k := Kind(raw.Kind)
	if !k.Valid() {
		return "", nil
	}
	return k, nil
}

func buildNormalizerPrompt(in Input, candidates []Kind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "eticheta: %s\n", in.RawKind)
	fmt.Fprintf(&b, "fisier: %s\n", in.Filename)
	if len(candidates) > 0 {
		fmt.Fprintf(&b, "candidati: %s\n", strings.Join(Strings(candidates), ", "))
	}
	fmt.Fprintf(&b, "text: %s", textutil.Truncate(in.Text, 600))
	return b.String()
}

const normalizerSystemPrompt = `Clasifici documente incarcate la primarie.
Alege exact un tip din lista permisa sau "unknown" daca nu esti sigur.
Nu ghici: un document neclar este "unknown".`

var docKindSchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"kind": {
			Type:        "string",
			Enum:        append(Strings(allKinds), unknownKind),
			Description: "Canonical document kind",
		},
	},
	Required:             []string{"kind"},
	AdditionalProperties: false,
}
