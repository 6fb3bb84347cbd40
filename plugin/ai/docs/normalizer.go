package docs

import (
	"context"
	"log/slog"
)

// Source tells where a normalised kind came from.
type Source string

const (
	SourceRule Source = "rule"
	SourceLLM  Source = "llm"
	SourceNone Source = "none"
)

// Result is the outcome of normalising one upload.
type Result struct {
	Kind   Kind
	Source Source
}

// Recognized reports whether the upload mapped to a kind.
func (r Result) Recognized() bool {
	return r.Kind != ""
}

// Normalizer runs the rule pass and falls back to the classifier when inconclusive.
// Unrecognised uploads are dropped, never guessed.
type Normalizer struct {
	rules *RuleMatcher
	llm   Classifier
}

// NewNormalizer creates a normaliser. llm may be nil to disable the fallback.
func NewNormalizer(llm Classifier) *Normalizer {
	return &Normalizer{rules: NewRuleMatcher(), llm: llm}
}

// Normalize maps one upload to a canonical kind.
func (n *Normalizer) Normalize(ctx context.Context, in Input) Result {
	m := n.rules.Match(in)
	if m.Conclusive() {
		return Result{Kind: m.Kind, Source: SourceRule}
	}
	if n.llm == nil {
		return Result{Source: SourceNone}
	}

	k, err := n.llm.Classify(ctx, in, m.Candidates)
	if err != nil {
		slog.Warn("document classification failed, dropping upload",
			"filename", in.Filename,
			"error", err)
		return Result{Source: SourceNone}
	}
	if k == "" {
		return Result{Source: SourceNone}
	}
	return Result{Kind: k, Source: SourceLLM}
}
