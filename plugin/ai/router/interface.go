// Package router resolves a user message to an intent and action for the router agent.
// The classifier is optional and unreliable; deterministic keyword rules are the fallback.
//
// router 包负责意图解析：可选的 LLM 分类器在前，确定性关键词规则兜底。
package router

import (
	"context"

	"github.com/hrygo/ghiseu/plugin/ai/memory"
)

// Intent is what the user wants to do.
type Intent string

const (
	IntentCarteIdentitate Intent = "carte_identitate"
	IntentSocial          Intent = "social"
	IntentTaxe            Intent = "taxe"
	IntentOperator        Intent = "operator"
	IntentLegal           Intent = "legal"
	IntentScheduling      Intent = "scheduling"
	IntentUnknown         Intent = "unknown"
)

// Action is how the router should react to the intent.
type Action string

const (
	ActionRoute          Action = "route"
	ActionAskClarify     Action = "ask_clarify"
	ActionSchedulingHelp Action = "scheduling_help"
	ActionHubGovSlots    Action = "hubgov_slots"
	ActionHubGovReserve  Action = "hubgov_reserve"
)

// Status distinguishes why a classifier answer can or cannot be used.
type Status string

const (
	StatusOK             Status = "ok"
	StatusUnavailable    Status = "unavailable"     // disabled, not configured, or timed out
	StatusLowConfidence  Status = "low_confidence"  // answered below the threshold
	StatusTransportError Status = "transport_error" // request failed or reply unparseable
)

// Result is one classifier answer.
type Result struct {
	Status     Status            `json:"status"`
	Intent     Intent            `json:"intent"`
	Action     Action            `json:"action"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Question   string            `json:"question,omitempty"`
	Err        error             `json:"-"`
}

// Classifier is the optional NLU collaborator.
// It never returns an error; failures are reported through Result.Status.
type Classifier interface {
	Classify(ctx context.Context, text string, recent []memory.Turn) Result
}

// Source names the layer that produced a decision.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceCache      Source = "cache"
	SourceRules      Source = "rules"
)

// Decision is the resolved intent handed to the router agent.
type Decision struct {
	Intent     Intent            `json:"intent"`
	Action     Action            `json:"action"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Question   string            `json:"question,omitempty"`
	Source     Source            `json:"source"`
	// ClassifierStatus records what the classifier reported, even when rules decided.
	ClassifierStatus Status `json:"classifier_status"`
}

// Resolver turns a message into a Decision. It always produces a decision.
type Resolver interface {
	Resolve(ctx context.Context, text string, recent []memory.Turn) Decision
}
