package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// DefaultThreshold is the minimum classifier confidence accepted without falling back to rules.
const DefaultThreshold = 0.55

// Service implements Resolver with two layers.
// Layer 1: classifier (optional, ~400ms), fronted by a decision cache.
// Layer 2: keyword rules (0ms), used whenever the classifier answer is unusable.
type Service struct {
	classifier  Classifier
	cache       *DecisionCache
	ruleMatcher *RuleMatcher
	threshold   float64
}

// Config contains the configuration for the router service.
type Config struct {
	// Classifier may be nil; rules then decide every message.
	Classifier Classifier
	// Threshold defaults to DefaultThreshold.
	Threshold float64
	// CacheSize disables the decision cache when <= 0.
	CacheSize int
	CacheTTL  time.Duration
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	s := &Service{
		classifier:  cfg.Classifier,
		ruleMatcher: NewRuleMatcher(),
		threshold:   cfg.Threshold,
	}
	if s.threshold <= 0 || s.threshold > 1 {
		s.threshold = DefaultThreshold
	}
	if cfg.CacheSize > 0 && cfg.Classifier != nil {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		s.cache = NewDecisionCache(cfg.CacheSize, ttl)
	}
	return s
}

// Rules exposes the keyword matcher for the scheduling shortcut.
func (s *Service) Rules() *RuleMatcher {
	return s.ruleMatcher
}

// Resolve implements Resolver.
func (s *Service) Resolve(ctx context.Context, text string, recent []memory.Turn) Decision {
	start := time.Now()

	if len(recent) > timeout.ClassifierHistoryTurns {
		recent = recent[len(recent)-timeout.ClassifierHistoryTurns:]
	}

	status := StatusUnavailable
	if s.classifier != nil {
		var (
			result Result
			cached bool
		)
		if s.cache != nil {
			result, cached = s.cache.Classify(ctx, s.classifier, text, recent, s.threshold)
		} else {
			result = s.classifier.Classify(ctx, text, recent)
		}

		status = result.Status
		if status == StatusOK && result.Confidence < s.threshold && result.Action != ActionAskClarify {
			status = StatusLowConfidence
		}

		if status == StatusOK {
			source := SourceClassifier
			if cached {
				source = SourceCache
			}
			slog.Debug("intent resolved by classifier",
				"input", textutil.Truncate(text, 50),
				"intent", result.Intent,
				"action", result.Action,
				"confidence", result.Confidence,
				"source", source,
				"latency_ms", time.Since(start).Milliseconds())
			return Decision{
				Intent:           result.Intent,
				Action:           result.Action,
				Confidence:       result.Confidence,
				Entities:         result.Entities,
				Question:         result.Question,
				Source:           source,
				ClassifierStatus: StatusOK,
			}
		}
		s.logFallback(status, result)
	}

	d := s.ruleDecision(text)
	d.ClassifierStatus = status
	slog.Debug("intent resolved by rules",
		"input", textutil.Truncate(text, 50),
		"intent", d.Intent,
		"classifier_status", status,
		"latency_ms", time.Since(start).Milliseconds())
	return d
}

func (s *Service) logFallback(status Status, r Result) {
	switch status {
	case StatusLowConfidence:
		slog.Info("classifier below threshold, using rules",
			"intent", r.Intent,
			"confidence", r.Confidence,
			"threshold", s.threshold)
	case StatusTransportError:
		slog.Warn("classifier transport error, using rules", "error", r.Err)
	default:
		slog.Debug("classifier unavailable, using rules", "error", r.Err)
	}
}

func (s *Service) ruleDecision(text string) Decision {
	intent := s.ruleMatcher.Match(text)
	action := ActionRoute
	if intent == IntentUnknown && s.ruleMatcher.LooksLikeScheduling(text) {
		intent = IntentScheduling
	}
	if intent == IntentScheduling {
		action = ActionSchedulingHelp
	}
	confidence := 0.0
	if intent != IntentUnknown {
		confidence = 1.0
	}
	return Decision{
		Intent:     intent,
		Action:     action,
		Confidence: confidence,
		Source:     SourceRules,
	}
}
