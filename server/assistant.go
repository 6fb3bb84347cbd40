package server

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/plugin/ai"
	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/cache"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/router"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/observability"
	"github.com/hrygo/ghiseu/server/service/cases"
	"github.com/hrygo/ghiseu/store"
)

// Assistant holds the dispatch engine and everything a turn needs.
// The HTTP server and the CLI REPL share it.
type Assistant struct {
	Checklists   *checklist.Set
	Dispatcher   *agent.Dispatcher
	Metrics      *agent.Metrics
	Cases        *cases.Service
	SessionStore session.Store
	Sessions     *session.Service

	cacheSvc *cache.Service
	memStore *session.MemoryStore
}

// NewAssistant wires checklists, the router, the agent registry and the
// session layer from the profile.
func NewAssistant(ctx context.Context, p *profile.Profile, st *store.Store) (*Assistant, error) {
	set, err := loadChecklists(p)
	if err != nil {
		return nil, err
	}

	aiCfg := ai.NewConfigFromProfile(p)
	if err := aiCfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}
	routerCfg := router.Config{Threshold: aiCfg.Classifier.Threshold}
	var normalizerLLM docs.Classifier
	if aiCfg.Enabled {
		client, err := ai.NewChatClient(&aiCfg.LLM)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create LLM client")
		}
		if aiCfg.Classifier.Enabled {
			routerCfg.Classifier = router.NewLLMClassifier(client, aiCfg.LLM.Model)
			routerCfg.CacheSize = 512
		}
		if aiCfg.DocNormalizer.Enabled {
			normalizerLLM = docs.NewLLMClassifier(client, aiCfg.LLM.Model)
		}
		slog.Info("LLM enabled",
			"provider", aiCfg.LLM.Provider,
			"model", aiCfg.LLM.Model,
			"classifier", aiCfg.Classifier.Enabled,
			"doc_normalizer", aiCfg.DocNormalizer.Enabled)
	}
	routerSvc := router.NewService(routerCfg)

	a := &Assistant{
		Checklists: set,
		Metrics:    agent.NewMetrics(),
		Cases:      cases.NewService(st),
	}
	reg, err := agent.NewDefaultRegistry(agent.Deps{
		Checklists:   set,
		Resolver:     routerSvc,
		Rules:        routerSvc.Rules(),
		LangDetector: agent.KeywordLangDetector{},
		Uploads:      &agent.StoreUploads{Store: st},
		Normalizer:   docs.NewNormalizer(normalizerLLM),
		Cases:        a.Cases,
		CaseLister:   a.Cases,
		Metrics:      a.Metrics,
		PublicURL:    p.PublicURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build agent registry")
	}
	a.Dispatcher = agent.NewDispatcher(reg, p.HopLimit, a.Metrics)

	switch p.SessionStore {
	case "db":
		a.cacheSvc = cache.NewService(cache.ServiceConfig{Name: "sessions", Capacity: 2048})
		a.SessionStore = session.NewSQLStore(st, a.cacheSvc)
	default:
		a.memStore = session.NewMemoryStore(p.SessionCapacity, p.SessionTTL)
		a.SessionStore = a.memStore
	}
	a.Sessions = session.NewService(session.ServiceConfig{
		Store:      a.SessionStore,
		Dispatcher: a.Dispatcher,
		Logger:     observability.LoggerFromContext,
	})
	slog.InfoContext(ctx, "assistant ready",
		"programs", len(set.All()),
		"session_store", p.SessionStore,
		"hop_limit", p.HopLimit)
	return a, nil
}

// Close releases the in-process caches.
func (a *Assistant) Close() {
	if a.memStore != nil {
		a.memStore.Close()
	}
	if a.cacheSvc != nil {
		a.cacheSvc.Close()
	}
}

func loadChecklists(p *profile.Profile) (*checklist.Set, error) {
	if p.ChecklistDir == "" {
		set, err := checklist.LoadDefaults()
		return set, errors.Wrap(err, "failed to load embedded checklists")
	}
	set, err := checklist.LoadDir(p.ChecklistDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load checklists from %s", p.ChecklistDir)
	}
	return set, nil
}
