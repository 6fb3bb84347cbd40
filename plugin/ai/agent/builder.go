package agent

import (
	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/router"
)

// Deps are the collaborators shared by the default agents.
type Deps struct {
	Checklists *checklist.Set
	// Resolver may be nil; the router then asks the user to rephrase.
	Resolver     router.Resolver
	Rules        *router.RuleMatcher
	LangDetector LangDetector
	Uploads      UploadSource
	Normalizer   *docs.Normalizer
	Cases        CaseCreator
	// CaseLister backs the operator console and may be nil.
	CaseLister   CaseLister
	Metrics      *Metrics
	PublicURL    string
	NewSessionID func(prefix string) string
}

// NewDefaultRegistry registers one agent per identifier plus one wizard per
// checklist, then validates the result.
func NewDefaultRegistry(d Deps) (*Registry, error) {
	if d.Checklists == nil {
		return nil, errors.New("checklists are required")
	}
	r := NewRegistry()
	agents := []Agent{
		NewRouterAgent(RouterConfig{
			Resolver:     d.Resolver,
			Rules:        d.Rules,
			Checklists:   d.Checklists,
			LangDetector: d.LangDetector,
			PublicURL:    d.PublicURL,
			NewSessionID: d.NewSessionID,
		}),
		NewEntryAgent(d.Checklists),
		NewIntakeAgent(d.Uploads, d.Normalizer),
		NewOCRAgent(d.Uploads, d.Checklists, d.Metrics),
		NewCaseAgent(d.Cases, d.Checklists, d.Metrics),
		NewSchedulingAgent(d.Checklists),
		LegalAgent{},
		HubGovAgent{},
		NewOperatorAgent(d.CaseLister),
	}
	for _, c := range d.Checklists.All() {
		w, err := NewWizardAgent(c, d.Uploads)
		if err != nil {
			return nil, err
		}
		agents = append(agents, w)
	}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(d.Checklists); err != nil {
		return nil, err
	}
	return r, nil
}
