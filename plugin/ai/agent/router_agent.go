package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/router"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
	"github.com/hrygo/ghiseu/plugin/ocr"
)

// LangDetector guesses the language of free text.
type LangDetector interface {
	Detect(text string) (lang string, ok bool)
}

// RouterConfig wires the router agent's collaborators.
type RouterConfig struct {
	Resolver router.Resolver
	// Rules supplies the scheduling vocabulary; defaults to a fresh matcher.
	Rules      *router.RuleMatcher
	Checklists *checklist.Set
	// LangDetector is optional.
	LangDetector LangDetector
	// PublicURL prefixes navigation links; empty yields relative links.
	PublicURL string
	// NewSessionID returns a fresh session id for prefix.
	NewSessionID func(prefix string) string
}

// RouterAgent is the fixed entry point of every turn. It owns the gates that
// run before any domain logic.
//
// RouterAgent 是每轮的固定入口：语言引导、控制标记拦截、自动填充确认门、意图解析与委派。
type RouterAgent struct {
	cfg RouterConfig
}

func NewRouterAgent(cfg RouterConfig) *RouterAgent {
	if cfg.Rules == nil {
		cfg.Rules = router.NewRuleMatcher()
	}
	if cfg.NewSessionID == nil {
		cfg.NewSessionID = func(prefix string) string {
			return prefix + "-" + shortuuid.New()
		}
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &RouterAgent{cfg: cfg}
}

func (r *RouterAgent) ID() AgentID { return AgentRouter }

func (r *RouterAgent) Handle(ctx context.Context, st *State) error {
	if st.Form != nil && strings.TrimSpace(st.Form.UIContext) != "" {
		st.App.UIContext = strings.ToLower(strings.TrimSpace(st.Form.UIContext))
	}
	text := strings.TrimSpace(st.Message)
	domain := DomainFor(r.cfg.Checklists, st.App.UIContext)

	if r.bootstrapLanguage(st, text) {
		return nil
	}
	if memory.IsControlMarker(text) {
		r.routeMarker(st, text, domain)
		return nil
	}
	if st.App.HasPendingOffer() {
		r.confirmAutofill(st, text, domain)
		return nil
	}
	if text == "" {
		st.NextAgent = domain
		return nil
	}
	if r.cfg.Rules.LooksLikeScheduling(text) {
		st.Intent = router.IntentScheduling
		if IsWizardContext(r.cfg.Checklists, st.App.UIContext) && st.App.SelectedSlotID == "" {
			st.NextAgent = domain
			return nil
		}
		st.NextAgent = AgentScheduling
		return nil
	}
	r.resolve(ctx, st, text, domain)
	return nil
}

// bootstrapLanguage reports whether the turn ends here.
func (r *RouterAgent) bootstrapLanguage(st *State, text string) bool {
	if st.Lang != "" {
		return false
	}
	if lang, ok := ParseLangChoice(text); ok {
		st.Lang = lang
		if lang == LangEN {
			st.Say(st.T(MsgLangSetEN))
		} else {
			st.Say(st.T(MsgLangSetRO))
		}
		st.NextAgent = AgentEntry
		return true
	}
	if memory.IsControlMarker(text) && text != memory.MarkerStart {
		return false
	}
	if text != memory.MarkerStart && r.cfg.LangDetector != nil {
		if lang, ok := r.cfg.LangDetector.Detect(text); ok {
			st.Lang = lang
			return false
		}
	}
	st.Say(T(LangRO, MsgChooseLang) + "\n" + T(LangEN, MsgChooseLang))
	return true
}

func (r *RouterAgent) routeMarker(st *State, marker string, domain AgentID) {
	switch marker {
	case memory.MarkerUpload, memory.MarkerPing:
		st.ReturnTo = domain
		st.NextAgent = AgentDocIntake
	case memory.MarkerPhase1Done, memory.MarkerPhase2Done:
		st.NextAgent = domain
	case memory.MarkerStart:
		st.NextAgent = AgentEntry
	}
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "da": true, "ok": true, "okay": true, "apply": true, "confirm": true, "sigur": true}
	noWords  = map[string]bool{"no": true, "n": true, "nu": true, "cancel": true, "ignore": true}
)

// answerOf maps a reply to yes (1), no (-1) or neither (0).
func answerOf(text string) int {
	folded := strings.Trim(textutil.Fold(text), ".!?, ")
	switch {
	case yesWords[folded]:
		return 1
	case noWords[folded]:
		return -1
	}
	return 0
}

// confirmAutofill resolves a pending offer. The offer never survives a yes or a no.
func (r *RouterAgent) confirmAutofill(st *State, text string, domain AgentID) {
	offer := st.App.PendingAutofill
	switch answerOf(text) {
	case 1:
		st.AddStep(AutofillApplyStep(offer.Fields))
		st.Person.Merge(offer.Fields)
		st.Say(st.T(MsgAutofillApplied))
	case -1:
		st.Say(st.T(MsgAutofillIgnored))
	default:
		st.Say(st.T(MsgOCRFoundFields, PreviewFields(offer.Fields)))
		return
	}

	next := st.App.Continuation
	if !next.Valid() || next == AgentRouter {
		next = domain
	}
	st.App.PendingAutofill = nil
	st.App.Continuation = ""
	st.NextAgent = next
}

func (r *RouterAgent) resolve(ctx context.Context, st *State, text string, domain AgentID) {
	if r.cfg.Resolver == nil {
		st.Say(st.T(MsgRouterAskNeed))
		return
	}
	cctx, cancel := context.WithTimeout(ctx, timeout.ClassifierTimeout)
	d := r.cfg.Resolver.Resolve(cctx, text, st.Recent)
	cancel()
	st.Intent = d.Intent

	slog.Debug("router decision",
		"session_id", st.SessionID,
		"intent", d.Intent,
		"action", d.Action,
		"source", d.Source,
		"classifier_status", d.ClassifierStatus)

	switch d.Action {
	case router.ActionAskClarify:
		if q := strings.TrimSpace(d.Question); q != "" {
			st.Say(q)
		} else {
			st.Say(st.T(MsgRouterClarify))
		}
		return
	case router.ActionHubGovSlots, router.ActionHubGovReserve:
		st.AddStep(HubGovActionStep(string(d.Action), d.Entities))
		st.NextAgent = AgentHubGov
		return
	case router.ActionSchedulingHelp:
		st.NextAgent = AgentScheduling
		return
	}

	switch d.Intent {
	case router.IntentScheduling:
		st.NextAgent = AgentScheduling
		return
	case router.IntentLegal:
		st.NextAgent = AgentLegal
		return
	case router.IntentOperator:
		st.NextAgent = AgentOperator
		return
	}

	if c, ok := r.checklistFor(d.Intent); ok {
		target, _ := ParseAgentID(c.Agent)
		// Navigation links are offered from the public page only; inside a
		// wizard the other program's agent takes the turn.
		if domain != AgentEntry {
			st.NextAgent = target
			return
		}
		r.navigate(st, c)
		return
	}

	switch domain {
	case AgentEntry:
		st.Say(st.T(MsgRouterAskNeed))
	default:
		// Wizards and the operator console restate their own next step.
		st.NextAgent = domain
	}
}

func (r *RouterAgent) checklistFor(intent router.Intent) (*checklist.Checklist, bool) {
	if r.cfg.Checklists == nil || intent == router.IntentUnknown {
		return nil, false
	}
	return r.cfg.Checklists.ByIntent(string(intent))
}

// navigate opens the program's form page in a fresh session.
func (r *RouterAgent) navigate(st *State, c *checklist.Checklist) {
	url := fmt.Sprintf("%s%s?session_id=%s", r.cfg.PublicURL, c.UIPath, r.cfg.NewSessionID(c.SessionPrefix))
	st.AddStep(NavigateStep(url))
	st.Say(st.T(MsgEntryNavLink, c.TitleFor(st.Lang), url))
}

// PreviewFields renders extracted fields as "- key: value" lines in display order.
func PreviewFields(fields map[string]string) string {
	var lines []string
	seen := make(map[string]bool, len(fields))
	for _, k := range ocr.FieldOrder {
		if v := fields[k]; v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, v))
			seen[k] = true
		}
	}
	var extra []string
	for k, v := range fields {
		if !seen[k] && v != "" {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		lines = append(lines, fmt.Sprintf("- %s: %s", k, fields[k]))
	}
	return strings.Join(lines, "\n")
}
