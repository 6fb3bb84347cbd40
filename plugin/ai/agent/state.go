package agent

import (
	"slices"
	"sort"
	"strings"

	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/router"
)

// DocStatus is the review state of a recognised document.
type DocStatus string

const (
	DocStatusOK          DocStatus = "ok"
	DocStatusNeedsReview DocStatus = "needs_review"
)

// Doc is a recognised upload, keyed by kind in AppContext.Docs.
type Doc struct {
	Kind     docs.Kind `json:"kind"`
	Status   DocStatus `json:"status"`
	UploadID int64     `json:"upload_id,omitempty"`
}

// PendingAutofillOffer holds OCR values waiting for a yes/no answer.
// Only the OCR agent creates it; only the router's confirmation gate clears it.
type PendingAutofillOffer struct {
	Fields map[string]string `json:"fields"`
	Offer  bool              `json:"offer"`
	// Warnings names fields the extraction could not find, e.g. missing_cnp.
	Warnings []string `json:"warnings,omitempty"`
}

// Person holds the applicant's form fields (cnp, nume, prenume, email, telefon, adresa).
type Person map[string]string

func (p Person) Clone() Person {
	if p == nil {
		return Person{}
	}
	out := make(Person, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies the non-blank values of other into p.
func (p Person) Merge(other map[string]string) {
	for k, v := range other {
		if v = strings.TrimSpace(v); v != "" {
			p[k] = v
		}
	}
}

// AppContext is the session-scoped wizard state.
type AppContext struct {
	// UIContext names the page the session lives on: "entry" or a wizard agent.
	UIContext string `json:"ui_context"`

	Program           string `json:"program,omitempty"`
	Type              string `json:"type,omitempty"`
	EligibilityReason string `json:"eligibility_reason,omitempty"`
	SelectedSlotID    string `json:"selected_slot_id,omitempty"`
	TypeEligConfirmed bool   `json:"type_elig_confirmed"`
	Phase             Phase  `json:"phase"`

	// Docs holds at most one Doc per kind.
	Docs            map[docs.Kind]Doc     `json:"docs"`
	PendingAutofill *PendingAutofillOffer `json:"pending_autofill,omitempty"`
	// UploadsSeenLastID is the newest upload id document intake has processed.
	UploadsSeenLastID int64 `json:"uploads_seen_last_id"`

	// Continuation is the agent to resume once a pending autofill offer is answered.
	Continuation AgentID `json:"continuation,omitempty"`
	CaseID       string  `json:"case_id,omitempty"`
}

// NewAppContext returns an empty context for uiContext ("entry" when blank).
func NewAppContext(uiContext string) *AppContext {
	uiContext = strings.ToLower(strings.TrimSpace(uiContext))
	if uiContext == "" {
		uiContext = string(AgentEntry)
	}
	return &AppContext{
		UIContext: uiContext,
		Docs:      make(map[docs.Kind]Doc),
	}
}

// UpsertDoc records d, replacing any Doc of the same kind. It reports whether the kind is new.
func (a *AppContext) UpsertDoc(d Doc) bool {
	if a.Docs == nil {
		a.Docs = make(map[docs.Kind]Doc)
	}
	_, exists := a.Docs[d.Kind]
	a.Docs[d.Kind] = d
	return !exists
}

// PresentKinds returns the kinds with status ok, in canonical order.
func (a *AppContext) PresentKinds() []docs.Kind {
	kinds := make([]docs.Kind, 0, len(a.Docs))
	for k, d := range a.Docs {
		if d.Status == DocStatusOK {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// HasPendingOffer reports whether an autofill offer waits for an answer.
func (a *AppContext) HasPendingOffer() bool {
	return a.PendingAutofill != nil && a.PendingAutofill.Offer && len(a.PendingAutofill.Fields) > 0
}

// resetWizard clears the program-specific progress, keeping documents and uploads.
func (a *AppContext) resetWizard(program string) {
	a.Program = program
	a.Type = ""
	a.EligibilityReason = ""
	a.SelectedSlotID = ""
	a.TypeEligConfirmed = false
	a.Phase = PhaseAwaitingUploadsCheck
	a.Continuation = ""
	a.CaseID = ""
}

func (a *AppContext) Clone() *AppContext {
	if a == nil {
		return nil
	}
	out := *a
	out.Docs = make(map[docs.Kind]Doc, len(a.Docs))
	for k, d := range a.Docs {
		out.Docs[k] = d
	}
	if a.PendingAutofill != nil {
		offer := PendingAutofillOffer{
			Offer:    a.PendingAutofill.Offer,
			Fields:   make(map[string]string, len(a.PendingAutofill.Fields)),
			Warnings: slices.Clone(a.PendingAutofill.Warnings),
		}
		for k, v := range a.PendingAutofill.Fields {
			offer.Fields[k] = v
		}
		out.PendingAutofill = &offer
	}
	return &out
}

// FormInput is the structured application payload the UI sends with a message.
// Blank fields are "not provided".
type FormInput struct {
	UIContext         string `json:"ui_context,omitempty"`
	Type              string `json:"type,omitempty"`
	EligibilityReason string `json:"eligibility_reason,omitempty"`
	SelectedSlotID    string `json:"selected_slot_id,omitempty"`
	TypeEligConfirmed bool   `json:"type_elig_confirmed,omitempty"`
}

// State is the value threaded through one turn.
type State struct {
	SessionID string
	// Lang is "" until the user picks one; messages then default to Romanian.
	Lang    string
	Message string
	Form    *FormInput
	Person  Person
	App     *AppContext
	// Recent is the filtered history handed to the classifier.
	Recent []memory.Turn

	Intent    router.Intent
	NextAgent AgentID
	// ReturnTo is the agent document intake hands back to within this turn.
	ReturnTo AgentID
	// UploadsObserved is the newest upload id a wizard saw before delegating to intake.
	UploadsObserved int64

	Reply string
	// Steps only grows during a turn.
	Steps []Step
	// Trace lists the agents run this turn, in order.
	Trace []AgentID
}

// NewState seeds a turn for sessionID.
func NewState(sessionID, message string) *State {
	return &State{
		SessionID: sessionID,
		Message:   message,
		Person:    Person{},
		App:       NewAppContext(""),
	}
}

// Say appends a paragraph to the reply.
func (s *State) Say(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if s.Reply == "" {
		s.Reply = text
		return
	}
	s.Reply += "\n\n" + text
}

// T renders a message in the session language.
func (s *State) T(key MsgKey, args ...any) string {
	return T(s.Lang, key, args...)
}

func (s *State) AddStep(step Step) {
	s.Steps = append(s.Steps, step)
}

// Clone returns a deep copy; the dispatcher works on a clone so a failed turn leaves the input untouched.
func (s *State) Clone() *State {
	out := *s
	out.Person = s.Person.Clone()
	out.App = s.App.Clone()
	if out.App == nil {
		out.App = NewAppContext("")
	}
	if s.Form != nil {
		form := *s.Form
		out.Form = &form
	}
	out.Recent = append([]memory.Turn(nil), s.Recent...)
	out.Steps = append([]Step(nil), s.Steps...)
	out.Trace = append([]AgentID(nil), s.Trace...)
	return &out
}
