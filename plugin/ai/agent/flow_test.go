package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/router"
	"github.com/hrygo/ghiseu/store"
)

const idCardText = `ROMANIA
CARTE DE IDENTITATE
CNP 1850101123456
Nume/Nom/Last name
POPESCU
Prenume/Prenom/First name
ION
Domiciliu/Adresse/Address
Str. Lalelelor nr. 5`

type harness struct {
	d       *Dispatcher
	set     *checklist.Set
	uploads *MockUploadSource
	cases   *MockCaseCreator
	metrics *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)

	h := &harness{
		set:     set,
		uploads: NewMockUploadSource(),
		cases:   NewMockCaseCreator(),
		metrics: NewMetrics(),
	}
	reg, err := NewDefaultRegistry(Deps{
		Checklists:   set,
		Resolver:     router.NewService(router.Config{}),
		Uploads:      h.uploads,
		Cases:        h.cases,
		CaseLister:   h.cases,
		Metrics:      h.metrics,
		PublicURL:    "https://ghiseu.test/",
		NewSessionID: func(prefix string) string { return prefix + "-fixed" },
	})
	require.NoError(t, err)
	h.d = NewDispatcher(reg, 0, h.metrics)
	return h
}

// session seeds a Romanian-speaking session on uiContext.
func session(id, uiContext string) *State {
	st := NewState(id, "")
	st.Lang = LangRO
	st.App = NewAppContext(uiContext)
	return st
}

// turn runs msg against the persistent part of prev, as the session service does.
func (h *harness) turn(t *testing.T, prev *State, msg string, form *FormInput) *State {
	t.Helper()
	st := NewState(prev.SessionID, msg)
	st.Lang = prev.Lang
	st.Person = prev.Person.Clone()
	st.App = prev.App.Clone()
	st.Form = form
	out, err := h.d.RunTurn(context.Background(), st)
	require.NoError(t, err)
	return out
}

func stepsOf(st *State, typ StepType) []Step {
	var out []Step
	for _, s := range st.Steps {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func completePerson() Person {
	return Person{
		"cnp":     "1850101123456",
		"nume":    "POPESCU",
		"prenume": "ION",
		"email":   "ion@example.ro",
		"telefon": "0722123456",
		"adresa":  "Str. Lalelelor nr. 5",
	}
}

func TestScenarioA_PublicContextNavigates(t *testing.T) {
	h := newHarness(t)

	out := h.turn(t, session("pub-1", "entry"), "carte de identitate", nil)

	nav := stepsOf(out, StepNavigate)
	require.Len(t, nav, 1)
	url := nav[0].Payload["url"].(string)
	assert.Equal(t, "https://ghiseu.test/user-carte_identitate?session_id=ci-fixed", url)
	assert.Contains(t, out.Reply, url)
	assert.Empty(t, out.NextAgent)
	assert.Equal(t, []AgentID{AgentRouter}, out.Trace)
	assert.Equal(t, router.IntentCarteIdentitate, out.Intent)
}

func TestScenarioB_SchedulingWithoutSlotPromptsStepOne(t *testing.T) {
	h := newHarness(t)

	out := h.turn(t, session("ci-1", "ci"), "vreau o programare", nil)

	assert.Equal(t, T(LangRO, MsgWizardStep1), out.Reply)
	assert.Empty(t, out.NextAgent)
	assert.Equal(t, []AgentID{AgentRouter, AgentCI}, out.Trace)
	assert.Equal(t, PhaseAwaitingSlot, out.App.Phase)
}

func TestScheduling_WithSlotGoesToSchedulingAgent(t *testing.T) {
	h := newHarness(t)
	st := session("ci-1", "ci")
	st.App.SelectedSlotID = "slot-9"

	out := h.turn(t, st, "vreau o programare", nil)
	assert.Equal(t, []AgentID{AgentRouter, AgentScheduling}, out.Trace)
	assert.Len(t, stepsOf(out, StepOpenSection), 1)
}

func TestScenarioC_UploadsChainToOfferAndStop(t *testing.T) {
	h := newHarness(t)
	for id := int64(1); id <= 3; id++ {
		h.uploads.Add("ci-1", store.Upload{ID: id, Filename: "scan.pdf", KindHint: "cert_nastere"})
	}
	st := session("ci-1", "ci")
	st.App.UploadsSeenLastID = 3
	h.uploads.Add("ci-1", store.Upload{ID: 4, Filename: "buletin.jpg", KindHint: "auto", ExtractedText: idCardText})

	out := h.turn(t, st, "am incarcat buletinul", nil)

	assert.Equal(t, []AgentID{AgentRouter, AgentCI, AgentDocIntake, AgentDocOCR}, out.Trace)
	assert.Empty(t, out.NextAgent)
	assert.EqualValues(t, 4, out.App.UploadsSeenLastID)
	assert.Contains(t, out.App.Docs, docs.KindCIVeche)
	assert.Contains(t, out.App.Docs, docs.KindCertNastere)

	require.True(t, out.App.HasPendingOffer())
	assert.Equal(t, AgentCI, out.App.Continuation)
	assert.Equal(t, "1850101123456", out.App.PendingAutofill.Fields["cnp"])
	assert.Contains(t, out.Reply, "- cnp: 1850101123456")
	assert.Contains(t, out.Reply, "- nume: POPESCU")
	assert.Empty(t, stepsOf(out, StepAutofillApply))

	// Nothing new on the next turn: the wizard must not re-enter intake.
	again := h.turn(t, out, "nu", nil)
	assert.Equal(t, []AgentID{AgentRouter, AgentCI}, again.Trace)
}

func TestScenarioD_ConfirmationGate(t *testing.T) {
	fields := map[string]string{"cnp": "1850101123456", "nume": "POPESCU"}
	pending := func() *State {
		st := session("ci-1", "ci")
		st.App.PendingAutofill = &PendingAutofillOffer{Fields: fields, Offer: true}
		st.App.Continuation = AgentCI
		return st
	}

	t.Run("yes applies once and hands back", func(t *testing.T) {
		h := newHarness(t)
		out := h.turn(t, pending(), "Da", nil)

		applied := stepsOf(out, StepAutofillApply)
		require.Len(t, applied, 1)
		assert.Equal(t, fields, applied[0].Payload["fields"])
		assert.Nil(t, out.App.PendingAutofill)
		assert.Empty(t, out.App.Continuation)
		assert.Equal(t, "POPESCU", out.Person["nume"])
		assert.Equal(t, []AgentID{AgentRouter, AgentCI}, out.Trace)
		assert.True(t, strings.HasPrefix(out.Reply, T(LangRO, MsgAutofillApplied)))
	})

	t.Run("no clears without applying", func(t *testing.T) {
		h := newHarness(t)
		out := h.turn(t, pending(), "nu", nil)

		assert.Empty(t, stepsOf(out, StepAutofillApply))
		assert.Nil(t, out.App.PendingAutofill)
		assert.Empty(t, out.Person["nume"])
		assert.Equal(t, []AgentID{AgentRouter, AgentCI}, out.Trace)
	})

	t.Run("anything else re-asks", func(t *testing.T) {
		h := newHarness(t)
		out := h.turn(t, pending(), "vreau ajutor social", nil)

		assert.Empty(t, stepsOf(out, StepAutofillApply))
		require.True(t, out.App.HasPendingOffer())
		assert.Equal(t, []AgentID{AgentRouter}, out.Trace)
		assert.Contains(t, out.Reply, "- cnp: 1850101123456")
	})

	t.Run("empty message re-asks", func(t *testing.T) {
		h := newHarness(t)
		out := h.turn(t, pending(), "   ", nil)

		assert.Empty(t, stepsOf(out, StepAutofillApply))
		require.True(t, out.App.HasPendingOffer())
		assert.Equal(t, AgentCI, out.App.Continuation)
		assert.Equal(t, []AgentID{AgentRouter}, out.Trace)
		assert.Contains(t, out.Reply, "- cnp: 1850101123456")
	})

	t.Run("continuation falls back to the ui context", func(t *testing.T) {
		h := newHarness(t)
		st := pending()
		st.App.Continuation = ""
		st.App.UIContext = "taxe"
		out := h.turn(t, st, "yes", nil)
		assert.Equal(t, []AgentID{AgentRouter, AgentTaxe}, out.Trace)
	})
}

func TestWizard_FullPathCreatesCase(t *testing.T) {
	h := newHarness(t)
	for _, kind := range []string{"cert_nastere", "dovada_adresa", "ci_veche"} {
		h.uploads.Add("ci-1", store.Upload{Filename: kind + ".pdf", KindHint: kind})
	}
	st := session("ci-1", "ci")

	// Uploads are recognised first; no OCR text means no offer.
	out := h.turn(t, st, memory.MarkerPing, nil)
	assert.Equal(t, []AgentID{AgentRouter, AgentDocIntake, AgentDocOCR, AgentCI}, out.Trace)
	assert.Len(t, out.App.Docs, 3)
	assert.Equal(t, T(LangRO, MsgOCRNoFields)+"\n\n"+T(LangRO, MsgWizardStep1), out.Reply)

	out = h.turn(t, out, "", &FormInput{SelectedSlotID: "slot-1"})
	assert.Equal(t, T(LangRO, MsgWizardStep2), out.Reply)
	assert.Equal(t, PhaseAwaitingEligibility, out.App.Phase)

	out = h.turn(t, out, "", &FormInput{EligibilityReason: "EXP"})
	assert.True(t, out.App.TypeEligConfirmed)
	assert.Equal(t, "CIS", out.App.Type)
	focus := stepsOf(out, StepFocusField)
	require.Len(t, focus, 1)
	assert.Equal(t, "cnp", focus[0].Payload["field_id"])
	require.Len(t, stepsOf(out, StepToast), 1)

	out.Person = completePerson()
	out = h.turn(t, out, memory.MarkerPhase2Done, nil)

	assert.Equal(t, []AgentID{AgentRouter, AgentCI, AgentCase}, out.Trace)
	assert.Equal(t, PhaseReady, out.App.Phase)
	assert.Equal(t, "CASE-0001", out.App.CaseID)
	require.Len(t, h.cases.Requests(), 1)
	req := h.cases.Requests()[0]
	assert.Equal(t, "CI", req.Program)
	assert.Equal(t, "CIS", req.Type)
	assert.Equal(t, "slot-1", req.SlotID)
	assert.EqualValues(t, 1, h.metrics.GetSummary().CasesCreated)

	// Resubmitting never creates a second case.
	out = h.turn(t, out, memory.MarkerPhase2Done, nil)
	assert.Len(t, h.cases.Requests(), 1)
	assert.Contains(t, out.Reply, "CASE-0001")
}

func TestWizard_MissingDocsHighlighted(t *testing.T) {
	h := newHarness(t)
	st := session("ci-1", "ci")
	st.Person = completePerson()

	out := h.turn(t, st, "", &FormInput{SelectedSlotID: "s", Type: "CIS", EligibilityReason: "LOSS"})

	hl := stepsOf(out, StepHighlightMissingDocs)
	require.Len(t, hl, 1)
	assert.Equal(t, []string{"cert_nastere", "dovada_adresa", "ci_veche", "politie"}, hl[0].Payload["kinds"])
	assert.Len(t, stepsOf(out, StepOpenSection), 1)
	assert.Equal(t, PhaseAwaitingDocuments, out.App.Phase)
	assert.Empty(t, h.cases.Requests())
}

func TestWizard_ForcedReason(t *testing.T) {
	h := newHarness(t)
	st := session("taxe-1", "taxe")

	out := h.turn(t, st, "", &FormInput{SelectedSlotID: "s", Type: "AMENZI"})

	assert.Equal(t, "PLATA", out.App.EligibilityReason)
	assert.True(t, out.App.TypeEligConfirmed)
	assert.Contains(t, out.Reply, T(LangRO, MsgWizardReasonForced, "AMENZI", "PLATA"))
}

func TestWizard_IgnoresUndeclaredFormValues(t *testing.T) {
	h := newHarness(t)
	out := h.turn(t, session("ci-1", "ci"), "", &FormInput{SelectedSlotID: "s", Type: "PASAPORT", EligibilityReason: "NOPE"})

	assert.Empty(t, out.App.Type)
	assert.Empty(t, out.App.EligibilityReason)
	assert.False(t, out.App.TypeEligConfirmed)
	assert.Equal(t, T(LangRO, MsgWizardStep2), out.Reply)
}

// The document check must never run before the slot and eligibility guards pass.
func TestWizard_PhaseMonotonicity(t *testing.T) {
	h := newHarness(t)
	forms := []*FormInput{
		nil,
		{Type: "CEI"},
		{EligibilityReason: "AGE_14"},
		{TypeEligConfirmed: true},
		{SelectedSlotID: "s"},
	}
	for _, f := range forms {
		st := session("ci-1", "ci")
		st.Person = completePerson()
		out := h.turn(t, st, "", f)
		if out.App.SelectedSlotID == "" || !out.App.TypeEligConfirmed {
			assert.Empty(t, stepsOf(out, StepHighlightMissingDocs), "form %+v", f)
			assert.Less(t, out.App.Phase, PhaseAwaitingDocuments)
		}
	}
}

func TestCase_FailureIsReportedWithoutRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want MsgKey
	}{
		{"transient", ErrServiceUnavailable, MsgCaseFailed},
		{"permanent", errors.Join(ErrInvalidInput, errors.New("cnp invalid")), MsgCaseInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.cases.Err = tt.err
			st := session("ci-1", "ci")
			st.App.Program = "CI"
			st.App.Phase = PhaseReady
			st.App.Type = "CIS"

			reg, err := NewDefaultRegistry(Deps{Checklists: h.set, Cases: h.cases})
			require.NoError(t, err)
			a, _ := reg.Get(AgentCase)
			require.NoError(t, a.Handle(context.Background(), st))

			assert.Empty(t, st.App.CaseID)
			assert.Len(t, h.cases.Requests(), 1)
			assert.True(t, strings.HasPrefix(st.Reply, strings.SplitN(T(LangRO, tt.want), "%", 2)[0]))
			toasts := stepsOf(st, StepToast)
			require.Len(t, toasts, 1)
			assert.Equal(t, string(ToastError), toasts[0].Payload["level"])
		})
	}
}

func TestCase_SchedulesAfterCaseForSocial(t *testing.T) {
	h := newHarness(t)
	st := session("as-1", "social")
	st.App.Program = "AS"
	st.App.Type = "VMI"
	st.App.Phase = PhaseReady

	reg, err := NewDefaultRegistry(Deps{Checklists: h.set, Cases: h.cases})
	require.NoError(t, err)
	a, _ := reg.Get(AgentCase)
	require.NoError(t, a.Handle(context.Background(), st))

	assert.Equal(t, "CASE-0001", st.App.CaseID)
	assert.Equal(t, AgentScheduling, st.NextAgent)
}

func TestIntake_IdempotentUpsert(t *testing.T) {
	h := newHarness(t)
	h.uploads.Add("s", store.Upload{Filename: "buletin.jpg", KindHint: "ci"})
	h.uploads.Add("s", store.Upload{Filename: "ci_noua.jpg", KindHint: "carte_identitate", Status: store.UploadStatusNeedsReview})
	st := session("s", "ci")

	intake := NewIntakeAgent(h.uploads, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, intake.Handle(context.Background(), st))
	}

	require.Len(t, st.App.Docs, 1)
	doc := st.App.Docs[docs.KindCIVeche]
	assert.EqualValues(t, 2, doc.UploadID, "latest recognition wins")
	assert.Equal(t, DocStatusNeedsReview, doc.Status)
	assert.Empty(t, st.App.PresentKinds())
	assert.Equal(t, AgentDocOCR, st.NextAgent)
}

func TestIntake_ReadFailureCountsAsNone(t *testing.T) {
	h := newHarness(t)
	h.uploads.Err = errors.New("db down")
	st := session("s", "ci")
	st.UploadsObserved = 7

	require.NoError(t, NewIntakeAgent(h.uploads, nil).Handle(context.Background(), st))
	assert.EqualValues(t, 7, st.App.UploadsSeenLastID)
	assert.Empty(t, st.Steps)
	assert.Equal(t, AgentDocOCR, st.NextAgent)
}

func TestOCR_NewestUploadWinsPerField(t *testing.T) {
	h := newHarness(t)
	h.uploads.Add("s", store.Upload{ID: 2, ExtractedText: "Nume: Ionescu\nTelefon 0722123456"})
	h.uploads.Add("s", store.Upload{ID: 1, ExtractedText: "Nume: Popa\nEmail: popa@example.ro"})
	st := session("s", "social")
	st.ReturnTo = AgentSocial

	require.NoError(t, NewOCRAgent(h.uploads, h.set, nil).Handle(context.Background(), st))

	fields := st.App.PendingAutofill.Fields
	assert.Equal(t, "Ionescu", fields["nume"])
	assert.Equal(t, "popa@example.ro", fields["email"])
	assert.Equal(t, "0722123456", fields["telefon"])
	assert.Equal(t, []string{"missing_cnp", "missing_name"}, st.App.PendingAutofill.Warnings)
	assert.Equal(t, st.App.PendingAutofill.Warnings, st.App.Clone().PendingAutofill.Warnings)
	assert.Equal(t, AgentSocial, st.App.Continuation)
	assert.Empty(t, st.NextAgent)
}

func TestRouter_LanguageBootstrap(t *testing.T) {
	h := newHarness(t)

	st := NewState("s", memory.MarkerStart)
	out, err := h.d.RunTurn(context.Background(), st)
	require.NoError(t, err)
	assert.Contains(t, out.Reply, T(LangRO, MsgChooseLang))
	assert.Contains(t, out.Reply, T(LangEN, MsgChooseLang))
	assert.Empty(t, out.Lang)

	st = NewState("s", "English")
	out, err = h.d.RunTurn(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, LangEN, out.Lang)
	assert.Equal(t, []AgentID{AgentRouter, AgentEntry}, out.Trace)
	assert.True(t, strings.HasPrefix(out.Reply, T(LangEN, MsgLangSetEN)))
	assert.Contains(t, out.Reply, T(LangEN, MsgGreetEntry))
}

func TestRouter_LanguageDetector(t *testing.T) {
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)
	r := NewRouterAgent(RouterConfig{Checklists: set, Resolver: router.NewService(router.Config{}), LangDetector: KeywordLangDetector{}})

	st := NewState("s", "I need a new identity card")
	require.NoError(t, r.Handle(context.Background(), st))
	assert.Equal(t, LangEN, st.Lang)
	assert.Len(t, stepsOf(st, StepNavigate), 1)
}

func TestRouter_Intents(t *testing.T) {
	tests := []struct {
		name    string
		ui      string
		text    string
		trace   []AgentID
		hasStep StepType
	}{
		{"legal", "entry", "Care este procedura?", []AgentID{AgentRouter, AgentLegal}, StepToast},
		{"operator", "entry", "operator: dosar", []AgentID{AgentRouter, AgentOperator}, ""},
		{"same wizard", "social", "ajutor social", []AgentID{AgentRouter, AgentSocial}, StepOpenSection},
		{"other wizard routes", "social", "impozit pe cladiri", []AgentID{AgentRouter, AgentTaxe}, StepOpenSection},
		{"unknown in public asks", "entry", "salut", []AgentID{AgentRouter}, ""},
		{"unknown in wizard restates", "taxe", "salut", []AgentID{AgentRouter, AgentTaxe}, StepOpenSection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out := h.turn(t, session("s", tt.ui), tt.text, nil)
			assert.Equal(t, tt.trace, out.Trace)
			if tt.hasStep != "" {
				assert.NotEmpty(t, stepsOf(out, tt.hasStep))
			}
		})
	}
}

func TestRouter_WizardNeverNavigates(t *testing.T) {
	h := newHarness(t)
	st := session("soc-1", "social")

	out := h.turn(t, st, "vreau carte de identitate", nil)

	assert.Empty(t, stepsOf(out, StepNavigate))
	assert.Equal(t, []AgentID{AgentRouter, AgentCI}, out.Trace)
	assert.Equal(t, "social", out.App.UIContext)
}

func TestRouter_ClarifyingQuestionStops(t *testing.T) {
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)
	mock := router.NewMockClassifier()
	mock.Default = router.Result{Status: router.StatusOK, Intent: router.IntentUnknown, Action: router.ActionAskClarify, Confidence: 0.9, Question: "Pentru ce act?"}
	r := NewRouterAgent(RouterConfig{Checklists: set, Resolver: router.NewService(router.Config{Classifier: mock})})

	st := session("s", "entry")
	st.Message = "am nevoie de un act"
	require.NoError(t, r.Handle(context.Background(), st))
	assert.Equal(t, "Pentru ce act?", st.Reply)
	assert.Empty(t, st.NextAgent)
}

func TestRouter_HubGovAction(t *testing.T) {
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)
	mock := router.NewMockClassifier()
	mock.Default = router.Result{Status: router.StatusOK, Intent: router.IntentCarteIdentitate, Action: router.ActionHubGovSlots, Confidence: 0.9, Entities: map[string]string{"location": "S3"}}
	r := NewRouterAgent(RouterConfig{Checklists: set, Resolver: router.NewService(router.Config{Classifier: mock})})

	st := session("s", "ci")
	st.App.SelectedSlotID = "x"
	st.Message = "verifica hub-ul CEI"
	require.NoError(t, r.Handle(context.Background(), st))
	require.Len(t, st.Steps, 1)
	assert.Equal(t, StepHubGovAction, st.Steps[0].Type)
	assert.Equal(t, AgentHubGov, st.NextAgent)
}

func TestRouter_UploadMarkerGoesToIntake(t *testing.T) {
	h := newHarness(t)
	out := h.turn(t, session("s", "taxe"), memory.MarkerUpload, nil)
	assert.Equal(t, []AgentID{AgentRouter, AgentDocIntake, AgentDocOCR, AgentTaxe}, out.Trace)
}

func TestOperator_ListsCases(t *testing.T) {
	h := newHarness(t)
	_, err := h.cases.CreateCase(context.Background(), CaseRequest{Program: "AS", Type: "VMI"})
	require.NoError(t, err)

	out := h.turn(t, session("op", "operator"), "lista cazuri", nil)
	assert.Equal(t, []AgentID{AgentRouter, AgentOperator}, out.Trace)
	assert.Contains(t, out.Reply, "CASE-0001 AS/VMI")
}
