package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// WizardAgent escorts a session from "nothing selected" to "ready to create a case".
// One implementation serves every program; the checklist supplies the differences.
// Guards run in phase order on every turn and the first unmet guard ends the turn.
//
// WizardAgent 是参数化的分阶段向导：按阶段顺序检查，首个未满足的条件即结束本轮。
type WizardAgent struct {
	id      AgentID
	list    *checklist.Checklist
	uploads UploadSource
}

// NewWizardAgent creates the wizard for list. uploads may be nil to skip the uploads check.
func NewWizardAgent(list *checklist.Checklist, uploads UploadSource) (*WizardAgent, error) {
	id, ok := ParseAgentID(list.Agent)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAgent, "checklist %s names agent %q", list.Program, list.Agent)
	}
	return &WizardAgent{id: id, list: list, uploads: uploads}, nil
}

func (w *WizardAgent) ID() AgentID { return w.id }

// Checklist returns the program configuration driving the wizard.
func (w *WizardAgent) Checklist() *checklist.Checklist { return w.list }

func (w *WizardAgent) Handle(ctx context.Context, st *State) error {
	app := st.App
	if app.Program != w.list.Program {
		app.resetWizard(w.list.Program)
	}
	w.applyForm(st)

	if app.CaseID != "" {
		st.Say(st.T(MsgWizardCaseExists, app.CaseID))
		return nil
	}

	if w.newUploads(ctx, st) {
		st.ReturnTo = w.id
		st.NextAgent = AgentDocIntake
		st.Say(st.T(MsgWizardDetectUploads))
		return nil
	}

	app.Phase = app.Phase.Advance(PhaseAwaitingSlot)
	if app.SelectedSlotID == "" {
		st.AddStep(OpenSectionStep(SectionSlots))
		st.Say(st.T(MsgWizardStep1))
		return nil
	}

	app.Phase = app.Phase.Advance(PhaseAwaitingEligibility)
	if !w.confirmEligibility(st) {
		st.Say(st.T(MsgWizardStep2))
		return nil
	}

	app.Phase = app.Phase.Advance(PhaseAwaitingPersonFields)
	if missing := w.list.MissingPersonFields(st.Person); len(missing) > 0 {
		st.AddStep(ToastStep(ToastWarn, st.T(MsgTitleMissing), st.T(MsgWizardMissingFields)))
		st.AddStep(FocusFieldStep(missing[0]))
		st.Say(st.T(MsgWizardStep3))
		return nil
	}

	app.Phase = app.Phase.Advance(PhaseAwaitingDocuments)
	missing, err := w.list.MissingDocs(app.Type, app.EligibilityReason, app.PresentKinds())
	if err != nil {
		return errors.Wrapf(err, "%s required documents", w.list.Program)
	}
	if len(missing) > 0 {
		st.AddStep(HighlightMissingDocsStep(missing))
		st.AddStep(OpenSectionStep(SectionSlots))
		st.Say(st.T(MsgWizardMissingDocs, kindLabels(missing, st.Lang)))
		return nil
	}

	app.Phase = app.Phase.Advance(PhaseReady)
	st.Say(st.T(MsgWizardReady))
	st.NextAgent = AgentCase
	return nil
}

// applyForm copies the structured payload into the wizard state. Undeclared
// types and reasons are ignored.
func (w *WizardAgent) applyForm(st *State) {
	f, app := st.Form, st.App
	if f == nil {
		return
	}
	if typ := strings.TrimSpace(f.Type); typ != "" {
		if w.list.ValidType(typ) {
			app.Type = typ
		} else {
			slog.Debug("ignoring undeclared type", "program", w.list.Program, "type", typ)
		}
	}
	if reason := strings.TrimSpace(f.EligibilityReason); reason != "" {
		if w.list.ValidReason(reason) {
			app.EligibilityReason = reason
		} else {
			slog.Debug("ignoring undeclared reason", "program", w.list.Program, "reason", reason)
		}
	}
	if slot := strings.TrimSpace(f.SelectedSlotID); slot != "" {
		app.SelectedSlotID = slot
	}
	if f.TypeEligConfirmed {
		app.TypeEligConfirmed = true
	}
}

// newUploads reports whether uploads arrived since intake last ran.
// A failed read counts as "nothing new".
func (w *WizardAgent) newUploads(ctx context.Context, st *State) bool {
	if w.uploads == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, timeout.UploadsTimeout)
	defer cancel()
	latest, err := w.uploads.LatestUploadID(cctx, st.SessionID)
	if err != nil {
		slog.Warn("uploads check failed",
			"session_id", st.SessionID,
			"error", err)
		return false
	}
	if latest <= st.App.UploadsSeenLastID {
		return false
	}
	st.UploadsObserved = latest
	return true
}

// confirmEligibility settles type and reason and reports whether the pair is confirmed.
func (w *WizardAgent) confirmEligibility(st *State) bool {
	app := st.App
	if app.TypeEligConfirmed && app.Type != "" {
		return true
	}

	if app.Type == "" && app.EligibilityReason != "" {
		if typ, err := w.list.ResolveType(app.EligibilityReason); err == nil {
			app.Type = typ
		} else {
			slog.Warn("cannot derive type",
				"program", w.list.Program,
				"reason", app.EligibilityReason,
				"error", err)
		}
	}
	if app.Type != "" {
		if forced, ok := w.list.ForcedReason(app.Type); ok && app.EligibilityReason != forced {
			app.EligibilityReason = forced
			st.Say(st.T(MsgWizardReasonForced, app.Type, forced))
			app.TypeEligConfirmed = true
			return true
		}
	}

	confirmed := app.TypeEligConfirmed ||
		strings.TrimSpace(st.Message) == memory.MarkerPhase2Done ||
		(app.Type != "" && app.EligibilityReason != "") ||
		(!w.list.NeedsReason() && app.Type != "")
	if !confirmed {
		return false
	}
	if app.Type == "" {
		typ, err := w.list.ResolveType(app.EligibilityReason)
		if err != nil || typ == "" {
			slog.Warn("cannot derive type",
				"program", w.list.Program,
				"reason", app.EligibilityReason,
				"error", err)
			return false
		}
		app.Type = typ
	}
	app.TypeEligConfirmed = true
	return true
}

func kindLabels(kinds []docs.Kind, lang string) string {
	labels := make([]string, 0, len(kinds))
	for _, k := range kinds {
		labels = append(labels, k.Label(lang))
	}
	return strings.Join(labels, ", ")
}
