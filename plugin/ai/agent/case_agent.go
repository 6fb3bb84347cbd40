package agent

import (
	"context"
	"log/slog"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// CaseAgent submits a ready application. Submission is at-most-once: a
// failure is reported to the user, who must resubmit.
type CaseAgent struct {
	creator    CaseCreator
	checklists *checklist.Set
	metrics    *Metrics
}

// NewCaseAgent creates the case agent. metrics may be nil.
func NewCaseAgent(creator CaseCreator, checklists *checklist.Set, metrics *Metrics) *CaseAgent {
	return &CaseAgent{creator: creator, checklists: checklists, metrics: metrics}
}

func (a *CaseAgent) ID() AgentID { return AgentCase }

func (a *CaseAgent) Handle(ctx context.Context, st *State) error {
	app := st.App
	if app.CaseID != "" {
		st.Say(st.T(MsgWizardCaseExists, app.CaseID))
		return nil
	}
	if app.Phase != PhaseReady || a.creator == nil {
		st.Say(st.T(MsgCaseNotReady))
		return nil
	}

	req := CaseRequest{
		SessionID:         st.SessionID,
		Program:           app.Program,
		Type:              app.Type,
		EligibilityReason: app.EligibilityReason,
		SlotID:            app.SelectedSlotID,
		Person:            st.Person.Clone(),
	}
	cctx, cancel := context.WithTimeout(ctx, timeout.CaseCreationTimeout)
	res, err := a.creator.CreateCase(cctx, req)
	cancel()
	if err != nil {
		classified := ClassifyError(err)
		slog.Error("case creation failed",
			"session_id", st.SessionID,
			"program", req.Program,
			"class", classified.Class,
			"error", err)
		if a.metrics != nil {
			a.metrics.RecordErrorClass(classified.Class)
		}
		msg := st.T(MsgCaseFailed)
		if classified.IsPermanent() {
			msg = st.T(MsgCaseInvalid, textutil.Truncate(err.Error(), timeout.MaxTruncateLength))
		}
		st.AddStep(ToastStep(ToastError, st.T(MsgTitleCase), msg))
		st.Say(msg)
		return nil
	}

	app.CaseID = res.ID
	if a.metrics != nil {
		a.metrics.RecordCaseCreated()
	}
	slog.Info("case created",
		"session_id", st.SessionID,
		"case_id", res.ID,
		"program", req.Program,
		"type", req.Type)
	st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleCase), st.T(MsgCaseCreated, res.ID)))
	st.Say(st.T(MsgCaseCreated, res.ID))

	if a.checklists != nil {
		if c, ok := a.checklists.ByProgram(app.Program); ok && c.SchedulesAfterCase(app.Type, app.EligibilityReason) {
			st.NextAgent = AgentScheduling
		}
	}
	return nil
}
