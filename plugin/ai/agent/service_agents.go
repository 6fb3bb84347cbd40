package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
)

// SchedulingAgent guides the user to the slot picker.
type SchedulingAgent struct {
	checklists *checklist.Set
}

func NewSchedulingAgent(checklists *checklist.Set) *SchedulingAgent {
	return &SchedulingAgent{checklists: checklists}
}

func (s *SchedulingAgent) ID() AgentID { return AgentScheduling }

func (s *SchedulingAgent) Handle(_ context.Context, st *State) error {
	if st.App.CaseID != "" || IsWizardContext(s.checklists, st.App.UIContext) {
		st.AddStep(OpenSectionStep(SectionSlots))
		st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleScheduling), st.T(MsgSchedHelp)))
		st.Say(st.T(MsgSchedReply))
		return nil
	}
	st.Say(st.T(MsgSchedHelp))
	return nil
}

// LegalAgent answers legal questions. It is a placeholder until a knowledge source is wired.
type LegalAgent struct{}

func (LegalAgent) ID() AgentID { return AgentLegal }

func (LegalAgent) Handle(_ context.Context, st *State) error {
	st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleLegal), st.T(MsgLegalPlaceholder)))
	st.Say(st.T(MsgLegalPlaceholder))
	return nil
}

// HubGovAgent fronts the CEI hub services. The router has already emitted the hubgov_action step.
type HubGovAgent struct{}

func (HubGovAgent) ID() AgentID { return AgentHubGov }

func (HubGovAgent) Handle(_ context.Context, st *State) error {
	st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleHubGov), st.T(MsgHubGovPlaceholder)))
	st.Say(st.T(MsgHubGovPlaceholder))
	return nil
}

// OperatorAgent serves the back-office console.
type OperatorAgent struct {
	cases CaseLister
	limit int
}

// NewOperatorAgent creates the operator agent. cases may be nil.
func NewOperatorAgent(cases CaseLister) *OperatorAgent {
	return &OperatorAgent{cases: cases, limit: 20}
}

func (o *OperatorAgent) ID() AgentID { return AgentOperator }

func (o *OperatorAgent) Handle(ctx context.Context, st *State) error {
	text := textutil.Fold(st.Message)
	if o.cases == nil || !(strings.Contains(text, "lista cazuri") || strings.Contains(text, "list cases")) {
		st.Say(st.T(MsgOperatorHelp))
		return nil
	}

	list, err := o.cases.ListCases(ctx, o.limit)
	if err != nil {
		slog.Warn("operator case list failed", "error", err)
		st.AddStep(ToastStep(ToastError, st.T(MsgTitleCase), st.T(MsgCaseFailed)))
		st.Say(st.T(MsgOperatorHelp))
		return nil
	}
	lines := []string{st.T(MsgOperatorCases, len(list))}
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("- %s %s/%s %s", c.ID, c.Program, c.Type, c.Status))
	}
	st.Say(strings.Join(lines, "\n"))
	return nil
}
