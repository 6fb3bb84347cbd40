package agent

import (
	"context"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
)

// EntryAgent greets the user for the page the session lives on.
type EntryAgent struct {
	checklists *checklist.Set
}

func NewEntryAgent(checklists *checklist.Set) *EntryAgent {
	return &EntryAgent{checklists: checklists}
}

func (e *EntryAgent) ID() AgentID { return AgentEntry }

func (e *EntryAgent) Handle(_ context.Context, st *State) error {
	switch DomainFor(e.checklists, st.App.UIContext) {
	case AgentCI:
		st.Say(st.T(MsgGreetCI))
	case AgentSocial:
		st.Say(st.T(MsgGreetSocial))
	case AgentTaxe:
		st.Say(st.T(MsgGreetTaxe))
	case AgentOperator:
		st.Say(st.T(MsgGreetOperator))
	default:
		st.Say(st.T(MsgGreetEntry))
		st.Say(st.T(MsgEntryHelp))
	}
	return nil
}
