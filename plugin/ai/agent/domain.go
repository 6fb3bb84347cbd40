package agent

import (
	"strings"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
)

// DomainFor returns the agent that owns a ui context: the wizard whose agent or
// intent matches, the operator console, or the public entry agent.
func DomainFor(checklists *checklist.Set, uiContext string) AgentID {
	ui := strings.ToLower(strings.TrimSpace(uiContext))
	if checklists != nil {
		if c, ok := checklists.ByAgent(ui); ok {
			if id, ok := ParseAgentID(c.Agent); ok {
				return id
			}
		}
		if c, ok := checklists.ByIntent(ui); ok {
			if id, ok := ParseAgentID(c.Agent); ok {
				return id
			}
		}
	}
	if ui == string(AgentOperator) {
		return AgentOperator
	}
	return AgentEntry
}

// IsWizardContext reports whether uiContext belongs to a wizard page.
func IsWizardContext(checklists *checklist.Set, uiContext string) bool {
	switch DomainFor(checklists, uiContext) {
	case AgentEntry, AgentOperator:
		return false
	default:
		return true
	}
}
