// Package agent implements the agent-to-agent dispatch engine.
//
// One user message is handled per turn: the Dispatcher starts at the router
// and keeps invoking the agent named by State.NextAgent until none is named.
// Agent identifiers form a closed set validated when the Registry is built.
//
// agent 包实现代理间调度引擎：每轮从 router 开始，按 NextAgent 依次调用代理，直到没有下一个代理。
package agent

import (
	"context"
)

// AgentID names an agent. The set is closed; see AllAgentIDs.
type AgentID string

const (
	AgentRouter     AgentID = "router"
	AgentEntry      AgentID = "entry"
	AgentCI         AgentID = "ci"
	AgentSocial     AgentID = "social"
	AgentTaxe       AgentID = "taxe"
	AgentDocIntake  AgentID = "doc_intake"
	AgentDocOCR     AgentID = "doc_ocr"
	AgentCase       AgentID = "case"
	AgentScheduling AgentID = "scheduling"
	AgentLegal      AgentID = "legal"
	AgentHubGov     AgentID = "hubgov"
	AgentOperator   AgentID = "operator"
)

var allAgentIDs = []AgentID{
	AgentRouter,
	AgentEntry,
	AgentCI,
	AgentSocial,
	AgentTaxe,
	AgentDocIntake,
	AgentDocOCR,
	AgentCase,
	AgentScheduling,
	AgentLegal,
	AgentHubGov,
	AgentOperator,
}

// AllAgentIDs returns every known agent identifier.
func AllAgentIDs() []AgentID {
	return append([]AgentID(nil), allAgentIDs...)
}

// Valid reports whether id is one of the known identifiers.
func (id AgentID) Valid() bool {
	for _, known := range allAgentIDs {
		if id == known {
			return true
		}
	}
	return false
}

func (id AgentID) String() string {
	return string(id)
}

// ParseAgentID maps a configuration string to a known identifier.
func ParseAgentID(s string) (AgentID, bool) {
	id := AgentID(s)
	return id, id.Valid()
}

// Agent is one node of the dispatch graph.
// Agent 是调度图中的一个节点。
type Agent interface {
	// ID returns the identifier the agent is registered under.
	ID() AgentID

	// Handle reads and updates the shared state. It names the next agent by
	// setting st.NextAgent; leaving it empty ends the turn.
	// An error aborts the turn with a generic apology.
	Handle(ctx context.Context, st *State) error
}
