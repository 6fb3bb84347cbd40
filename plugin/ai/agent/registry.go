package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
)

// Registry maps agent identifiers to agents. It is filled at startup and
// validated once; lookups after Validate never miss for a known identifier.
// Registry 在启动时注册并校验所有代理。
type Registry struct {
	agents map[AgentID]Agent
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[AgentID]Agent)}
}

// Register adds an agent under its own identifier.
// Register 注册代理。
func (r *Registry) Register(agent Agent) error {
	if agent == nil {
		return fmt.Errorf("agent cannot be nil")
	}
	id := agent.ID()
	if !id.Valid() {
		return errors.Wrapf(ErrUnknownAgent, "cannot register %q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; exists {
		return errors.Wrapf(ErrDuplicateAgent, "agent %s", id)
	}
	r.agents[id] = agent
	return nil
}

// Get retrieves a registered agent.
// Get 按标识检索已注册的代理。
func (r *Registry) Get(id AgentID) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[id]
	return agent, exists
}

// List returns the registered identifiers in sorted order.
func (r *Registry) List() []AgentID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]AgentID, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Validate checks that every known identifier has an agent and that every
// checklist names a registered agent. It runs once at startup.
// Validate 在启动时校验注册表的完整性。
func (r *Registry) Validate(checklists *checklist.Set) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range allAgentIDs {
		if _, ok := r.agents[id]; !ok {
			return errors.Wrapf(ErrMissingAgent, "agent %s", id)
		}
	}
	if checklists == nil {
		return nil
	}
	for _, c := range checklists.All() {
		id, ok := ParseAgentID(c.Agent)
		if !ok {
			return errors.Wrapf(ErrUnknownAgent, "checklist %s names agent %q", c.Program, c.Agent)
		}
		if _, ok := r.agents[id]; !ok {
			return errors.Wrapf(ErrMissingAgent, "checklist %s names agent %s", c.Program, id)
		}
	}
	return nil
}
