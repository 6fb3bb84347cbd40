package agent

import (
	"fmt"
)

// Phase is the wizard step a session has reached. Phases are ordered and
// only ever move forward; guards are still re-checked in order on every turn.
type Phase int

const (
	PhaseAwaitingUploadsCheck Phase = iota
	PhaseAwaitingSlot
	PhaseAwaitingEligibility
	PhaseAwaitingPersonFields
	PhaseAwaitingDocuments
	PhaseReady
)

var phaseNames = []string{
	"awaiting_uploads_check",
	"awaiting_slot",
	"awaiting_eligibility",
	"awaiting_person_fields",
	"awaiting_documents",
	"ready",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Advance returns the later of p and to.
func (p Phase) Advance(to Phase) Phase {
	if to > p {
		return to
	}
	return p
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
