// Package memory keeps the bounded per-session turn log used by the dispatcher and the classifier.
package memory

import (
	"strings"
	"time"
)

// DefaultMaxTurns is the default number of turns kept per session.
const DefaultMaxTurns = 30

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one immutable entry of the history log.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// History is an append-only turn log with a sliding window.
// The zero value is usable and keeps DefaultMaxTurns turns.
// History is not safe for concurrent use; callers hold the session lock.
type History struct {
	Turns    []Turn `json:"turns"`
	MaxTurns int    `json:"max_turns,omitempty"`
}

// NewHistory creates a history bounded to maxTurns (DefaultMaxTurns when <= 0).
func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &History{
		Turns:    make([]Turn, 0, maxTurns),
		MaxTurns: maxTurns,
	}
}

func (h *History) limit() int {
	if h.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return h.MaxTurns
}

// Add appends a turn, evicting the oldest turns past the cap.
func (h *History) Add(role Role, text string) {
	h.Append(Turn{Role: role, Text: text})
}

// Append appends a prepared turn. A zero timestamp is set to now.
func (h *History) Append(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	h.Turns = append(h.Turns, turn)

	// Sliding window: keep only the most recent turns
	if n := h.limit(); len(h.Turns) > n {
		h.Turns = append([]Turn(nil), h.Turns[len(h.Turns)-n:]...)
	}
}

// Raw returns a copy of every retained turn, oldest first.
func (h *History) Raw() []Turn {
	result := make([]Turn, len(h.Turns))
	copy(result, h.Turns)
	return result
}

// Filtered returns the retained turns without control-marker turns.
// This is the only view handed to classifiers.
func (h *History) Filtered() []Turn {
	result := make([]Turn, 0, len(h.Turns))
	for _, t := range h.Turns {
		if IsControlMarker(t.Text) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// Recent returns the last n filtered turns.
func (h *History) Recent(n int) []Turn {
	filtered := h.Filtered()
	if n > 0 && n < len(filtered) {
		filtered = filtered[len(filtered)-n:]
	}
	return filtered
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return len(h.Turns)
}

// Clone returns a deep copy.
func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	return &History{
		Turns:    h.Raw(),
		MaxTurns: h.MaxTurns,
	}
}

// Reserved input tokens sent by the UI. They bypass intent classification.
const (
	MarkerStart      = "__start__"
	MarkerUpload     = "__upload__"
	MarkerPing       = "__ping__"
	MarkerPhase1Done = "__phase1_done__"
	MarkerPhase2Done = "__phase2_done__"
)

var controlMarkers = map[string]struct{}{
	MarkerStart:      {},
	MarkerUpload:     {},
	MarkerPing:       {},
	MarkerPhase1Done: {},
	MarkerPhase2Done: {},
}

// IsControlMarker reports whether text is exactly one of the reserved markers.
func IsControlMarker(text string) bool {
	_, ok := controlMarkers[strings.TrimSpace(text)]
	return ok
}
