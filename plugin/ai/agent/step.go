package agent

import (
	"github.com/hrygo/ghiseu/plugin/ai/docs"
)

// StepType is a UI instruction kind. The engine only produces steps; the
// presentation layer interprets them.
type StepType string

const (
	StepToast                StepType = "toast"
	StepNavigate             StepType = "navigate"
	StepFocusField           StepType = "focus_field"
	StepHighlightMissingDocs StepType = "highlight_missing_docs"
	StepAutofillApply        StepType = "autofill_apply"
	StepOpenSection          StepType = "open_section"
	StepHubGovAction         StepType = "hubgov_action"
)

// ToastLevel is the severity of a toast.
type ToastLevel string

const (
	ToastInfo  ToastLevel = "info"
	ToastWarn  ToastLevel = "warn"
	ToastError ToastLevel = "error"
)

// SectionSlots is the page section holding the slot picker and uploads.
const SectionSlots = "slotsBox"

// Step is one UI-facing side effect.
type Step struct {
	Type    StepType       `json:"type"`
	Payload map[string]any `json:"payload"`
}

func ToastStep(level ToastLevel, title, message string) Step {
	return Step{Type: StepToast, Payload: map[string]any{
		"level":   string(level),
		"title":   title,
		"message": message,
	}}
}

func NavigateStep(url string) Step {
	return Step{Type: StepNavigate, Payload: map[string]any{"url": url}}
}

func FocusFieldStep(fieldID string) Step {
	return Step{Type: StepFocusField, Payload: map[string]any{"field_id": fieldID}}
}

func HighlightMissingDocsStep(kinds []docs.Kind) Step {
	return Step{Type: StepHighlightMissingDocs, Payload: map[string]any{"kinds": docs.Strings(kinds)}}
}

func OpenSectionStep(sectionID string) Step {
	return Step{Type: StepOpenSection, Payload: map[string]any{"section_id": sectionID}}
}

// AutofillApplyStep copies fields so later changes to the offer do not leak into the step.
func AutofillApplyStep(fields map[string]string) Step {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Step{Type: StepAutofillApply, Payload: map[string]any{"fields": copied}}
}

func HubGovActionStep(action string, args map[string]string) Step {
	if args == nil {
		args = map[string]string{}
	}
	return Step{Type: StepHubGovAction, Payload: map[string]any{"action": action, "args": args}}
}
