package agent

import "errors"

// Dispatch and collaborator errors.
// 调度与协作方错误。
var (
	// ErrUnknownAgent indicates a handoff to an identifier with no registered agent.
	// The turn is aborted with a generic apology.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrHopLimitExceeded indicates a turn ran more handoffs than the hop limit.
	// The turn is aborted; the pre-turn state stays usable for a retry.
	ErrHopLimitExceeded = errors.New("hop limit exceeded")

	// ErrAgentFailed indicates an agent returned an error from Handle.
	ErrAgentFailed = errors.New("agent failed")

	// ErrSessionBusy indicates another turn of the same session is still running.
	ErrSessionBusy = errors.New("session busy")

	// ErrCaseCreation indicates the case-creation collaborator failed.
	// Case creation is never retried automatically.
	ErrCaseCreation = errors.New("case creation failed")

	// ErrDuplicateAgent indicates two agents registered under one identifier.
	ErrDuplicateAgent = errors.New("agent already registered")

	// ErrMissingAgent indicates a known identifier has no registered agent at startup.
	ErrMissingAgent = errors.New("agent not registered")

	// ErrInvalidInput indicates the collaborator rejected the submitted data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates the collaborator is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// IsTransientError checks if the error is transient and might succeed on a later, user-initiated attempt.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrSessionBusy) ||
		ClassifyError(err).IsTransient()
}
