package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// safeHandle runs a.Handle and converts a panic into an error so one faulty
// agent aborts the turn instead of the process.
func safeHandle(ctx context.Context, a Agent, st *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent panicked",
				"agent", a.ID(),
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Handle(ctx, st)
}
