package shellsession

import (
	"context"
	"time"

	wcvt "github.com/wcgw-run/wcgw-go/internal/vt"
)

// Result is the outcome of a single BashCommand/StatusCheck dispatch: the
// newly observed output lines and the trailing status block.
type Result struct {
	Output []string
	Status Status
}

// Execute sends a new command and waits for the prompt within the first
// wb.Step only: a fresh command never enters the patience loop on its own
// first wait — that only applies to explicit status-check polls (see
// Poll). Refuses to dispatch while inst is still
// running a prior command — the caller should StatusCheck, SendSpecials
// Enter, or Ctrl-C first.
func Execute(ctx context.Context, inst *Instance, command string, wb WaitBudget) (Result, error) {
	if inst.State() == StateRunning {
		return Result{}, ErrPreviousStillRunning
	}
	if err := inst.SendCommand(command); err != nil {
		return Result{}, err
	}
	return awaitOnce(ctx, inst, wb.Step, wb)
}

// Poll drives the patience loop for an already-running command (a
// StatusCheck, or an interactive SendText/SendSpecials/SendAscii that
// qualifies as a status-check probe): after the first wb.Step yields no
// prompt, keep probing in wb.Step increments up to wb.MaxOnOutput,
// resetting patience to 3 whenever the incremental output changes and
// decrementing it when it doesn't, stopping at prompt, budget exhaustion,
// or patience reaching 0.
func Poll(ctx context.Context, inst *Instance, wb WaitBudget) (Result, error) {
	first, err := awaitOnce(ctx, inst, wb.Step, wb)
	if err != nil || !first.Status.Running {
		return first, err
	}

	elapsed := wb.Step
	patience := wb.Patience
	last := wcvt.JoinRstrip(first.Output)

	for elapsed < wb.MaxOnOutput && patience > 0 {
		next, err := awaitOnce(ctx, inst, wb.Step, wb)
		if err != nil {
			return next, err
		}
		elapsed += wb.Step
		if !next.Status.Running {
			return next, nil
		}
		cur := wcvt.JoinRstrip(next.Output)
		if cur == last {
			patience--
		} else {
			patience = wb.Patience
			last = cur
		}
		first = next
	}
	return first, nil
}

// awaitOnce waits once for the prompt within timeout, renders whatever
// arrived (matched or not) as an incremental update against the instance's
// last pending-output snapshot, and reports status. A non-nil error comes
// from a cancelled ctx, from a PTY write or prompt timeout while GetStatus
// re-issues the init commands, or is ErrShellMalformedOutput when the
// jobs-count parse fails after 100 renders; a plain timeout of the first
// wait is not an error (matched=false).
func awaitOnce(ctx context.Context, inst *Instance, timeout time.Duration, wb WaitBudget) (Result, error) {
	before, matched, err := inst.expect(ctx, timeout)
	if err != nil {
		return Result{}, err
	}

	prev := inst.PendingOutput()
	lines := wcvt.Incremental(before, prev)

	if matched {
		inst.SetAtPrompt()
	} else {
		inst.SetPending(wcvt.JoinRstrip(wcvt.Render(before)))
	}

	status, statusErr := GetStatus(ctx, inst, wb)
	return Result{Output: lines, Status: status}, statusErr
}
