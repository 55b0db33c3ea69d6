package shellsession

import (
	"context"
	"fmt"
	"strings"
)

// Status is the structured form of the trailing status block every
// BashCommand/StatusCheck response carries.
type Status struct {
	Running      bool
	BgJobs       int   // only meaningful when !Running
	PendingFor   string // only meaningful when Running
	Cwd          string
}

// String renders the status block exactly as appended to tool output:
// "status = process exited[; N background jobs running]\ncwd = <path>" or
// "status = still running; running for = <T>\ncwd = <path>".
func (s Status) String() string {
	var b strings.Builder
	if s.Running {
		fmt.Fprintf(&b, "status = still running; running for = %s", s.PendingFor)
	} else {
		b.WriteString("status = process exited")
		if s.BgJobs > 0 {
			fmt.Fprintf(&b, "; %d background jobs running", s.BgJobs)
		}
	}
	fmt.Fprintf(&b, "\ncwd = %s", s.Cwd)
	return b.String()
}

// GetStatus builds the status block for inst, re-fetching cwd via `pwd`
// when at prompt (cheap, and the only way to learn of a `cd`) and reusing
// the last known cwd while still running — mirrors get_status() in the
// source material this ports from. Returns ErrShellMalformedOutput, never
// wrapped, when `jobs | wc -l` never parsed as an integer — the caller is
// expected to reset the shell and report "(exit shell has restarted)"
// rather than surface the raw parse failure.
func GetStatus(ctx context.Context, inst *Instance, wb WaitBudget) (Status, error) {
	if inst.State() == StateRunning {
		return Status{Running: true, PendingFor: inst.PendingFor(wb), Cwd: inst.Cwd()}, nil
	}

	cwd, err := inst.UpdateCwd(ctx, wb)
	if err != nil {
		cwd = inst.Cwd()
	}
	bgJobs, err := inst.EnsureEnvAndBgJobs(ctx, wb)
	if err != nil {
		return Status{Running: false, Cwd: cwd}, err
	}
	return Status{Running: false, BgJobs: bgJobs, Cwd: cwd}, nil
}
