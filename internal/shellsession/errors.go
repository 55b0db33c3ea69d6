package shellsession

import "errors"

// Error kinds from, as sentinel values so callers can errors.Is them.
var (
	// ErrCommandNewline — a command contained a newline character.
	ErrCommandNewline = errors.New("command should not contain a newline character; run only one command at a time")
	// ErrPreviousStillRunning — a foreground command was dispatched while
	// the prior command has not returned to prompt.
	ErrPreviousStillRunning = errors.New("a previous command is still running")
	// ErrBgIDNotFound — an unknown bg_command_id was addressed.
	ErrBgIDNotFound = errors.New("no background shell with that id")
	// ErrShellMalformedOutput — ensure_env_and_bg_jobs couldn't parse an
	// integer from `jobs | wc -l` after 100 render attempts.
	ErrShellMalformedOutput = errors.New("shell output malformed; could not determine background job count")
	// ErrScreenUnavailable — use_screen was requested but `screen` isn't
	// installed.
	ErrScreenUnavailable = errors.New("screen command not available")
)
