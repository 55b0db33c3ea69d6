// Package shellsession drives a real interactive bash process through a
// pseudo-terminal, renders its output as a virtual terminal (internal/vt),
// and classifies it as "at prompt" or "still running".
package shellsession

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	wcvt "github.com/wcgw-run/wcgw-go/internal/vt"
)

// promptBase is the literal installed as PS1 to detect shell readiness
// deterministically: "#" followed by a marker token.
const promptBase = "#@wcgw@#"

// ChunkSize is the write-chunk size used when sending input.
const ChunkSize = 128

// WaitBudget holds the patience-loop timing constants Poll uses while a
// command is still running.
type WaitBudget struct {
	Step        time.Duration // default 5s
	MaxOnOutput time.Duration // default 20s
	Patience    int           // default 3
}

// DefaultWaitBudget returns the default timing constants.
func DefaultWaitBudget() WaitBudget {
	return WaitBudget{Step: 5 * time.Second, MaxOnOutput: 20 * time.Second, Patience: 3}
}

// RunState is the shell instance's state machine.
type RunState int

const (
	// StateAtPrompt — last seen prompt match; no command pending.
	StateAtPrompt RunState = iota
	// StateRunning — a command was dispatched and the prompt has not been
	// observed since.
	StateRunning
)

// SpawnOptions configures a new shell Instance.
type SpawnOptions struct {
	Restricted bool   // bash -r
	InitialDir string
	UseScreen  bool
	Logger     *slog.Logger
}

// Instance is one interactive bash process bound to a single PTY. mu guards
// the run-state fields only; PTY writes and expect calls are not serialized
// by it, so concurrent operations on one Instance are not serialized.
type Instance struct {
	ID         string // timestamp plus 8 uuid chars, e.g. "wcgw.153045.1a2b3c4d"
	prompt     string
	overScreen bool
	restricted bool

	cmd  *exec.Cmd
	ptmx *os.File

	mu           sync.Mutex
	state        RunState
	runningSince time.Time
	pendingOutput string // last rendered pending-output snapshot
	cwd          string

	screen *wcvt.Screen
	raw    bytes.Buffer // cumulative raw bytes since last full reset

	reader  *ptyReader
	log     *slog.Logger
}

// Spawn starts a new bash shell bound to a fresh PTY. It issues, in order,
// the PS1/PROMPT_COMMAND export, `stty -icanon -echo`, `set +o pipefail`,
// and GIT_PAGER/PAGER exports, waiting for the prompt after each. If
// the initial spawn fails it retries once with --noprofile --norc. If
// UseScreen is set, it additionally wraps the shell in a named `screen`
// session, falling back transparently to no-screen on failure.
func Spawn(ctx context.Context, opts SpawnOptions, wb WaitBudget) (*Instance, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.InitialDir != "" {
		if err := os.MkdirAll(opts.InitialDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure working dir: %w", err)
		}
	}

	id := "wcgw." + time.Now().Format("150405") + "." + uuid.NewString()[:8]
	prompt := promptBase

	inst := &Instance{
		ID:         id,
		prompt:     prompt,
		restricted: opts.Restricted,
		cwd:        opts.InitialDir,
		screen:     wcvt.NewScreen(),
		log:        logger,
	}

	if err := inst.start(ctx, opts, wb, true); err != nil {
		logger.Warn("shell spawn failed, retrying without rc", "err", err)
		if err2 := inst.start(ctx, opts, wb, false); err2 != nil {
			return nil, fmt.Errorf("start pty (fallback also failed %v): %w", err2, err)
		}
	}

	if opts.UseScreen {
		if err := inst.enterScreen(ctx, wb); err != nil {
			logger.Warn("screen unavailable, continuing without it", "err", err)
			inst.overScreen = false
		}
	}

	if err := inst.runInit(ctx, wb); err != nil {
		inst.Close()
		return nil, err
	}

	if _, err := inst.EnsureEnvAndBgJobs(ctx, wb); err != nil {
		inst.Close()
		return nil, err
	}

	return inst, nil
}

func (s *Instance) start(ctx context.Context, opts SpawnOptions, wb WaitBudget, useRC bool) error {
	shellCmd := "/bin/bash"
	var args []string
	if opts.Restricted {
		args = append(args, "-r")
	}
	if !useRC {
		args = append(args, "--noprofile", "--norc")
	}

	cmd := exec.CommandContext(ctx, shellCmd, args...)
	cmd.Dir = opts.InitialDir
	env := os.Environ()
	env = append(env,
		"PS1="+s.prompt,
		"PROMPT_COMMAND=",
		"TMPDIR="+os.TempDir(),
		"TERM=vt100",
		"PAGER=cat",
		"GIT_PAGER=cat",
	)
	cmd.Env = env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: wcvt.Cols, Rows: wcvt.Rows})
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}

	s.cmd = cmd
	s.ptmx = ptmx
	s.reader = newPTYReader(ptmx)
	go s.reader.run()

	s.state = StateAtPrompt
	return s.expectPrompt(ctx, wb.Step)
}

func (s *Instance) enterScreen(ctx context.Context, wb WaitBudget) error {
	if err := s.sendLineNoLock("trap 'screen -X -S " + s.ID + " quit' EXIT"); err != nil {
		return err
	}
	if err := s.expectPrompt(ctx, wb.Step); err != nil {
		return err
	}
	if err := s.sendLineNoLock("screen -q -s /bin/bash -S " + s.ID); err != nil {
		return err
	}
	if err := s.expectPrompt(ctx, wb.Step); err != nil {
		return ErrScreenUnavailable
	}
	s.overScreen = true
	return nil
}

func (s *Instance) runInit(ctx context.Context, wb WaitBudget) error {
	for _, c := range []string{
		"export PROMPT_COMMAND= PS1=" + s.prompt,
		"stty -icanon -echo",
		"set +o pipefail",
		"export GIT_PAGER=cat PAGER=cat",
	} {
		if err := s.sendLineNoLock(c); err != nil {
			return err
		}
		if err := s.expectPrompt(ctx, wb.Step); err != nil {
			return err
		}
	}
	return nil
}

// Close terminates the underlying process and releases the PTY and screen
// emulator.
func (s *Instance) Close() error {
	if s.reader != nil {
		s.reader.stop()
	}
	if s.ptmx != nil {
		s.ptmx.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	if s.screen != nil {
		s.screen.Close()
	}
	return nil
}

// State returns the current run state.
func (s *Instance) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingFor renders "N seconds" the way get_pending_for() does, for the
// status suffix.
func (s *Instance) PendingFor(wb WaitBudget) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return "Not pending"
	}
	d := time.Since(s.runningSince) + wb.Step
	return strconv.Itoa(int(d.Seconds())) + " seconds"
}

// Cwd returns the last known working directory.
func (s *Instance) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// sendLineNoLock writes a command plus the shell's line separator, chunked
// at ChunkSize bytes, without validating for embedded newlines (used only
// for internal init commands which are known-safe).
func (s *Instance) sendLineNoLock(cmd string) error {
	return s.sendChunks(cmd + "\n")
}

func (s *Instance) sendChunks(text string) error {
	for i := 0; i < len(text); i += ChunkSize {
		end := i + ChunkSize
		if end > len(text) {
			end = len(text)
		}
		if _, err := s.ptmx.Write([]byte(text[i:end])); err != nil {
			return fmt.Errorf("write pty: %w", err)
		}
	}
	return nil
}

// SendCommand sends a foreground command line. Rejects embedded newlines.
func (s *Instance) SendCommand(command string) error {
	if strings.Contains(command, "\n") {
		return ErrCommandNewline
	}
	s.mu.Lock()
	s.state = StateRunning
	s.runningSince = time.Now()
	s.mu.Unlock()
	return s.sendChunks(command + "\n")
}

// SendText sends raw text followed by Enter (CommandInteractionText).
func (s *Instance) SendText(text string) error {
	s.mu.Lock()
	s.state = StateRunning
	s.runningSince = time.Now()
	s.mu.Unlock()
	return s.sendChunks(text + "\n")
}

// SendSpecials sends the named special key sequences.
// Ctrl-d is treated identically to Ctrl-c, an explicit design decision.
func (s *Instance) SendSpecials(keys []string) (isInterrupt bool, err error) {
	s.mu.Lock()
	s.state = StateRunning
	s.runningSince = time.Now()
	s.mu.Unlock()
	for _, k := range keys {
		switch k {
		case "Key-up":
			err = s.writeRaw("\x1b[A")
		case "Key-down":
			err = s.writeRaw("\x1b[B")
		case "Key-left":
			err = s.writeRaw("\x1b[D")
		case "Key-right":
			err = s.writeRaw("\x1b[C")
		case "Enter":
			err = s.writeRaw("\n")
		case "Ctrl-c":
			err = s.sendIntr()
			isInterrupt = true
		case "Ctrl-d":
			err = s.sendIntr()
			isInterrupt = true
		case "Ctrl-z":
			err = s.writeRaw("\x1a")
		default:
			err = fmt.Errorf("unknown special character: %s", k)
		}
		if err != nil {
			return isInterrupt, err
		}
	}
	return isInterrupt, nil
}

// SendASCII sends raw ASCII byte codes. Byte 3 (ETX) is
// treated as an interrupt.
func (s *Instance) SendASCII(codes []int) (isInterrupt bool, err error) {
	s.mu.Lock()
	s.state = StateRunning
	s.runningSince = time.Now()
	s.mu.Unlock()
	for _, c := range codes {
		if c == 3 {
			if err := s.sendIntr(); err != nil {
				return true, err
			}
			isInterrupt = true
			continue
		}
		if err := s.writeRaw(string(rune(c))); err != nil {
			return isInterrupt, err
		}
	}
	return isInterrupt, nil
}

func (s *Instance) writeRaw(text string) error {
	_, err := s.ptmx.Write([]byte(text))
	return err
}

// Interrupt sends Ctrl-C (ETX) and waits for the prompt.
func (s *Instance) Interrupt(ctx context.Context, wb WaitBudget) error {
	if err := s.sendIntr(); err != nil {
		return err
	}
	return s.expectPrompt(ctx, wb.Step)
}

func (s *Instance) sendIntr() error {
	_, err := s.ptmx.Write([]byte{0x03})
	return err
}

// expectPrompt blocks until the prompt sentinel appears in the raw stream
// or the deadline elapses; it returns nil on a match and an error on a
// timeout or a cancelled ctx. The bytes seen are discarded.
func (s *Instance) expectPrompt(ctx context.Context, timeout time.Duration) error {
	_, matched, err := s.expect(ctx, timeout)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("timed out waiting for prompt")
	}
	return nil
}

// expect waits for the prompt within timeout, returning the raw bytes read
// since the last prompt match (the "before" text, matching pexpect's
// .before; an unmatched wait consumes nothing) and
// whether the prompt matched (vs. timing out).
func (s *Instance) expect(ctx context.Context, timeout time.Duration) (before []byte, matched bool, err error) {
	deadline := time.Now().Add(timeout)
	for {
		before, matched = s.reader.snapshotSincePrompt(s.prompt)
		if matched {
			s.reader.consumeUpToPrompt(s.prompt)
			return before, true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return before, false, nil
		}
		select {
		case <-ctx.Done():
			return before, false, ctx.Err()
		case <-s.reader.notify():
		case <-time.After(remaining):
		}
	}
}

// SetPending stashes the current pending-output snapshot.
func (s *Instance) SetPending(rendered string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		s.state = StateRunning
		s.runningSince = time.Now()
	}
	s.pendingOutput = rendered
}

// SetAtPrompt clears pending state.
func (s *Instance) SetAtPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAtPrompt
	s.pendingOutput = ""
}

// PendingOutput returns the last stashed pending-output snapshot.
func (s *Instance) PendingOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingOutput
}

// UpdateCwd runs `pwd` and stores the result.
func (s *Instance) UpdateCwd(ctx context.Context, wb WaitBudget) (string, error) {
	if err := s.sendLineNoLock("pwd"); err != nil {
		return "", err
	}
	before, _, err := s.expect(ctx, wb.Step)
	if err != nil {
		return "", err
	}
	lines := wcvt.Render(before)
	dir := strings.TrimSpace(wcvt.JoinRstrip(lines))
	s.mu.Lock()
	s.cwd = dir
	s.mu.Unlock()
	return dir, nil
}

// EnsureEnvAndBgJobs re-issues the init commands then parses `jobs | wc -l`,
// returning the number of background jobs.
func (s *Instance) EnsureEnvAndBgJobs(ctx context.Context, wb WaitBudget) (int, error) {
	quick := 200 * time.Millisecond
	if s.overScreen {
		quick = time.Second
	}
	for _, c := range []string{
		"export PROMPT_COMMAND= PS1=" + s.prompt,
		"stty -icanon -echo",
		"set +o pipefail",
		"export GIT_PAGER=cat PAGER=cat",
	} {
		if err := s.sendLineNoLock(c); err != nil {
			return 0, err
		}
		if err := s.expectPrompt(ctx, quick); err != nil {
			return 0, err
		}
	}

	if err := s.sendLineNoLock("jobs | wc -l"); err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 100; attempt++ {
		before, matched, err := s.expect(ctx, quick)
		if err != nil {
			return 0, err
		}
		if !matched {
			continue
		}
		lines := wcvt.Render(before)
		text := strings.TrimSpace(wcvt.JoinRstrip(lines))
		if n, err := strconv.Atoi(text); err == nil {
			return n, nil
		}
	}
	return 0, ErrShellMalformedOutput
}

// Reset closes and respawns the shell in place; the respawned shell gets
// a new id.
func (s *Instance) Reset(ctx context.Context, opts SpawnOptions, wb WaitBudget) error {
	s.Close()
	fresh, err := Spawn(ctx, opts, wb)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}
