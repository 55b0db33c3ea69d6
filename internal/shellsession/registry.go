package shellsession

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry is the process-wide shell-state registry:
// the foreground shell per thread, all background shells, and the last
// known working directory. Mode/whitelist state lives alongside it
// (internal/dispatch, internal/fileops) but is not itself part of this
// type — the registry only owns shell lifetimes.
//
// The registry supports concurrent reads and serializes writes (map
// mutation); it does not serialize operations against a single Instance
// beyond what Instance itself does internally.
type Registry struct {
	opts SpawnOptions
	wb   WaitBudget
	log  *slog.Logger

	mu         sync.RWMutex
	foreground map[string]*Instance // thread_id -> instance
	background map[string]*Instance // bg_id -> instance
	workingDir string
}

// NewRegistry creates an empty registry. opts/wb are used as defaults when
// lazily spawning shells.
func NewRegistry(opts SpawnOptions, wb WaitBudget) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		opts:       opts,
		wb:         wb,
		log:        logger,
		foreground: make(map[string]*Instance),
		background: make(map[string]*Instance),
	}
}

// Foreground returns the foreground shell bound to threadID, spawning one
// on first use.
func (r *Registry) Foreground(ctx context.Context, threadID string) (*Instance, error) {
	r.mu.RLock()
	inst, ok := r.foreground[threadID]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.foreground[threadID]; ok {
		return inst, nil
	}
	inst, err := Spawn(ctx, r.opts, r.wb)
	if err != nil {
		return nil, fmt.Errorf("spawn foreground shell for thread %s: %w", threadID, err)
	}
	r.foreground[threadID] = inst
	r.workingDir = inst.Cwd()
	return inst, nil
}

// ResetForeground closes and respawns the foreground shell for threadID in
// place (Initialize.type=reset_shell).
func (r *Registry) ResetForeground(ctx context.Context, threadID string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.foreground[threadID]
	if !ok {
		inst, err := Spawn(ctx, r.opts, r.wb)
		if err != nil {
			return nil, err
		}
		r.foreground[threadID] = inst
		return inst, nil
	}
	if err := inst.Reset(ctx, r.opts, r.wb); err != nil {
		return nil, err
	}
	return inst, nil
}

// ResetInstance resets target in place: if bgID is empty, target is
// treated as the foreground shell for threadID and reset via
// ResetForeground; otherwise target is reset directly (background shells
// are addressed by pointer, not by re-resolving the map). Used on
// ErrShellMalformedOutput, per the automatic-shell-reset error policy.
func (r *Registry) ResetInstance(ctx context.Context, target *Instance, threadID, bgID string) error {
	if bgID == "" {
		_, err := r.ResetForeground(ctx, threadID)
		return err
	}
	return target.Reset(ctx, r.opts, r.wb)
}

// SpawnBackground starts a new background shell, runs cmd in it, and
// returns a short random bg_command_id the caller addresses it by.
func (r *Registry) SpawnBackground(ctx context.Context, cmd string) (bgID string, inst *Instance, err error) {
	inst, err = Spawn(ctx, r.opts, r.wb)
	if err != nil {
		return "", nil, fmt.Errorf("spawn background shell: %w", err)
	}
	if err := inst.SendCommand(cmd); err != nil {
		inst.Close()
		return "", nil, err
	}

	bgID = randomToken()

	r.mu.Lock()
	r.background[bgID] = inst
	r.mu.Unlock()
	return bgID, inst, nil
}

// Background looks up a background shell by id.
func (r *Registry) Background(bgID string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.background[bgID]
	return inst, ok
}

// DisposeBackground closes and forgets a background shell. Safe to call
// with an unknown id (no-op).
func (r *Registry) DisposeBackground(bgID string) {
	r.mu.Lock()
	inst, ok := r.background[bgID]
	delete(r.background, bgID)
	r.mu.Unlock()
	if ok {
		if err := inst.Close(); err != nil {
			r.log.Warn("closing background shell", "bg_id", bgID, "err", err)
		}
	}
}

// BackgroundCount reports the number of live background shells.
func (r *Registry) BackgroundCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.background)
}

// WorkingDir returns the last known cwd of the foreground shell.
func (r *Registry) WorkingDir() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workingDir
}

// SetWorkingDir records the foreground shell's last known cwd.
func (r *Registry) SetWorkingDir(dir string) {
	r.mu.Lock()
	r.workingDir = dir
	r.mu.Unlock()
}

// Close tears the registry down: all background shells, then all
// foreground shells, then a best-effort `screen -ls` sweep for any
// sessions still carrying one of those shells' ids.
func (r *Registry) Close() {
	r.mu.Lock()
	bg := r.background
	fg := r.foreground
	r.background = make(map[string]*Instance)
	r.foreground = make(map[string]*Instance)
	r.mu.Unlock()

	var ids []string
	for _, inst := range bg {
		ids = append(ids, inst.ID)
		if err := inst.Close(); err != nil {
			r.log.Warn("closing background shell during registry teardown", "err", err)
		}
	}
	for _, inst := range fg {
		ids = append(ids, inst.ID)
		if err := inst.Close(); err != nil {
			r.log.Warn("closing foreground shell during registry teardown", "err", err)
		}
	}
	cleanupScreenSessions(ids, r.log)
}

// cleanupScreenSessions runs `screen -ls`, which exits nonzero whenever
// any sessions are listed — its output is still meaningful, so the error
// is ignored — and quits every session whose name ends in one of the
// given shell ids.
func cleanupScreenSessions(ids []string, log *slog.Logger) {
	if len(ids) == 0 {
		return
	}
	out, _ := exec.Command("screen", "-ls").CombinedOutput()
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0] // "<pid>.<session-name>"
		for _, id := range ids {
			if strings.HasSuffix(name, "."+id) {
				if err := exec.Command("screen", "-X", "-S", name, "quit").Run(); err != nil {
					log.Debug("screen session quit failed", "name", name, "err", err)
				}
				break
			}
		}
	}
}

// randomToken returns a short bg_command_id: the first 8 hex chars of a
// uuid, with the dashes stripped.
func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
