package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/wcgw-run/wcgw-go/internal/config"
	"github.com/wcgw-run/wcgw-go/internal/contract"
	"github.com/wcgw-run/wcgw-go/internal/fileops"
	"github.com/wcgw-run/wcgw-go/internal/repocontext"
	"github.com/wcgw-run/wcgw-go/internal/shellsession"
	"github.com/wcgw-run/wcgw-go/internal/sysinfo"
	"github.com/wcgw-run/wcgw-go/internal/taskmem"
)

// Dispatcher is the single typed entrypoint: it enforces
// "Initialize must be called first", resolves thread_id to a shell
// instance, applies mode policy, and routes to the shell, file-ops, and
// task-memory layers.
type Dispatcher struct {
	Registry *shellsession.Registry
	Files    *fileops.Service
	Stats    *taskmem.StatsStore
	Log      *slog.Logger

	wb shellsession.WaitBudget

	mu          sync.Mutex
	initialized bool
	policy      Policy
	workspace   string
}

// New creates a Dispatcher with the permissive wcgw policy until
// Initialize is called.
func New(registry *shellsession.Registry, files *fileops.Service, wb shellsession.WaitBudget, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{Registry: registry, Files: files, wb: wb, Log: log, policy: WCGWPolicy()}
}

// Invoke routes a single typed tool call and returns its textual output.
// Mode-policy denials, file write/edit failures, a still-running previous
// command and a restarted shell come back as text in output, and a panic
// is recovered into "GOT EXCEPTION while calling tool. Error: ..." text
// with its stack logged. Other failures (Initialize not called yet, an
// unknown bg_command_id, a failed image read, a shell error) are returned
// as err and are not logged here.
func (d *Dispatcher) Invoke(ctx context.Context, call contract.ToolCall) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error("panic handling tool call", "panic", r, "stack", string(debug.Stack()))
			output = fmt.Sprintf("GOT EXCEPTION while calling tool. Error: %v", r)
		}
	}()

	switch c := call.(type) {
	case contract.InitializeCall:
		return d.initialize(ctx, c)
	case contract.BashCommandCall:
		return d.bashCommand(ctx, c)
	case contract.ReadFilesCall:
		return d.readFiles(c)
	case contract.FileWriteOrEditCall:
		return d.fileWriteOrEdit(c)
	case contract.ReadImageCall:
		img, err := d.ReadImage(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("data:image/%s;base64,%s", img.MediaType, img.Base64Data), nil
	case contract.ContextSaveCall:
		return d.contextSave(c)
	default:
		d.mu.Lock()
		initialized := d.initialized
		d.mu.Unlock()
		if !initialized {
			return "", fmt.Errorf("initialize tool not called yet")
		}
		return "", fmt.Errorf("unknown tool: %T", call)
	}
}

func (d *Dispatcher) requireInitialized() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return fmt.Errorf("initialize tool not called yet")
	}
	return nil
}

func (d *Dispatcher) initialize(ctx context.Context, c contract.InitializeCall) (string, error) {
	d.mu.Lock()
	workspace := c.AnyWorkspacePath
	if workspace == "" {
		workspace = d.workspace
	}
	d.workspace = workspace
	d.mu.Unlock()

	switch c.Type {
	case contract.InitUserAskedModeChange, contract.InitResetShell:
		return d.reset(ctx, c, workspace)
	default:
		return d.firstCall(ctx, c, workspace)
	}
}

func (d *Dispatcher) firstCall(ctx context.Context, c contract.InitializeCall, workspace string) (string, error) {
	var b strings.Builder

	if c.TaskIDToResume != "" {
		if root, memText, err := taskmem.Load(c.TaskIDToResume, 0, nil); err == nil {
			b.WriteString("Following is the retrieved task:\n")
			b.WriteString(memText)
			b.WriteString("\n\n")
			if root != "" {
				workspace = root
			}
		} else {
			fmt.Fprintf(&b, "Error: unable to load task with ID %q\n\n", c.TaskIDToResume)
		}
	}

	b.WriteString(repocontext.Format(workspace))
	b.WriteString("\n")
	b.WriteString(sysinfo.Describe(workspace).String())

	if len(c.InitialFilesToRead) > 0 {
		b.WriteString("\n\n")
		b.WriteString(d.Files.ReadFiles(c.InitialFilesToRead, fileops.Budgets{Coding: 1 << 30, NonCoding: 1 << 30}))
	}

	modeName, cwConfig := c.ModeName, c.CodeWriterConfig
	if modeName == "" {
		if wsCfg, err := config.LoadWorkspaceConfig(workspace); err == nil {
			modeName = wsCfg.Mode.Name
			if cwConfig == nil {
				cwConfig = wsCfg.Mode.CodeWriterConfig
			}
		}
	}

	d.mu.Lock()
	d.initialized = true
	d.policy = PolicyFor(modeName, cwConfig)
	d.mu.Unlock()

	if d.Registry != nil {
		if inst, err := d.Registry.Foreground(ctx, c.ThreadID); err == nil {
			d.Registry.SetWorkingDir(inst.Cwd())
		}
	}

	return b.String(), nil
}

func (d *Dispatcher) reset(ctx context.Context, c contract.InitializeCall, workspace string) (string, error) {
	d.mu.Lock()
	newPolicy := d.policy
	if IsModeChange(d.policy, c.ModeName) {
		newPolicy = PolicyFor(c.ModeName, c.CodeWriterConfig)
	}
	d.policy = newPolicy
	d.mu.Unlock()

	if c.Type == contract.InitResetShell && d.Registry != nil {
		if _, err := d.Registry.ResetForeground(ctx, c.ThreadID); err != nil {
			return "", fmt.Errorf("reset shell: %w", err)
		}
	}

	return repocontext.Format(workspace) + "\n" + sysinfo.Describe(workspace).String(), nil
}

func (d *Dispatcher) bashCommand(ctx context.Context, c contract.BashCommandCall) (string, error) {
	if err := d.requireInitialized(); err != nil {
		return "", err
	}
	inst, err := d.Registry.Foreground(ctx, c.ThreadID)
	if err != nil {
		return "", err
	}

	wb := d.wb

	var result shellsession.Result
	var bgID string
	switch action := c.Action.(type) {
	case contract.Command:
		d.mu.Lock()
		allowed := d.policy.BashCommand.allows(action.Command)
		d.mu.Unlock()
		if !allowed {
			return fmt.Sprintf("Error: command not allowed by current mode: %s", action.Command), nil
		}
		if action.IsBackground {
			newBgID, _, err := d.Registry.SpawnBackground(ctx, action.Command)
			if err != nil {
				return "", err
			}
			if d.Stats != nil {
				d.Stats.RecordCommand(d.workspace, c.ThreadID)
			}
			return fmt.Sprintf("bg_command_id=%s\nstatus = still running", newBgID), nil
		}
		result, err = shellsession.Execute(ctx, inst, action.Command, wb)
		if d.Stats != nil {
			d.Stats.RecordCommand(d.workspace, c.ThreadID)
		}
	case contract.StatusCheck:
		bgID = action.BgCommandID
		target, terr := d.resolveInstance(inst, bgID)
		if terr != nil {
			return "", terr
		}
		result, err = shellsession.Poll(ctx, target, wb)
	case contract.SendText:
		bgID = action.BgCommandID
		target, terr := d.resolveInstance(inst, bgID)
		if terr != nil {
			return "", terr
		}
		if err := target.SendText(action.Text); err != nil {
			return "", err
		}
		result, err = shellsession.Poll(ctx, target, wb)
	case contract.SendSpecials:
		bgID = action.BgCommandID
		target, terr := d.resolveInstance(inst, bgID)
		if terr != nil {
			return "", terr
		}
		isInterrupt, serr := target.SendSpecials(action.Keys)
		if serr != nil {
			return "", serr
		}
		if isInterrupt {
			if err = target.Interrupt(ctx, wb); err == nil {
				result.Status, err = shellsession.GetStatus(ctx, target, wb)
			}
		} else {
			result, err = shellsession.Poll(ctx, target, wb)
		}
	case contract.SendASCII:
		bgID = action.BgCommandID
		target, terr := d.resolveInstance(inst, bgID)
		if terr != nil {
			return "", terr
		}
		isInterrupt, serr := target.SendASCII(action.Codes)
		if serr != nil {
			return "", serr
		}
		if isInterrupt {
			if err = target.Interrupt(ctx, wb); err == nil {
				result.Status, err = shellsession.GetStatus(ctx, target, wb)
			}
		} else {
			result, err = shellsession.Poll(ctx, target, wb)
		}
	default:
		return "", fmt.Errorf("unknown BashCommand action: %T", action)
	}

	if errors.Is(err, shellsession.ErrPreviousStillRunning) {
		return "Error: a previous command is still running. Use status_check, SendSpecials([\"Enter\"]), or Ctrl-c to interact with it first.", nil
	}
	if errors.Is(err, shellsession.ErrShellMalformedOutput) {
		target, _ := d.resolveInstance(inst, bgID)
		if rerr := d.Registry.ResetInstance(ctx, target, c.ThreadID, bgID); rerr != nil {
			return "", fmt.Errorf("shell produced malformed output and could not be reset: %w", rerr)
		}
		return "(exit shell has restarted)", nil
	}
	if err != nil {
		return "", err
	}

	d.Registry.SetWorkingDir(result.Status.Cwd)
	return strings.Join(result.Output, "\n") + "\n" + result.Status.String(), nil
}

func (d *Dispatcher) resolveInstance(foreground *shellsession.Instance, bgID string) (*shellsession.Instance, error) {
	if bgID == "" {
		return foreground, nil
	}
	inst, ok := d.Registry.Background(bgID)
	if !ok {
		return nil, shellsession.ErrBgIDNotFound
	}
	return inst, nil
}

func (d *Dispatcher) readFiles(c contract.ReadFilesCall) (string, error) {
	if err := d.requireInitialized(); err != nil {
		return "", err
	}
	return d.Files.ReadFiles(c.FilePaths, fileops.Budgets{Coding: 1 << 20, NonCoding: 1 << 18}), nil
}

func (d *Dispatcher) fileWriteOrEdit(c contract.FileWriteOrEditCall) (string, error) {
	if err := d.requireInitialized(); err != nil {
		return "", err
	}

	d.mu.Lock()
	policy := d.policy
	d.mu.Unlock()

	if c.PercentageToChange > 50 {
		if !policy.WriteEmpty.allows(c.FilePath) {
			return fmt.Sprintf("Error: updating file %s not allowed in current mode. Doesn't match allowed globs.", c.FilePath), nil
		}
		out, err := d.Files.WriteIfEmpty(c.FilePath, c.TextOrSearchReplaceBlocks)
		if err != nil {
			return err.Error(), nil
		}
		if d.Stats != nil {
			d.Stats.RecordWrite(d.workspace)
		}
		return out, nil
	}

	if !policy.FileEdit.allows(c.FilePath) {
		return fmt.Sprintf("Error: updating file %s not allowed in current mode. Doesn't match allowed globs.", c.FilePath), nil
	}
	out, err := d.Files.Edit(c.FilePath, c.TextOrSearchReplaceBlocks)
	if err != nil {
		return err.Error(), nil
	}
	if d.Stats != nil {
		d.Stats.RecordEdit(d.workspace)
	}
	return out, nil
}

// ReadImage loads a file and base64-encodes it for the caller, the typed
// counterpart to read_image_from_shell: wire adapters that can carry a
// binary payload (rather than Invoke's text-only return) should call this
// directly instead of parsing the data-URI string Invoke produces.
func (d *Dispatcher) ReadImage(c contract.ReadImageCall) (contract.ImagePayload, error) {
	if err := d.requireInitialized(); err != nil {
		return contract.ImagePayload{}, err
	}

	data, err := os.ReadFile(c.FilePath)
	if err != nil {
		return contract.ImagePayload{}, err
	}

	mediaType := strings.TrimPrefix(mime.TypeByExtension(filepath.Ext(c.FilePath)), "image/")
	if mediaType == "" {
		mediaType = "png"
	}
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}

	return contract.ImagePayload{
		MediaType:  mediaType,
		Base64Data: base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (d *Dispatcher) contextSave(c contract.ContextSaveCall) (string, error) {
	if err := d.requireInitialized(); err != nil {
		return "", err
	}

	var resolved []string
	for _, g := range c.FilePatterns {
		matches, _ := filepath.Glob(g)
		resolved = append(resolved, matches...)
	}

	relevant := d.Files.ReadFiles(resolved, fileops.Budgets{Coding: 1 << 30, NonCoding: 1 << 30})

	path, err := taskmem.Save(taskmem.ContextSave{
		TaskID:          c.TaskID,
		Description:     c.Description,
		ProjectRootPath: c.ProjectPath,
		RelevantGlobs:   c.FilePatterns,
	}, relevant, "")
	if err != nil {
		return "", err
	}

	if len(c.FilePatterns) > 0 && len(resolved) == 0 {
		return fmt.Sprintf("Error: No files found for the given globs. Context file successfully saved at %q, but please fix the error.", path), nil
	}
	return path, nil
}
