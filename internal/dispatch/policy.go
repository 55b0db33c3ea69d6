// Package dispatch implements the tool dispatcher and mode policy: a
// single typed entrypoint that resolves a thread to a shell instance,
// enforces mode gating, and routes to the shell, file-ops, and
// task-memory layers.
package dispatch

import (
	"path/filepath"

	"github.com/wcgw-run/wcgw-go/internal/contract"
)

// BashCommandMode gates which commands a foreground shell may run.
type BashCommandMode struct {
	Restricted      bool
	AllowedCommands []string // nil = all
}

func (m BashCommandMode) allows(command string) bool {
	if m.AllowedCommands == nil {
		return true
	}
	for _, c := range m.AllowedCommands {
		if c == command {
			return true
		}
	}
	return false
}

// GlobMode gates which paths an edit or write may touch.
type GlobMode struct {
	AllowedGlobs []string // nil = all
}

func (m GlobMode) allows(path string) bool {
	if m.AllowedGlobs == nil {
		return true
	}
	for _, g := range m.AllowedGlobs {
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
	}
	return false
}

// Policy is the full set of sub-policies in effect for the registry.
type Policy struct {
	Mode        contract.Mode
	BashCommand BashCommandMode
	FileEdit    GlobMode
	WriteEmpty  GlobMode
}

// WCGWPolicy is the permissive default: all commands, all edits, all
// writes.
func WCGWPolicy() Policy {
	return Policy{Mode: contract.ModeWCGW}
}

// ArchitectPolicy is read-only: no commands, no edits, no writes.
func ArchitectPolicy() Policy {
	return Policy{
		Mode:        contract.ModeArchitect,
		BashCommand: BashCommandMode{AllowedCommands: []string{}},
		FileEdit:    GlobMode{AllowedGlobs: []string{}},
		WriteEmpty:  GlobMode{AllowedGlobs: []string{}},
	}
}

// CodeWriterPolicy restricts to the caller-supplied command list and
// glob sets. Nil fields mean "all".
func CodeWriterPolicy(cfg contract.CodeWriterConfig) Policy {
	p := Policy{Mode: contract.ModeCodeWriter}
	if cfg.AllowedCommands != nil {
		p.BashCommand = BashCommandMode{AllowedCommands: cfg.AllowedCommands}
	}
	if cfg.AllowedGlobsEdit != nil {
		p.FileEdit = GlobMode{AllowedGlobs: cfg.AllowedGlobsEdit}
	}
	if cfg.AllowedGlobsWrite != nil {
		p.WriteEmpty = GlobMode{AllowedGlobs: cfg.AllowedGlobsWrite}
	}
	return p
}

// PolicyFor resolves an Initialize call's mode selection into a Policy.
func PolicyFor(mode contract.Mode, cfg *contract.CodeWriterConfig) Policy {
	switch mode {
	case contract.ModeArchitect:
		return ArchitectPolicy()
	case contract.ModeCodeWriter:
		if cfg != nil {
			return CodeWriterPolicy(*cfg)
		}
		return CodeWriterPolicy(contract.CodeWriterConfig{})
	default:
		return WCGWPolicy()
	}
}

// IsModeChange reports whether newMode differs from the policy currently
// in effect — used to decide whether Initialize's mode-change path should
// actually swap policies.
func IsModeChange(current Policy, newMode contract.Mode) bool {
	return current.Mode != newMode
}
