// Package config holds wcgw's on-disk workspace configuration: which mode
// a workspace starts in and, for code_writer, which commands/globs it is
// restricted to.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wcgw-run/wcgw-go/internal/contract"
)

// ModesConfig is the `mode:` key in a workspace's .wcgw/config.yaml. It accepts
// either a bare mode name ("wcgw", "architect", "code_writer") or, for
// code_writer, an object carrying the allowed commands/globs.
type ModesConfig struct {
	Name             contract.Mode
	CodeWriterConfig *contract.CodeWriterConfig
}

type codeWriterYAML struct {
	Name              contract.Mode `yaml:"name"`
	AllowedCommands   []string      `yaml:"allowed_commands,omitempty"`
	AllowedGlobsEdit  []string      `yaml:"allowed_globs_edit,omitempty"`
	AllowedGlobsWrite []string      `yaml:"allowed_globs_write,omitempty"`
}

// UnmarshalYAML decodes "mode: wcgw" as a bare Name, and
//
//	mode:
//	  name: code_writer
//	  allowed_commands: [go test, go build]
//	  allowed_globs_edit: ["**/*.go"]
//
// as a Name plus CodeWriterConfig.
func (m *ModesConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		m.Name = contract.Mode(value.Value)
		m.CodeWriterConfig = nil
		return nil
	}
	var cw codeWriterYAML
	if err := value.Decode(&cw); err != nil {
		return err
	}
	m.Name = cw.Name
	m.CodeWriterConfig = &contract.CodeWriterConfig{
		AllowedCommands:   cw.AllowedCommands,
		AllowedGlobsEdit:  cw.AllowedGlobsEdit,
		AllowedGlobsWrite: cw.AllowedGlobsWrite,
	}
	return nil
}

// MarshalYAML renders back to the matching scalar or object form.
func (m ModesConfig) MarshalYAML() (any, error) {
	if m.CodeWriterConfig == nil {
		return string(m.Name), nil
	}
	return codeWriterYAML{
		Name:              m.Name,
		AllowedCommands:   m.CodeWriterConfig.AllowedCommands,
		AllowedGlobsEdit:  m.CodeWriterConfig.AllowedGlobsEdit,
		AllowedGlobsWrite: m.CodeWriterConfig.AllowedGlobsWrite,
	}, nil
}

// WorkspaceConfig is the full .wcgw/config.yaml for a workspace.
type WorkspaceConfig struct {
	Mode ModesConfig `yaml:"mode"`
}

// DefaultWorkspaceConfig is used when no .wcgw/config.yaml exists: permissive mode.
func DefaultWorkspaceConfig() *WorkspaceConfig {
	return &WorkspaceConfig{Mode: ModesConfig{Name: contract.ModeWCGW}}
}

// LoadWorkspaceConfig reads .wcgw/config.yaml under dir. A missing file is
// not an error — it yields DefaultWorkspaceConfig.
func LoadWorkspaceConfig(dir string) (*WorkspaceConfig, error) {
	path := filepath.Join(dir, ".wcgw", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWorkspaceConfig(), nil
		}
		return nil, err
	}
	cfg := DefaultWorkspaceConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveWorkspaceConfig writes .wcgw/config.yaml under dir.
func SaveWorkspaceConfig(dir string, cfg *WorkspaceConfig) error {
	wcgwDir := filepath.Join(dir, ".wcgw")
	if err := os.MkdirAll(wcgwDir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(wcgwDir, "config.yaml"), data, 0644)
}
