package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cbuild-io/cbuild/internal/errs"
)

// LoadProject reads and validates the project configuration at dir.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, ProjectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: readReason(err)}
	}
	var p Project
	if err := decodeStrict(data, &p); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: err.Error()}
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: err.Error()}
	}
	return &p, nil
}

// LoadWorkspace reads and validates the workspace configuration at dir.
func LoadWorkspace(dir string) (*Workspace, error) {
	path := filepath.Join(dir, WorkspaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: readReason(err)}
	}
	var doc WorkspaceDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: err.Error()}
	}
	if err := doc.Workspace.Validate(); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: err.Error()}
	}
	return &doc.Workspace, nil
}

// IsWorkspace reports whether dir holds a workspace configuration.
func IsWorkspace(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, WorkspaceFile))
	return err == nil
}

// SaveWorkspace writes the workspace configuration back to dir.
func SaveWorkspace(w *Workspace, dir string) error {
	data, err := yaml.Marshal(&WorkspaceDoc{Workspace: *w})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, WorkspaceFile), data, 0o644)
}

// SaveProject writes the project configuration to dir.
func SaveProject(p *Project, dir string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ProjectFile), data, 0o644)
}

// ProjectDir locates the source root of a named project under the
// workspace root: either <root>/<name> or <root>/projects/<name>.
func ProjectDir(root, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	direct := filepath.Join(root, name)
	if _, err := os.Stat(filepath.Join(direct, ProjectFile)); err == nil {
		return direct
	}
	nested := filepath.Join(root, "projects", name)
	if _, err := os.Stat(filepath.Join(nested, ProjectFile)); err == nil {
		return nested
	}
	// Single-project mode: the root itself is the project.
	if _, err := os.Stat(filepath.Join(root, ProjectFile)); err == nil {
		return root
	}
	return direct
}

// readReason flattens a file read error to its cause, dropping the
// path already carried by ConfigError.
func readReason(err error) string {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err.Error()
	}
	return err.Error()
}

// decodeStrict decodes YAML rejecting unknown keys.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// normalize fills in defaults so downstream code never sees empty
// build settings.
func (p *Project) normalize() {
	if p.Build.BuildDir == "" {
		p.Build.BuildDir = DefaultBuildDir
	}
	if p.Build.DefaultConfig == "" {
		p.Build.DefaultConfig = DefaultConfig
	}
	if p.Output.BinDir == "" {
		p.Output.BinDir = DefaultBinDir
	}
	if p.Output.LibDir == "" {
		p.Output.LibDir = DefaultLibDir
	}
	if p.Dependencies.Vendored != nil && p.Dependencies.Vendored.Manager == "" {
		p.Dependencies.Vendored.Manager = "vcpkg"
	}
}

// Validate checks the project invariants.
func (p *Project) Validate() error {
	if p.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	switch p.Project.Kind {
	case KindExecutable, KindStaticLibrary, KindSharedLibrary, KindInterface:
	case "":
		return fmt.Errorf("project.kind is required")
	default:
		return fmt.Errorf("unknown project.kind %q", p.Project.Kind)
	}
	if p.Build.DefaultConfig != "" && !knownConfig(p.Build.DefaultConfig) {
		return fmt.Errorf("unknown build.default_config %q", p.Build.DefaultConfig)
	}
	for name, dep := range p.Dependencies.Workspace {
		if dep.Name == "" {
			return fmt.Errorf("dependencies.workspace[%d]: name is required", name)
		}
	}
	for i, dep := range p.Dependencies.Git {
		if dep.Name == "" || dep.URL == "" {
			return fmt.Errorf("dependencies.git[%d]: name and url are required", i)
		}
	}
	if p.PCH != nil && p.PCH.Header == "" {
		return fmt.Errorf("pch.header is required when pch is set")
	}
	return nil
}

// Validate checks the workspace invariants: every startup project must
// be a workspace member.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workspace.name is required")
	}
	seen := make(map[string]bool, len(w.Projects))
	for _, p := range w.Projects {
		if seen[p] {
			return fmt.Errorf("duplicate project %q", p)
		}
		seen[p] = true
	}
	for _, s := range w.StartupProjects {
		if !seen[s] {
			return fmt.Errorf("startup project %q is not in the projects list", s)
		}
	}
	if w.DefaultStartup != "" && !seen[w.DefaultStartup] {
		return fmt.Errorf("default startup project %q is not in the projects list", w.DefaultStartup)
	}
	return nil
}

func knownConfig(name string) bool {
	for _, c := range KnownConfigs {
		if c == name {
			return true
		}
	}
	return false
}
