// Package expand composes a project's base configuration with
// variant, platform, CLI and cross-compile overlays into one
// effective configuration, and owns the universal flag vocabulary.
package expand

import (
	"fmt"
	"path/filepath"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/cross"
	"github.com/cbuild-io/cbuild/internal/toolchain"
)

// Request selects the overlays to compose for one invocation.
type Request struct {
	Config      string // CLI build-type override, empty for project default
	Variant     string
	CrossTarget string // CLI cross-compile profile name
	Host        toolchain.Host
	Warn        func(string) // nil to suppress warnings
}

// Effective is the overlay-composed, token-expanded configuration a
// single project builds with.
type Effective struct {
	Name string
	Kind string
	Dir  string // project source root, absolute
	Host toolchain.Host

	Config        string // effective build type
	Compiler      string
	SlashStyle    bool
	GeneratorHint string

	BuildDir string // relative to Dir; cross targets get a suffix
	BinDir   string // token-expanded
	LibDir   string // token-expanded

	Defines   []string // injected as -D<name>=1
	Flags     []string // native compiler flags after token mapping
	LinkFlags []string
	Options   []string // raw generator options, composition order

	Env   map[string]string // child process environment overlay
	Cross *cross.Profile    // nil when not cross compiling

	Targets map[string]config.Target
	PCH     *config.PCH
	Hooks   *config.Hooks
	Scripts map[string]string

	Source *config.Project
}

// Compose builds the effective configuration for proj located at dir.
// Composition order: base build-type settings, then variant, then the
// host platform overlay, then the cross profile. Scalar fields take
// the last overlay's value; list fields concatenate with
// first-occurrence de-duplication.
func Compose(proj *config.Project, dir string, req Request) (*Effective, error) {
	warn := req.Warn
	if warn == nil {
		warn = func(string) {}
	}

	buildType := proj.Build.DefaultConfig
	if req.Config != "" {
		buildType = req.Config
	}

	compiler := proj.Build.Compiler
	var platformDefines, platformFlags []string
	if overlay, ok := proj.Platforms[req.Host.OS]; ok {
		if overlay.Compiler != "" {
			compiler = overlay.Compiler
		}
		platformDefines = overlay.Defines
		platformFlags = overlay.Flags
	}
	if compiler == "" {
		compiler = toolchain.DefaultCompiler(req.Host)
	}
	slash := toolchain.SlashStyle(compiler)

	eff := &Effective{
		Name:          proj.Project.Name,
		Kind:          proj.Project.Kind,
		Dir:           dir,
		Host:          req.Host,
		Config:        buildType,
		Compiler:      compiler,
		SlashStyle:    slash,
		GeneratorHint: proj.Build.Generator,
		BuildDir:      proj.Build.BuildDir,
		Env:           map[string]string{},
		Targets:       proj.Targets,
		PCH:           proj.PCH,
		Hooks:         proj.Hooks,
		Scripts:       proj.Scripts,
		Source:        proj,
	}

	// Base: per-build-type settings.
	if cs, ok := proj.Build.Configs[buildType]; ok {
		eff.Defines = append(eff.Defines, cs.Defines...)
		eff.Flags = append(eff.Flags, FlagArgs(cs.Flags, slash, warn)...)
		eff.LinkFlags = append(eff.LinkFlags, cs.LinkFlags...)
		eff.Options = append(eff.Options, cs.Options...)
	}
	eff.Options = append(eff.Options, proj.Build.Options...)

	// Variant overlay.
	if req.Variant != "" {
		variant, ok := proj.Variants[req.Variant]
		if !ok {
			return nil, fmt.Errorf("project %s has no variant %q", proj.Project.Name, req.Variant)
		}
		eff.Defines = append(eff.Defines, variant.Defines...)
		eff.Flags = append(eff.Flags, FlagArgs(variant.Flags, slash, warn)...)
		eff.Options = append(eff.Options, variant.Options...)
	}

	// Platform overlay. Its flags are native, not universal tokens.
	eff.Defines = append(eff.Defines, platformDefines...)
	eff.Flags = append(eff.Flags, platformFlags...)

	// Cross-compile profile.
	profile, err := selectCross(proj, req.CrossTarget)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		eff.Cross = profile
		eff.BuildDir = eff.BuildDir + "-" + profile.Target
		eff.Options = append(eff.Options, cross.Setup(*profile)...)
		for k, v := range cross.Env(*profile) {
			eff.Env[k] = v
		}
	}

	eff.Defines = dedupe(eff.Defines)
	eff.Flags = dedupe(eff.Flags)
	eff.LinkFlags = dedupe(eff.LinkFlags)
	eff.Options = dedupe(eff.Options)

	eff.BinDir = ExpandTokens(proj.Output.BinDir, buildType, req.Host)
	eff.LibDir = ExpandTokens(proj.Output.LibDir, buildType, req.Host)
	return eff, nil
}

// selectCross resolves the cross profile: an explicit CLI target wins
// (built-in table first, then a matching project profile); otherwise
// an enabled project profile applies.
func selectCross(proj *config.Project, target string) (*cross.Profile, error) {
	if target != "" {
		if p, ok := cross.Builtin(target); ok {
			return &p, nil
		}
		if cc := proj.CrossCompile; cc != nil && cc.Enabled && cc.Target == target {
			p := cross.FromConfig(cc)
			return &p, nil
		}
		return nil, fmt.Errorf("unknown cross-compile target %q (built-ins: %v)", target, cross.Names())
	}
	if cc := proj.CrossCompile; cc != nil && cc.Enabled {
		p := cross.FromConfig(cc)
		return &p, nil
	}
	return nil, nil
}

// BuildPath returns the absolute build directory.
func (e *Effective) BuildPath() string {
	return filepath.Join(e.Dir, e.BuildDir)
}

// BinPath returns the absolute expanded binary output directory.
func (e *Effective) BinPath() string {
	if filepath.IsAbs(e.BinDir) {
		return e.BinDir
	}
	return filepath.Join(e.Dir, e.BinDir)
}

// LibPath returns the absolute expanded library output directory.
func (e *Effective) LibPath() string {
	if filepath.IsAbs(e.LibDir) {
		return e.LibDir
	}
	return filepath.Join(e.Dir, e.LibDir)
}

// IncludePath returns the conventional public include root.
func (e *Effective) IncludePath() string {
	return filepath.Join(e.Dir, "include")
}

// HookSet returns the project's hooks, never nil.
func (e *Effective) HookSet() *config.Hooks {
	if e.Hooks == nil {
		return &config.Hooks{}
	}
	return e.Hooks
}

// Shared reports whether the project produces a shared library.
func (e *Effective) Shared() bool { return e.Kind == config.KindSharedLibrary }
