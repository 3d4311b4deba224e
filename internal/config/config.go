// Package config holds the typed model of cbuild project and
// workspace configuration documents. The model is immutable after
// load; callers compose overlays into effective configurations
// elsewhere instead of mutating it.
package config

// Configuration file names, looked up at a project or workspace root.
const (
	ProjectFile   = "cbuild.yaml"
	WorkspaceFile = "cbuild-workspace.yaml"
)

// Well-known build configurations of the backing generator.
var KnownConfigs = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// Project kinds.
const (
	KindExecutable    = "executable"
	KindStaticLibrary = "static-library"
	KindSharedLibrary = "shared-library"
	KindInterface     = "interface-library"
)

// Defaults applied by Normalize.
const (
	DefaultBuildDir = "build"
	DefaultConfig   = "Debug"
	DefaultBinDir   = "bin/${CONFIG}"
	DefaultLibDir   = "lib/${CONFIG}"
)

// WorkspaceDoc is the top-level document of a workspace file.
type WorkspaceDoc struct {
	Workspace Workspace `yaml:"workspace"`
}

// Workspace lists the member projects of a multi-project tree.
type Workspace struct {
	Name            string            `yaml:"name"`
	Projects        []string          `yaml:"projects"`
	StartupProjects []string          `yaml:"startup_projects,omitempty"`
	DefaultStartup  string            `yaml:"default_startup,omitempty"`
	Scripts         map[string]string `yaml:"scripts,omitempty"`
}

// Project is the root of a project configuration document.
type Project struct {
	Project      Info                `yaml:"project"`
	Build        Build               `yaml:"build"`
	Output       Output              `yaml:"output,omitempty"`
	Targets      map[string]Target   `yaml:"targets,omitempty"`
	Dependencies Dependencies        `yaml:"dependencies,omitempty"`
	Variants     map[string]Variant  `yaml:"variants,omitempty"`
	Platforms    map[string]Overlay  `yaml:"platforms,omitempty"`
	CrossCompile *CrossCompile       `yaml:"cross_compile,omitempty"`
	PCH          *PCH                `yaml:"pch,omitempty"`
	Hooks        *Hooks              `yaml:"hooks,omitempty"`
	Scripts      map[string]string   `yaml:"scripts,omitempty"`
}

// Info identifies the project.
type Info struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"` // c or c++
	Standard    string `yaml:"standard,omitempty"` // c11, c++17, ...
}

// Build carries generator-facing build settings.
type Build struct {
	Compiler      string                    `yaml:"compiler,omitempty"`
	Generator     string                    `yaml:"generator,omitempty"`
	BuildDir      string                    `yaml:"build_dir,omitempty"`
	DefaultConfig string                    `yaml:"default_config,omitempty"`
	Options       []string                  `yaml:"options,omitempty"` // raw generator options
	Configs       map[string]ConfigSettings `yaml:"configs,omitempty"` // per build type
}

// ConfigSettings is the overlay applied for one build type.
type ConfigSettings struct {
	Defines   []string `yaml:"defines,omitempty"`
	Flags     []string `yaml:"flags,omitempty"` // universal flag tokens
	LinkFlags []string `yaml:"link_flags,omitempty"`
	Options   []string `yaml:"options,omitempty"`
}

// Output controls where binaries and libraries land. Both fields
// support ${CONFIG}, ${OS} and ${ARCH} token expansion.
type Output struct {
	BinDir string `yaml:"bin_dir,omitempty"`
	LibDir string `yaml:"lib_dir,omitempty"`
}

// Target is one named build output within a project.
type Target struct {
	Sources     []string `yaml:"sources"`
	IncludeDirs []string `yaml:"include_dirs,omitempty"`
	Defines     []string `yaml:"defines,omitempty"`
	Links       []string `yaml:"links,omitempty"`
}

// Dependencies partitions a project's dependency list into the four
// classes. Only Workspace entries participate in the dependency graph.
type Dependencies struct {
	Workspace []WorkspaceDep `yaml:"workspace,omitempty"`
	System    []string       `yaml:"system,omitempty"`
	Vendored  *Vendored      `yaml:"vendored,omitempty"`
	Git       []GitDep       `yaml:"git,omitempty"`
}

// WorkspaceDep references a sibling project by name.
type WorkspaceDep struct {
	Name     string `yaml:"name"`
	LinkType string `yaml:"link_type,omitempty"` // static, shared or interface
}

// Vendored delegates packages to an external package manager invoked
// before configure.
type Vendored struct {
	Manager  string   `yaml:"manager,omitempty"` // defaults to vcpkg
	Path     string   `yaml:"path,omitempty"`
	Packages []string `yaml:"packages"`
}

// GitDep is a source-drop dependency fetched from a VCS URL.
type GitDep struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Branch  string   `yaml:"branch,omitempty"`
	Tag     string   `yaml:"tag,omitempty"` // "latest" picks the highest semver tag
	Commit  string   `yaml:"commit,omitempty"`
	Shallow bool     `yaml:"shallow,omitempty"`
	Options []string `yaml:"options,omitempty"`
}

// Variant is a named overlay selectable per build invocation.
type Variant struct {
	Description string   `yaml:"description,omitempty"`
	Defines     []string `yaml:"defines,omitempty"`
	Flags       []string `yaml:"flags,omitempty"` // universal flag tokens
	Options     []string `yaml:"options,omitempty"`
}

// Overlay is a platform-keyed overlay (platforms: windows/darwin/linux).
type Overlay struct {
	Compiler string   `yaml:"compiler,omitempty"`
	Defines  []string `yaml:"defines,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
}

// CrossCompile selects or defines a cross-compilation profile.
type CrossCompile struct {
	Enabled       bool              `yaml:"enabled"`
	Target        string            `yaml:"target"`
	Toolchain     string            `yaml:"toolchain,omitempty"`
	Sysroot       string            `yaml:"sysroot,omitempty"`
	ToolchainFile string            `yaml:"toolchain_file,omitempty"`
	DefinePrefix  string            `yaml:"define_prefix,omitempty"`
	Flags         []string          `yaml:"flags,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
}

// PCH describes precompiled-header setup for the emitter.
type PCH struct {
	Header            string   `yaml:"header"`
	Source            string   `yaml:"source,omitempty"`
	IncludeDirs       []string `yaml:"include_dirs,omitempty"`
	Options           []string `yaml:"options,omitempty"`
	OnlyForTargets    []string `yaml:"only_for_targets,omitempty"`
	ExcludeSources    []string `yaml:"exclude_sources,omitempty"`
	DisableUnityBuild bool     `yaml:"disable_unity_build,omitempty"`
}

// Hooks are command sequences run around build phases, through the
// system shell with PROJECT_PATH/BUILD_PATH/CONFIG_TYPE in the env.
type Hooks struct {
	PreConfigure  []string `yaml:"pre_configure,omitempty"`
	PostConfigure []string `yaml:"post_configure,omitempty"`
	PreBuild      []string `yaml:"pre_build,omitempty"`
	PostBuild     []string `yaml:"post_build,omitempty"`
	PreClean      []string `yaml:"pre_clean,omitempty"`
	PostClean     []string `yaml:"post_clean,omitempty"`
	PreInstall    []string `yaml:"pre_install,omitempty"`
	PostInstall   []string `yaml:"post_install,omitempty"`
	PreRun        []string `yaml:"pre_run,omitempty"`
	PostRun       []string `yaml:"post_run,omitempty"`
}

// IsLibrary reports whether the project produces a linkable artifact.
func (p *Project) IsLibrary() bool {
	switch p.Project.Kind {
	case KindStaticLibrary, KindSharedLibrary, KindInterface:
		return true
	}
	return false
}

// HasProject reports whether name is a member of the workspace.
func (w *Workspace) HasProject(name string) bool {
	for _, p := range w.Projects {
		if p == name {
			return true
		}
	}
	return false
}

// Startup returns the project run when none is named: the default
// startup project if set and valid, else the first project.
func (w *Workspace) Startup() string {
	if w.DefaultStartup != "" && w.HasProject(w.DefaultStartup) {
		return w.DefaultStartup
	}
	if len(w.Projects) > 0 {
		return w.Projects[0]
	}
	return ""
}
