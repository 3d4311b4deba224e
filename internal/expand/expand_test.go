package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/toolchain"
)

var linuxHost = toolchain.Host{OS: "linux", Arch: "x64"}
var windowsHost = toolchain.Host{OS: "windows", Arch: "x64"}

func baseProject() *config.Project {
	p := &config.Project{}
	p.Project.Name = "demo"
	p.Project.Kind = config.KindExecutable
	p.Build.BuildDir = "build"
	p.Build.DefaultConfig = "Debug"
	p.Build.Configs = map[string]config.ConfigSettings{
		"Debug":   {Flags: []string{"NO_OPT", "DEBUG_INFO"}, Defines: []string{"DEBUG"}},
		"Release": {Flags: []string{"OPTIMIZE", "DNDEBUG"}},
	}
	p.Output.BinDir = "bin/${CONFIG}"
	p.Output.LibDir = "lib/${CONFIG}"
	p.Variants = map[string]config.Variant{
		"Fast": {Flags: []string{"OPTIMIZE_MAX", "LTO"}},
		"Safe": {Flags: []string{"DEBUG_INFO", "MEMSAFE"}, Defines: []string{"HARDENED"}},
	}
	return p
}

func TestComposeDefaultConfigDashStyle(t *testing.T) {
	eff, err := Compose(baseProject(), "/src/demo", Request{Host: linuxHost})
	require.NoError(t, err)

	assert.Equal(t, "Debug", eff.Config)
	assert.Equal(t, "gcc", eff.Compiler)
	assert.False(t, eff.SlashStyle)
	assert.Equal(t, []string{"-O0", "-g"}, eff.Flags)
	assert.Equal(t, "bin/Debug", eff.BinDir)
}

func TestComposeConfigOverride(t *testing.T) {
	eff, err := Compose(baseProject(), "/src/demo", Request{Config: "Release", Host: linuxHost})
	require.NoError(t, err)

	assert.Equal(t, "Release", eff.Config)
	assert.Equal(t, []string{"-O2", "-DNDEBUG"}, eff.Flags)
	assert.Equal(t, "bin/Release", eff.BinDir)
	assert.Empty(t, eff.Defines)
}

func TestComposeVariantFast(t *testing.T) {
	cases := []struct {
		host toolchain.Host
		want []string
	}{
		{windowsHost, []string{"/Od", "/Zi", "/O3", "/GL"}},
		{linuxHost, []string{"-O0", "-g", "-O3", "-flto"}},
	}
	for _, tc := range cases {
		eff, err := Compose(baseProject(), "/src/demo", Request{Variant: "Fast", Host: tc.host})
		require.NoError(t, err)
		if diff := cmp.Diff(tc.want, eff.Flags); diff != "" {
			t.Errorf("%s flags (-want +got):\n%s", tc.host.OS, diff)
		}
	}
}

func TestComposeVariantSafeDedupes(t *testing.T) {
	// Safe repeats DEBUG_INFO already present in the Debug config; the
	// native flag must appear once.
	eff, err := Compose(baseProject(), "/src/demo", Request{Variant: "Safe", Host: linuxHost})
	require.NoError(t, err)

	assert.Equal(t, []string{"-O0", "-g", "-fsanitize=address", "-fno-omit-frame-pointer"}, eff.Flags)
	assert.Equal(t, []string{"DEBUG", "HARDENED"}, eff.Defines)
}

func TestComposeUnknownVariant(t *testing.T) {
	_, err := Compose(baseProject(), "/src/demo", Request{Variant: "Nope", Host: linuxHost})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
}

func TestComposePlatformOverlayWinsCompiler(t *testing.T) {
	p := baseProject()
	p.Build.Compiler = "gcc"
	p.Platforms = map[string]config.Overlay{
		"windows": {Compiler: "msvc", Defines: []string{"WIN32_LEAN_AND_MEAN"}},
	}
	eff, err := Compose(p, "/src/demo", Request{Host: windowsHost})
	require.NoError(t, err)

	assert.Equal(t, "msvc", eff.Compiler)
	assert.True(t, eff.SlashStyle)
	assert.Contains(t, eff.Defines, "WIN32_LEAN_AND_MEAN")
	// Slash style applies to token mapping too.
	assert.Contains(t, eff.Flags, "/Od")
}

func TestComposeCrossTargetSuffixesBuildDir(t *testing.T) {
	eff, err := Compose(baseProject(), "/src/demo", Request{CrossTarget: "android-arm64", Host: linuxHost})
	require.NoError(t, err)

	require.NotNil(t, eff.Cross)
	assert.Equal(t, "aarch64-linux-android", eff.Cross.Target)
	assert.Equal(t, "build-aarch64-linux-android", eff.BuildDir)
	assert.Contains(t, eff.Options, "-DANDROID_ABI=arm64-v8a")
	assert.Contains(t, eff.Options, "-DANDROID=1")
}

func TestComposeUnknownCrossTarget(t *testing.T) {
	_, err := Compose(baseProject(), "/src/demo", Request{CrossTarget: "amiga", Host: linuxHost})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amiga")
}

func TestComposeProjectCrossProfile(t *testing.T) {
	p := baseProject()
	p.CrossCompile = &config.CrossCompile{
		Enabled:   true,
		Target:    "riscv64-unknown-linux",
		Toolchain: "riscv64-unknown-linux",
	}
	eff, err := Compose(p, "/src/demo", Request{Host: linuxHost})
	require.NoError(t, err)

	require.NotNil(t, eff.Cross)
	assert.Contains(t, eff.Options, "-DCMAKE_C_COMPILER=riscv64-unknown-linux-gcc")
	assert.Contains(t, eff.Options, "-DCMAKE_SYSTEM_NAME=Linux")
	assert.Contains(t, eff.Options, "-DCMAKE_SYSTEM_PROCESSOR=riscv64")
}

func TestComposeUnknownTokenWarnsAndPassesThrough(t *testing.T) {
	p := baseProject()
	p.Build.Configs["Debug"] = config.ConfigSettings{Flags: []string{"NO_OPT", "-fcustom"}}
	var warned []string
	eff, err := Compose(p, "/src/demo", Request{
		Host: linuxHost,
		Warn: func(msg string) { warned = append(warned, msg) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"-O0", "-fcustom"}, eff.Flags)
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0], "-fcustom")
}
