package cross

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuild-io/cbuild/internal/config"
)

func TestBuiltinAndroidArm64(t *testing.T) {
	p, ok := Builtin("android-arm64")
	require.True(t, ok)
	assert.Equal(t, "android-arm64", p.Name)
	assert.Equal(t, "aarch64-linux-android", p.Target)
	assert.Equal(t, "ANDROID", p.DefinePrefix)
}

func TestBuiltinUnknown(t *testing.T) {
	_, ok := Builtin("pdp11")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "android-arm64")
	assert.Contains(t, names, "wasm")
	assert.IsIncreasing(t, names)
}

func TestSetupAndroidUsesToolchainFile(t *testing.T) {
	t.Setenv("ANDROID_NDK", "/opt/ndk")
	p, _ := Builtin("android-arm64")
	args := Setup(p)

	assert.Contains(t, args, "-DCMAKE_TOOLCHAIN_FILE=/opt/ndk/build/cmake/android.toolchain.cmake")
	assert.Contains(t, args, "-DANDROID_ABI=arm64-v8a")
	assert.Contains(t, args, "-DANDROID=1")
	// The toolchain file supplies the compilers.
	for _, a := range args {
		assert.NotContains(t, a, "CMAKE_C_COMPILER")
	}
}

func TestSetupUsesDiscoveredSDK(t *testing.T) {
	home := t.TempDir()
	ndk := home + "/ndk/latest"
	require.NoError(t, os.MkdirAll(ndk, 0o755))
	t.Setenv("ANDROID_NDK", "")
	t.Setenv("ANDROID_HOME", home)

	// The NDK found by the well-known-location probe must reach the
	// toolchain-file argument, not just the child environment.
	p, _ := Builtin("android-arm64")
	args := Setup(p)
	assert.Contains(t, args, "-DCMAKE_TOOLCHAIN_FILE="+ndk+"/build/cmake/android.toolchain.cmake")
}

func TestSetupBareToolchainNamesTools(t *testing.T) {
	p, _ := Builtin("raspberry-pi")
	args := Setup(p)

	assert.Contains(t, args, "-DCMAKE_C_COMPILER=arm-linux-gnueabihf-gcc")
	assert.Contains(t, args, "-DCMAKE_CXX_COMPILER=arm-linux-gnueabihf-g++")
	assert.Contains(t, args, "-DCMAKE_SYSTEM_NAME=Linux")
	assert.Contains(t, args, "-DRASPBERRY_PI=1")
}

func TestSetupDerivesSystemFromTriple(t *testing.T) {
	p := FromConfig(&config.CrossCompile{
		Enabled: true,
		Target:  "aarch64-unknown-freebsd",
	})
	args := Setup(p)
	assert.Contains(t, args, "-DCMAKE_SYSTEM_NAME=Linux") // non-special systems fall back
	assert.Contains(t, args, "-DCMAKE_SYSTEM_PROCESSOR=aarch64")
}

func TestSetupSysrootExpanded(t *testing.T) {
	t.Setenv("SYSROOTS", "/data/sysroots")
	p := FromConfig(&config.CrossCompile{
		Enabled: true,
		Target:  "arm-linux-gnueabihf",
		Sysroot: "$SYSROOTS/rpi",
	})
	args := Setup(p)
	assert.Contains(t, args, "-DCMAKE_SYSROOT=/data/sysroots/rpi")
}

func TestEnvVarWins(t *testing.T) {
	t.Setenv("ANDROID_NDK", "/opt/ndk")
	p, _ := Builtin("android-arm64")
	env := Env(p)
	_, injected := env["ANDROID_NDK"]
	assert.False(t, injected, "set env var must not be overridden")
}

func TestEnvProbesWellKnownPaths(t *testing.T) {
	home := t.TempDir()
	ndk := home + "/ndk/latest"
	require.NoError(t, os.MkdirAll(ndk, 0o755))
	t.Setenv("ANDROID_NDK", "")
	t.Setenv("ANDROID_HOME", home)

	p, _ := Builtin("android-arm64")
	env := Env(p)
	assert.Equal(t, ndk, env["ANDROID_NDK"])
}

func TestEnvOverlayExpanded(t *testing.T) {
	t.Setenv("TOOLROOT", "/opt/tools")
	p := FromConfig(&config.CrossCompile{
		Enabled: true,
		Target:  "arm-linux-gnueabihf",
		Env:     map[string]string{"PATH_EXTRA": "$TOOLROOT/bin"},
	})
	env := Env(p)
	assert.Equal(t, "/opt/tools/bin", env["PATH_EXTRA"])
}
