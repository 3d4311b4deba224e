// Package cross translates named cross-compilation profiles into
// generator arguments and environment overlays.
package cross

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbuild-io/cbuild/internal/config"
)

// Profile is a resolved cross-compilation bundle.
type Profile struct {
	Name          string
	Target        string // target triple
	Toolchain     string // toolchain command prefix, e.g. arm-linux-gnueabihf
	Sysroot       string
	ToolchainFile string // backing generator toolchain file
	DefinePrefix  string // define injected as -D<prefix>=1
	Flags         []string
	Env           map[string]string
}

// builtin is the table of predefined profiles. User-defined profiles
// from project config use the same schema.
var builtin = map[string]Profile{
	"android-arm64": {
		Target:        "aarch64-linux-android",
		ToolchainFile: "$ANDROID_NDK/build/cmake/android.toolchain.cmake",
		DefinePrefix:  "ANDROID",
		Flags: []string{
			"-DANDROID_ABI=arm64-v8a",
			"-DANDROID_PLATFORM=android-24",
			"-DANDROID_STL=c++_shared",
		},
	},
	"android-arm": {
		Target:        "armv7a-linux-androideabi",
		ToolchainFile: "$ANDROID_NDK/build/cmake/android.toolchain.cmake",
		DefinePrefix:  "ANDROID",
		Flags: []string{
			"-DANDROID_ABI=armeabi-v7a",
			"-DANDROID_PLATFORM=android-19",
			"-DANDROID_STL=c++_shared",
		},
	},
	"ios": {
		Target:       "arm64-apple-ios",
		DefinePrefix: "IOS",
		Flags: []string{
			"-DCMAKE_SYSTEM_NAME=iOS",
			"-DCMAKE_OSX_DEPLOYMENT_TARGET=12.0",
			"-DCMAKE_XCODE_ATTRIBUTE_ONLY_ACTIVE_ARCH=NO",
		},
	},
	"raspberry-pi": {
		Target:       "arm-linux-gnueabihf",
		Toolchain:    "arm-linux-gnueabihf",
		DefinePrefix: "RASPBERRY_PI",
		Flags: []string{
			"-DCMAKE_SYSTEM_NAME=Linux",
			"-DCMAKE_SYSTEM_PROCESSOR=arm",
		},
	},
	"wasm": {
		Target:        "wasm32-unknown-emscripten",
		Toolchain:     "emscripten",
		ToolchainFile: "$EMSCRIPTEN/cmake/Modules/Platform/Emscripten.cmake",
		DefinePrefix:  "WASM",
		Flags: []string{
			"-DCMAKE_SYSTEM_NAME=Emscripten",
		},
	},
}

// sdkProbes lists well-known SDK locations probed when the profile's
// environment variable is unset. The env var always wins; the table
// is consulted in order and the first existing path is injected into
// the child environment. No global state is modified.
var sdkProbes = map[string][]string{
	"ANDROID_NDK": {
		"$ANDROID_HOME/ndk-bundle",
		"$ANDROID_HOME/ndk/latest",
		"$ANDROID_HOME/ndk/21.0.6113669",
	},
	"EMSCRIPTEN": {
		"$HOME/emsdk/upstream/emscripten",
		"/usr/local/emsdk/upstream/emscripten",
		"C:/emsdk/upstream/emscripten",
	},
}

// sdkVarForTarget maps a target triple to the SDK env var it needs.
func sdkVarForTarget(target string) string {
	switch target {
	case "aarch64-linux-android", "armv7a-linux-androideabi":
		return "ANDROID_NDK"
	case "wasm32-unknown-emscripten":
		return "EMSCRIPTEN"
	}
	return ""
}

// Names returns the built-in profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin looks up a predefined profile by name.
func Builtin(name string) (Profile, bool) {
	p, ok := builtin[name]
	if ok {
		p.Name = name
	}
	return p, ok
}

// FromConfig converts a project's cross_compile section into a Profile.
func FromConfig(cc *config.CrossCompile) Profile {
	return Profile{
		Name:          cc.Target,
		Target:        cc.Target,
		Toolchain:     cc.Toolchain,
		Sysroot:       cc.Sysroot,
		ToolchainFile: cc.ToolchainFile,
		DefinePrefix:  cc.DefinePrefix,
		Flags:         cc.Flags,
		Env:           cc.Env,
	}
}

// Setup expands a profile into generator arguments. Path fields are
// expanded against the profile's environment overlay first, so an SDK
// root discovered by Env reaches the toolchain-file path, then against
// the process environment.
func Setup(p Profile) []string {
	overlay := Env(p)
	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			if v, ok := overlay[key]; ok {
				return v
			}
			return os.Getenv(key)
		})
	}

	var args []string

	if p.ToolchainFile != "" {
		args = append(args, "-DCMAKE_TOOLCHAIN_FILE="+expand(p.ToolchainFile))
	}
	args = append(args, p.Flags...)
	if p.Sysroot != "" {
		args = append(args, "-DCMAKE_SYSROOT="+expand(p.Sysroot))
	}
	if p.DefinePrefix != "" {
		args = append(args, "-D"+p.DefinePrefix+"=1")
	}

	// Without a toolchain file, a bare toolchain prefix names the
	// cross tools directly.
	if p.ToolchainFile == "" && p.Toolchain != "" {
		args = append(args,
			"-DCMAKE_C_COMPILER="+p.Toolchain+"-gcc",
			"-DCMAKE_CXX_COMPILER="+p.Toolchain+"-g++",
			"-DCMAKE_AR="+p.Toolchain+"-ar",
			"-DCMAKE_RANLIB="+p.Toolchain+"-ranlib",
			"-DCMAKE_STRIP="+p.Toolchain+"-strip",
		)
	}

	if !hasSystemName(args) {
		if name, proc, ok := systemFromTriple(p.Target); ok {
			args = append(args,
				"-DCMAKE_SYSTEM_NAME="+name,
				"-DCMAKE_SYSTEM_PROCESSOR="+proc,
			)
		}
	}
	return args
}

// Env returns the environment overlay for a profile, discovering the
// SDK root when its env var is unset.
func Env(p Profile) map[string]string {
	env := make(map[string]string, len(p.Env)+1)
	for k, v := range p.Env {
		env[k] = os.ExpandEnv(v)
	}

	sdkVar := sdkVarForTarget(p.Target)
	if sdkVar == "" {
		return env
	}
	if _, set := env[sdkVar]; set {
		return env
	}
	if os.Getenv(sdkVar) != "" {
		return env // env var wins; nothing to inject
	}
	for _, candidate := range sdkProbes[sdkVar] {
		path := os.ExpandEnv(candidate)
		if _, err := os.Stat(filepath.FromSlash(path)); err == nil {
			env[sdkVar] = path
			break
		}
	}
	return env
}

func hasSystemName(args []string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, "-DCMAKE_SYSTEM_NAME=") {
			return true
		}
	}
	return false
}

// systemFromTriple derives the generator's system name and processor
// from an arch-vendor-sys target triple.
func systemFromTriple(triple string) (name, proc string, ok bool) {
	parts := strings.Split(triple, "-")
	if len(parts) < 3 {
		return "", "", false
	}
	switch parts[2] {
	case "windows":
		name = "Windows"
	case "darwin", "ios", "macos":
		name = "Darwin"
	case "android":
		name = "Android"
	default:
		name = "Linux"
	}
	return name, parts[0], true
}
