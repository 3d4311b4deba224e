package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbuild-io/cbuild/internal/expand"
)

// WritePackageConfig writes a minimal <Name>Config.cmake into the
// project's build tree so dependents can find_package it without an
// export set. Existing stubs are rewritten; the file is cheap and the
// library list may have changed.
func WritePackageConfig(eff *expand.Effective, libraries []string) (string, error) {
	dir := eff.BuildPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	upperName := upper(eff.Name)
	var b strings.Builder
	w := func(format string, a ...any) { fmt.Fprintf(&b, format+"\n", a...) }

	w("%s, do not edit", marker)
	w("set(%s_FOUND TRUE)", upperName)
	w("set(%s_INCLUDE_DIRS %q)", upperName, filepath.ToSlash(eff.IncludePath()))
	if len(libraries) > 0 {
		paths := make([]string, len(libraries))
		for i, lib := range libraries {
			paths[i] = filepath.ToSlash(lib)
		}
		w("set(%s_LIBRARIES %q)", upperName, strings.Join(paths, ";"))
	} else {
		w("set(%s_LIBRARIES \"\")", upperName)
	}

	path := filepath.Join(dir, eff.Name+"Config.cmake")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
