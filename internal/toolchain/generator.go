package toolchain

import (
	"context"
	"strings"
)

// visualStudioGenerators maps a vsYYYY shorthand to the generator name
// the backing generator expects. Newest first; the first entry is the
// fallback when no version is requested.
var visualStudioGenerators = []struct {
	Year string
	Name string
}{
	{"2022", "Visual Studio 17 2022"},
	{"2019", "Visual Studio 16 2019"},
	{"2017", "Visual Studio 15 2017"},
	{"2015", "Visual Studio 14 2015"},
	{"2013", "Visual Studio 12 2013"},
}

// Generator resolves the generator hint from a project config into a
// concrete generator name, probing for the tools a hint implies and
// auto-detecting when the hint is empty or "default".
func (p *Probe) Generator(ctx context.Context, hint string, h Host) string {
	switch {
	case hint == "" || hint == "default":
		return p.detectGenerator(ctx, h)
	case strings.HasPrefix(strings.ToLower(hint), "vs"):
		return visualStudioGenerator(strings.TrimPrefix(strings.ToLower(hint), "vs"))
	case strings.HasPrefix(hint, "Visual Studio"):
		return hint
	}
	return hint
}

func (p *Probe) detectGenerator(ctx context.Context, h Host) string {
	if p.Has(ctx, "ninja") {
		return "Ninja"
	}
	switch h.OS {
	case "windows":
		if p.Has(ctx, "cl") {
			return visualStudioGenerator("")
		}
		return "NMake Makefiles"
	case "darwin":
		return "Xcode"
	}
	return "Unix Makefiles"
}

func visualStudioGenerator(year string) string {
	for _, g := range visualStudioGenerators {
		if g.Year == year {
			return g.Name
		}
	}
	return visualStudioGenerators[0].Name
}
