package expand

import (
	"strings"

	"github.com/cbuild-io/cbuild/internal/toolchain"
)

// ExpandTokens substitutes the ${CONFIG}, ${OS} and ${ARCH}
// placeholders. It is a pure substitution: expanding the
// concatenation of two strings equals concatenating their expansions.
func ExpandTokens(s, buildType string, h toolchain.Host) string {
	r := strings.NewReplacer(
		"${CONFIG}", buildType,
		"${OS}", h.OS,
		"${ARCH}", h.Arch,
	)
	return r.Replace(s)
}

// flagTable maps universal flag tokens to native flags for the two
// compiler driver styles. An explicit table, no heuristics.
var flagTable = map[string]struct{ slash, dash []string }{
	"NO_OPT":       {[]string{"/Od"}, []string{"-O0"}},
	"OPTIMIZE":     {[]string{"/O2"}, []string{"-O2"}},
	"OPTIMIZE_MAX": {[]string{"/O3"}, []string{"-O3"}},
	"MIN_SIZE":     {[]string{"/O1"}, []string{"-Os"}},
	"OB1":          {[]string{"/Ob1"}, nil}, // no dash-style inline-level equivalent
	"OB2":          {[]string{"/Ob2"}, []string{"-finline-functions"}},
	"DEBUG_INFO":   {[]string{"/Zi"}, []string{"-g"}},
	"RTC1":         {[]string{"/RTC1"}, nil}, // MSVC run-time checks only
	"LTO":          {[]string{"/GL"}, []string{"-flto"}},
	"PARALLEL":     {[]string{"/Qpar"}, []string{"-fopenmp"}},
	"MEMSAFE":      {[]string{"/sdl", "/GS"}, []string{"-fsanitize=address", "-fno-omit-frame-pointer"}},
	"NO_WARNINGS":  {[]string{"/W0"}, []string{"-w"}},
	"DNDEBUG":      {[]string{"/DNDEBUG"}, []string{"-DNDEBUG"}},
}

// MapToken translates one universal flag token into native flags for
// the given driver style. Unknown tokens are returned verbatim with
// ok=false so the caller can warn.
func MapToken(token string, slashStyle bool) (flags []string, ok bool) {
	entry, ok := flagTable[token]
	if !ok {
		return []string{token}, false
	}
	if slashStyle {
		return entry.slash, true
	}
	return entry.dash, true
}

// FlagArgs maps a token list to native flags, reporting unknown
// tokens through warn. Mapping depends only on the driver style and
// is idempotent: native flags are not themselves tokens.
func FlagArgs(tokens []string, slashStyle bool, warn func(string)) []string {
	var out []string
	for _, t := range tokens {
		flags, known := MapToken(t, slashStyle)
		if !known && warn != nil {
			warn("unrecognized flag token " + t + ", passing through unchanged")
		}
		out = append(out, flags...)
	}
	return out
}

// dedupe removes repeated entries preserving first occurrence.
func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
