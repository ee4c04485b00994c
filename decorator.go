package fitty

import "strings"

// Wildcard is the marker replaced by the raw name in decorator patterns.
const Wildcard = "*"

const (
	DefaultNameDecorator     = "*"
	DefaultFunctionDecorator = "f_*"
)

// FormatName substitutes name for every wildcard in pattern:
// FormatName("h1", "pref_*") == "pref_h1".
func FormatName(name, pattern string) string {
	return strings.ReplaceAll(pattern, Wildcard, name)
}
