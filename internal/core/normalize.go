package core

import "strings"

// NormalizeExtension prepends a "." when raw does not already start with one.
// No other transformation is applied: case and surrounding whitespace are kept.
func NormalizeExtension(raw string) string {
	if strings.HasPrefix(raw, ".") {
		return raw
	}
	return "." + raw
}
