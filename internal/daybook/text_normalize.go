package daybook

import "strings"

// NormalizeText trims input and collapses any repeated whitespace
// (spaces/tabs/newlines) to a single space.
func NormalizeText(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
