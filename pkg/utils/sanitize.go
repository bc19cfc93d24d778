package utils

import (
	"regexp"
	"strings"
)

var nonIdent = regexp.MustCompile("[^a-z0-9]+")

// SanitizeIdentifier turns an arbitrary string into a safe SQL identifier
// fragment: lowercase, runs of anything outside [a-z0-9] become a single
// underscore, leading/trailing underscores trimmed. May return "".
func SanitizeIdentifier(s string) string {
	s = strings.ToLower(s)
	s = nonIdent.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
