package set

import (
	"sort"
	"strings"
)

// NewStringSet returns a set of strings, ordered ordinally.
func NewStringSet(items ...string) Set[string] {
	return New(func(s []string) { sort.Strings(s) }, items...)
}

// SplitSpaceSeparated splits s on single spaces into a string set, ignoring
// empty elements (so a leading/trailing/doubled space never produces a
// spurious empty-string member). Returns an empty set for an empty string.
func SplitSpaceSeparated(s string) Set[string] {
	if s == "" {
		return NewStringSet()
	}
	fields := strings.Split(s, " ")
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			items = append(items, f)
		}
	}
	return NewStringSet(items...)
}

// JoinSpaceSeparated joins a string set back into the space-separated wire
// representation used throughout the OIDC property model.
func JoinSpaceSeparated(s Set[string]) string {
	return strings.Join(s.Items(), " ")
}

// ContainsSpace reports whether any element of items contains a space
// character. ticket.Properties rejects such elements on write.
func ContainsSpace(items ...string) bool {
	for _, item := range items {
		if strings.Contains(item, " ") {
			return true
		}
	}
	return false
}
