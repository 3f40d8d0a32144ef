// Package roles manages the closed set of person roles for the journal.
// Role codes are opaque two-letter strings used both in storage and over
// the wire.
package roles

import "sort"

// Role codes.
const (
	Author           = "AU"
	Referee          = "RE"
	Editor           = "ED"
	ManagingEditor   = "ME"
	ConsultingEditor = "CE"
)

// registry maps role codes to display names.
var registry = map[string]string{
	Author:           "Author",
	Referee:          "Referee",
	Editor:           "Editor",
	ManagingEditor:   "Managing Editor",
	ConsultingEditor: "Consulting Editor",
}

// mastheadRoles is the subset of roles published as editorial staff.
var mastheadRoles = map[string]bool{
	Editor:           true,
	ManagingEditor:   true,
	ConsultingEditor: true,
}

// Read returns the role code to display name mapping.
func Read() map[string]string {
	out := make(map[string]string, len(registry))
	for code, name := range registry {
		out[code] = name
	}
	return out
}

// Codes returns all valid role codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsValid reports whether code is a registered role.
func IsValid(code string) bool {
	_, ok := registry[code]
	return ok
}

// IsMasthead reports whether code is one of the masthead roles.
func IsMasthead(code string) bool {
	return mastheadRoles[code]
}

// HasMasthead reports whether any of the given codes is a masthead role.
func HasMasthead(codes []string) bool {
	for _, code := range codes {
		if mastheadRoles[code] {
			return true
		}
	}
	return false
}
