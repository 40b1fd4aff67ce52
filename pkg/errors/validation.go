package errors

import (
	"regexp"
	"slices"
	"strings"
)

// mapIDRegex matches map identifiers: lowercase hex with optional dashes,
// which covers UUIDs and content hashes.
var mapIDRegex = regexp.MustCompile(`^[0-9a-f][0-9a-f-]{7,63}$`)

// ValidateMapID validates a stored map identifier for safety.
// IDs end up in file paths and database keys, so only a narrow alphabet is
// accepted.
func ValidateMapID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "map id cannot be empty")
	}
	if !mapIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid map id: %q", id)
	}
	return nil
}

// ValidateURI checks that a backend connection string uses one of the given
// schemes, e.g. "redis" or "mongodb+srv".
func ValidateURI(raw string, schemes ...string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "URI cannot be empty")
	}
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok || !slices.Contains(schemes, scheme) {
		return New(ErrCodeInvalidConfig, "URI must use one of the schemes %v", schemes)
	}
	return nil
}

// ValidateFormat checks an output format name against the supported ones.
func ValidateFormat(format string, supported ...string) error {
	if !slices.Contains(supported, format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(supported, ", "))
	}
	return nil
}
