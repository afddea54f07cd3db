package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds node names taken from snapshots.
const maxNameLength = 256

// ValidateNodeName validates a node name coming from a snapshot key.
//
// The rules are deliberately small:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 bytes
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSnapshot, "node name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidSnapshot, "node name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSnapshot, "node name %q contains control characters", name)
		}
	}
	return nil
}

// elementIDRegex matches identifiers accepted on drawing surface elements.
var elementIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateElementID validates an identifier assigned to a surface element.
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "element id cannot be empty")
	}
	if !elementIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid element id: %q", id)
	}
	return nil
}

// ValidateFormat checks that format is one of the allowed output formats.
func ValidateFormat(format string, allowed ...string) error {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, a := range allowed {
		if f == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
