package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds tree and person identifiers.
const maxIDLength = 128

// idRegex matches identifiers accepted for trees and persons: letters, digits,
// and the separators produced by uuids and hand-written YAML files.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateTreeID validates a tree identifier for safety and correctness.
// Tree IDs end up in file names (file store), cache keys and URL paths, so
// the rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateTreeID(id string) error {
	if err := validateID(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid tree id %q", id)
	}
	return nil
}

// ValidatePersonID validates a person identifier. Person IDs follow the same
// rules as tree IDs.
func ValidatePersonID(id string) error {
	if err := validateID(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid person id %q", id)
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "id contains invalid control characters")
		}
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "id contains invalid characters: %q", "..")
	}
	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "id must be alphanumeric with . _ : - separators")
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
