package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeName validates a node name from a scene file or API request.
//
// Node names appear in frame output, DOT graphs and log lines, so the rules
// are conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - No control characters or whitespace
//   - No path separators or quotes
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	const maxNameLength = 128
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "node name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "node name %q contains whitespace or control characters", name)
		}
	}

	if strings.ContainsAny(name, "/\\\"'") {
		return New(ErrCodeInvalidName, "node name %q contains invalid characters", name)
	}

	return nil
}

// ValidatePath validates a scene path relative to a scene directory.
// It prevents path traversal and keeps paths to a reasonable length.
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

// ValidateFormat checks that format is one of the allowed output formats.
// Comparison is case-insensitive.
func ValidateFormat(format string, allowed ...string) error {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, a := range allowed {
		if f == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
