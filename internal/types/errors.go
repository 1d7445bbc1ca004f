// Package types holds the error kinds shared by the patch engine packages.
package types

import "errors"

// Error kinds. Every fatal condition reported by the engine wraps exactly
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrInputDecode marks YAML or XML input that failed to parse.
	ErrInputDecode = errors.New("input decode error")

	// ErrPatchSyntax marks a malformed patch document: bad reference
	// expressions or escapes, duplicate $modify, simple values inside
	// sequences, invalid selector patterns.
	ErrPatchSyntax = errors.New("patch syntax error")

	// ErrPath marks structural violations during processing: ".." past the
	// root, ambiguous or missing names on reference resolution, moving the
	// root element.
	ErrPath = errors.New("path error")

	// ErrInternal marks states that should be unreachable.
	ErrInternal = errors.New("internal error")
)
