package patchxml

import "github.com/patchtools/patchxml/internal/types"

// Error kinds returned by Patch, for use with errors.Is.
var (
	// ErrInputDecode: the XML document or the patch YAML failed to parse.
	ErrInputDecode = types.ErrInputDecode

	// ErrPatchSyntax: the patch decoded as YAML but violates the patch
	// language (bad reference expression or escape, invalid selector
	// pattern, duplicate $modify, value inside a sequence).
	ErrPatchSyntax = types.ErrPatchSyntax

	// ErrPath: a structural violation during processing, such as ".."
	// stepping past the root, an ambiguous or missing child on reference
	// resolution, or an attempt to move the root element.
	ErrPath = types.ErrPath

	// ErrInternal: a state that should be unreachable.
	ErrInternal = types.ErrInternal
)
