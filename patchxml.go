// Package patchxml applies YAML-defined structural patches to XML
// documents. Patches select elements by anchored regular expressions,
// descend through the tree, and rewrite it: replace text, remove or clear
// elements, create or append children, mutate attributes, move or copy
// subtrees, and interpolate capture groups from ancestor selectors.
package patchxml

import (
	"github.com/patchtools/patchxml/internal/patch"
	"github.com/patchtools/patchxml/internal/processor"
	"github.com/patchtools/patchxml/internal/xmltree"
)

// Patch applies patchText to xmlText and returns the serialized result:
// the standard UTF-8 prolog followed by the patched document with empty
// elements self-closed. Empty patch text leaves the document unchanged.
//
// Any failure — undecodable input, malformed patch syntax, or a
// structural violation during processing — is returned as a single error
// classifiable with errors.Is against the exported kind values.
func Patch(xmlText, patchText string) (string, error) {
	tree, err := xmltree.Parse(xmlText)
	if err != nil {
		return "", err
	}
	query, err := patch.Parse(patchText)
	if err != nil {
		return "", err
	}
	if query != nil {
		if err := processor.New(tree).Apply(query); err != nil {
			return "", err
		}
	}
	return tree.Serialize(), nil
}
