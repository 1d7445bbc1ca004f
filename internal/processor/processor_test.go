package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtools/patchxml/internal/patch"
	"github.com/patchtools/patchxml/internal/types"
	"github.com/patchtools/patchxml/internal/xmltree"
)

func apply(t *testing.T, xmlText, patchText string) (string, error) {
	t.Helper()
	tree, err := xmltree.Parse(xmlText)
	require.NoError(t, err)
	query, err := patch.Parse(patchText)
	require.NoError(t, err)
	require.NotNil(t, query)
	if err := New(tree).Apply(query); err != nil {
		return "", err
	}
	return tree.Serialize(), nil
}

func applyOK(t *testing.T, xmlText, patchText string) string {
	t.Helper()
	out, err := apply(t, xmlText, patchText)
	require.NoError(t, err)
	return out
}

const prolog = `<?xml version="1.0" encoding="UTF-8"?>`

func TestEmptyMappingClearsElement(t *testing.T) {
	got := applyOK(t, `<e><s>Foo</s><s>Bar</s></e>`, "e: {}")
	assert.Equal(t, prolog+`<e />`, got)
}

func TestAppliedRegexIsTransient(t *testing.T) {
	tree, err := xmltree.Parse(`<element>Foo</element>`)
	require.NoError(t, err)
	query, err := patch.Parse("ele(.+): \"[.:1]\"")
	require.NoError(t, err)
	require.NoError(t, New(tree).Apply(query))

	// the stash must be cleared once the selector is left
	assert.Nil(t, tree.Root.Regex())
	assert.Equal(t, prolog+`<element>ment</element>`, tree.Serialize())
}

func TestModifyCopyMoveOrder(t *testing.T) {
	// $modify runs first, $copy second, $move last: the copy carries the
	// modification, and the move target sees the copied sibling already.
	got := applyOK(t,
		`<e><s>Foo</s></e>`,
		"e:\n  s:\n    $modify: Bar\n    $copy: c/\n    $move: m/\n",
	)
	assert.Equal(t, prolog+`<e><c><s>Bar</s></c><m><s>Bar</s></m></e>`, got)
}

func TestModifyDescendsAllMatchingChildren(t *testing.T) {
	got := applyOK(t,
		`<e><s>1</s><s>2</s></e>`,
		"e:\n  $modify:\n    s: Bar\n",
	)
	assert.Equal(t, prolog+`<e><s>Bar</s><s>Bar</s></e>`, got)
}

func TestModificationIdentifierIsEvaluated(t *testing.T) {
	// The target child name may itself reference the selector match.
	got := applyOK(t,
		`<element />`,
		"ele(?P<tail>.+):\n  $modify:\n    \"sub[.:tail]\": Bar\n",
	)
	assert.Equal(t, prolog+`<element><subment>Bar</subment></element>`, got)
}

func TestRemoveThenSiblingQuery(t *testing.T) {
	// Selectors run in document order; the second selector sees the tree
	// after the first one's removal.
	got := applyOK(t,
		`<e><a>1</a><b>2</b></e>`,
		"e:\n  a: ~\n  b: kept\n",
	)
	assert.Equal(t, prolog+`<e><b>kept</b></e>`, got)
}

func TestModificationListAppliesInOrder(t *testing.T) {
	got := applyOK(t,
		`<e />`,
		"e:\n  $modify:\n    - +s: one\n    - +s: two\n",
	)
	assert.Equal(t, prolog+`<e><s>one</s><s>two</s></e>`, got)
}

func TestAttributeReferenceExpression(t *testing.T) {
	got := applyOK(t,
		`<element>Foo</element>`,
		"ele(?P<tail>.+):\n  $modify:\n    $attributes:\n      kind: \"[.:tail]\"\n",
	)
	assert.Equal(t, prolog+`<element kind="ment">Foo</element>`, got)
}

func TestUnmatchedSelectorIsIdentity(t *testing.T) {
	input := `<element attr="1"><sub>Foo</sub></element>`
	got := applyOK(t, input, "unrelated: Bar")
	assert.Equal(t, prolog+input, got)
}

func TestPathErrors(t *testing.T) {
	t.Run("missing reference target", func(t *testing.T) {
		_, err := apply(t, `<e><s>1</s></e>`, "e:\n  s: \"[../missing]\"\n")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrPath))
	})
	t.Run("reference without selector stash", func(t *testing.T) {
		// "../.." resolves above every matched selector, so there is no
		// applied regex to reference.
		_, err := apply(t, `<e><s>1</s></e>`, "e:\n  s: \"[../..:0]\"\n")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrPath))
	})
}
