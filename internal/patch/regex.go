// Package patch defines the patch-language AST — selectors, reference
// expressions, simple and complex values, filters — and its decoding from
// YAML. Mapping order and duplicate keys are significant throughout, so
// all maps in this package are pair slices in document order.
package patch

import (
	"fmt"
	"regexp"

	"github.com/patchtools/patchxml/internal/types"
)

// Regex is an anchored selector pattern. The user-supplied source is
// compiled as ^source$, and two Regex values are equal iff their sources
// are byte-for-byte identical.
type Regex struct {
	source string
	re     *regexp.Regexp
}

// CompileAnchored compiles source with implicit anchoring.
func CompileAnchored(source string) (Regex, error) {
	re, err := regexp.Compile("^" + source + "$")
	if err != nil {
		return Regex{}, fmt.Errorf("%w: invalid pattern %q: %v", types.ErrPatchSyntax, source, err)
	}
	return Regex{source: source, re: re}, nil
}

// MustCompileAnchored is CompileAnchored for patterns known to be valid.
func MustCompileAnchored(source string) Regex {
	r, err := CompileAnchored(source)
	if err != nil {
		panic(err)
	}
	return r
}

// Source returns the pattern as written, without the anchors.
func (r Regex) Source() string { return r.source }

// Match reports whether the whole of s matches the pattern.
func (r Regex) Match(s string) bool { return r.re.MatchString(s) }

// Regexp exposes the compiled anchored pattern.
func (r Regex) Regexp() *regexp.Regexp { return r.re }

// Equal compares by source string.
func (r Regex) Equal(other Regex) bool { return r.source == other.source }

func (r Regex) String() string { return r.source }
