package patch

import (
	"strconv"
	"strings"

	"github.com/patchtools/patchxml/internal/xmltree"
)

// Comparator is the relation of an expression filter.
type Comparator int

const (
	CompEquals Comparator = iota
	CompEqualsNot
	CompGreaterThan
	CompGreaterEqual
	CompLesserThan
	CompLesserEqual
)

// Filter is a predicate over an XML element. A query carrying a filter
// only applies to candidates for which Eval returns true.
type Filter interface {
	Eval(node *xmltree.Node) (bool, error)
}

// AndFilter matches when all sub-filters match. Empty matches.
type AndFilter struct {
	Filters []Filter
}

// OrFilter matches when any sub-filter matches. Empty does not match.
type OrFilter struct {
	Filters []Filter
}

// ChildFilter matches when any child whose name matches Selector
// satisfies the sub-filter.
type ChildFilter struct {
	Selector Regex
	Filter   Filter
}

// RegexFilter matches the current element's name.
type RegexFilter struct {
	Selector Regex
}

// ExpressionFilter compares the current element's text payload to a typed
// value.
type ExpressionFilter struct {
	Comparator Comparator
	Value      SimpleValue
}

// NotSetFilter is the null filter; it always matches.
type NotSetFilter struct{}

func (f AndFilter) Eval(node *xmltree.Node) (bool, error) {
	for _, sub := range f.Filters {
		ok, err := sub.Eval(node)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (f OrFilter) Eval(node *xmltree.Node) (bool, error) {
	for _, sub := range f.Filters {
		ok, err := sub.Eval(node)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f ChildFilter) Eval(node *xmltree.Node) (bool, error) {
	for _, child := range node.Children() {
		name, isElement := child.Name()
		if !isElement || !f.Selector.Match(name) {
			continue
		}
		ok, err := f.Filter.Eval(child)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f RegexFilter) Eval(node *xmltree.Node) (bool, error) {
	name, isElement := node.Name()
	return isElement && f.Selector.Match(name), nil
}

func (f NotSetFilter) Eval(*xmltree.Node) (bool, error) { return true, nil }

func (f ExpressionFilter) Eval(node *xmltree.Node) (bool, error) {
	text := node.Text()
	switch f.Value.Kind {
	case ValuePattern:
		want, err := f.Value.Pattern.Evaluate(node)
		if err != nil {
			return false, err
		}
		return compareStrings(text, want, f.Comparator), nil
	case ValueBool:
		have, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return false, nil
		}
		switch f.Comparator {
		case CompEquals:
			return have == f.Value.Bool, nil
		case CompEqualsNot:
			return have != f.Value.Bool, nil
		default:
			return false, nil
		}
	case ValueUnsigned, ValueSigned, ValueFloat:
		have, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return false, nil
		}
		return compareFloats(have, f.Value.asFloat(), f.Comparator), nil
	default:
		return false, nil
	}
}

func (v SimpleValue) asFloat() float64 {
	switch v.Kind {
	case ValueUnsigned:
		return float64(v.Uint)
	case ValueSigned:
		return float64(v.Int)
	default:
		return v.Float
	}
}

func compareStrings(have, want string, cmp Comparator) bool {
	switch cmp {
	case CompEquals:
		return have == want
	case CompEqualsNot:
		return have != want
	case CompGreaterThan:
		return have > want
	case CompGreaterEqual:
		return have >= want
	case CompLesserThan:
		return have < want
	default:
		return have <= want
	}
}

func compareFloats(have, want float64, cmp Comparator) bool {
	switch cmp {
	case CompEquals:
		return have == want
	case CompEqualsNot:
		return have != want
	case CompGreaterThan:
		return have > want
	case CompGreaterEqual:
		return have >= want
	case CompLesserThan:
		return have < want
	default:
		return have <= want
	}
}
