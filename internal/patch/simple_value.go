package patch

import (
	"strconv"

	"github.com/patchtools/patchxml/internal/xmltree"
)

// SimpleValueKind discriminates the scalar leaf variants.
type SimpleValueKind int

const (
	ValuePattern SimpleValueKind = iota
	ValueBool
	ValueUnsigned
	ValueSigned
	ValueFloat
	ValueRemove
)

// SimpleValue is a typed scalar leaf of the patch language.
type SimpleValue struct {
	Kind    SimpleValueKind
	Pattern Expression
	Bool    bool
	Uint    uint64
	Int     int64
	Float   float64
}

// PatternValue wraps a reference expression.
func PatternValue(expr Expression) SimpleValue {
	return SimpleValue{Kind: ValuePattern, Pattern: expr}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) SimpleValue { return SimpleValue{Kind: ValueBool, Bool: b} }

// UnsignedValue wraps a non-negative integer.
func UnsignedValue(u uint64) SimpleValue { return SimpleValue{Kind: ValueUnsigned, Uint: u} }

// SignedValue wraps a negative integer.
func SignedValue(i int64) SimpleValue { return SimpleValue{Kind: ValueSigned, Int: i} }

// FloatValue wraps a float.
func FloatValue(f float64) SimpleValue { return SimpleValue{Kind: ValueFloat, Float: f} }

// RemoveValue is the null scalar, signalling deletion at the call site.
func RemoveValue() SimpleValue { return SimpleValue{Kind: ValueRemove} }

// EvalString renders the value as text against node. The second result is
// false for Remove, which yields no text at all.
func (v SimpleValue) EvalString(node *xmltree.Node) (string, bool, error) {
	switch v.Kind {
	case ValuePattern:
		s, err := v.Pattern.Evaluate(node)
		return s, err == nil, err
	case ValueBool:
		return strconv.FormatBool(v.Bool), true, nil
	case ValueUnsigned:
		return strconv.FormatUint(v.Uint, 10), true, nil
	case ValueSigned:
		return strconv.FormatInt(v.Int, 10), true, nil
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64), true, nil
	default:
		return "", false, nil
	}
}
