package patch

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/patchtools/patchxml/internal/types"
)

// Reserved mapping keys of the patch surface.
const (
	keyIf         = "$if"
	keyMove       = "$move"
	keyCopy       = "$copy"
	keyModify     = "$modify"
	keyAttributes = "$attributes"
	keyAnd        = "$and"
	keyOr         = "$or"
)

// Parse decodes patch YAML into a query. Empty patch text yields a nil
// query, meaning "apply nothing".
//
// Decoding works on the yaml.Node level: mapping content keeps document
// order and duplicate keys, both of which the patch language depends on.
func Parse(text string) (*Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInputDecode, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return decodeQuery(doc.Content[0])
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

func decodeQuery(node *yaml.Node) (*Query, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := decodeSimpleValue(node)
		if err != nil {
			return nil, err
		}
		return SimpleQuery(v), nil
	case yaml.MappingNode:
		cq, err := decodeComplexQuery(node)
		if err != nil {
			return nil, err
		}
		return ComplexQueryOf(cq), nil
	case yaml.SequenceNode:
		var list []*ComplexQuery
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: line %d: a value is not allowed inside a query sequence", types.ErrPatchSyntax, item.Line)
			}
			cq, err := decodeComplexQuery(item)
			if err != nil {
				return nil, err
			}
			list = append(list, cq)
		}
		return ListQuery(list), nil
	default:
		return nil, fmt.Errorf("%w: line %d: unsupported query node", types.ErrPatchSyntax, node.Line)
	}
}

func decodeComplexQuery(node *yaml.Node) (*ComplexQuery, error) {
	cq := &ComplexQuery{}
	seenModify := false
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: query keys must be scalars", types.ErrPatchSyntax, key.Line)
		}
		switch key.Value {
		case keyIf:
			filter, err := decodeFilter(value, filterAnd)
			if err != nil {
				return nil, err
			}
			cq.Modifier.Filter = filter
		case keyMove:
			expr, err := decodeExpression(value)
			if err != nil {
				return nil, err
			}
			cq.Modifier.MoveTo = expr
		case keyCopy:
			expr, err := decodeExpression(value)
			if err != nil {
				return nil, err
			}
			cq.Modifier.Copy = expr
		case keyModify:
			if seenModify {
				return nil, fmt.Errorf("%w: line %d: duplicate $modify", types.ErrPatchSyntax, key.Line)
			}
			seenModify = true
			mv, err := decodeModValue(value)
			if err != nil {
				return nil, err
			}
			cq.Modification = mv
		default:
			selector, err := CompileAnchored(key.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", key.Line, err)
			}
			sub, err := decodeQuery(value)
			if err != nil {
				return nil, err
			}
			cq.SubQueries = append(cq.SubQueries, SubQuery{Selector: selector, Query: sub})
		}
	}
	return cq, nil
}

func decodeModValue(node *yaml.Node) (*ModValue, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := decodeSimpleValue(node)
		if err != nil {
			return nil, err
		}
		return SimpleModValue(v), nil
	case yaml.MappingNode:
		cv, err := decodeComplexValue(node)
		if err != nil {
			return nil, err
		}
		return ComplexModValue(cv), nil
	case yaml.SequenceNode:
		var list []*ComplexValue
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: line %d: a value is not allowed inside a modification sequence", types.ErrPatchSyntax, item.Line)
			}
			cv, err := decodeComplexValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, cv)
		}
		return ListModValue(list), nil
	default:
		return nil, fmt.Errorf("%w: line %d: unsupported modification node", types.ErrPatchSyntax, node.Line)
	}
}

func decodeComplexValue(node *yaml.Node) (*ComplexValue, error) {
	cv := &ComplexValue{}
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: modification keys must be scalars", types.ErrPatchSyntax, key.Line)
		}
		switch key.Value {
		case keyIf:
			filter, err := decodeFilter(value, filterAnd)
			if err != nil {
				return nil, err
			}
			cv.Modifier.Filter = filter
		case keyMove:
			expr, err := decodeExpression(value)
			if err != nil {
				return nil, err
			}
			cv.Modifier.MoveTo = expr
		case keyCopy:
			expr, err := decodeExpression(value)
			if err != nil {
				return nil, err
			}
			cv.Modifier.Copy = expr
		case keyAttributes:
			attrs, err := decodeAttributes(value)
			if err != nil {
				return nil, err
			}
			cv.Attributes = attrs
		default:
			identifier, err := ParseIdentifier(key.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", key.Line, err)
			}
			sub, err := decodeModValue(value)
			if err != nil {
				return nil, err
			}
			cv.SubValues = append(cv.SubValues, SubValue{Identifier: identifier, Value: sub})
		}
	}
	return cv, nil
}

func decodeAttributes(node *yaml.Node) ([]AttrValue, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: $attributes expects a mapping", types.ErrPatchSyntax, node.Line)
	}
	var attrs []AttrValue
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: attribute names must be scalars", types.ErrPatchSyntax, key.Line)
		}
		v, err := decodeSimpleValue(resolveAlias(value))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, AttrValue{Name: key.Value, Value: v})
	}
	return attrs, nil
}

func decodeExpression(node *yaml.Node) (*Expression, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: line %d: expected a reference expression", types.ErrPatchSyntax, node.Line)
	}
	expr, err := ParseExpression(node.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return &expr, nil
}

func decodeSimpleValue(node *yaml.Node) (SimpleValue, error) {
	if node.Kind != yaml.ScalarNode {
		return SimpleValue{}, fmt.Errorf("%w: line %d: expected a scalar value", types.ErrPatchSyntax, node.Line)
	}
	switch node.Tag {
	case "!!null":
		return RemoveValue(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return SimpleValue{}, fmt.Errorf("%w: line %d: %v", types.ErrPatchSyntax, node.Line, err)
		}
		return BoolValue(b), nil
	case "!!int":
		if strings.HasPrefix(strings.TrimSpace(node.Value), "-") {
			var i int64
			if err := node.Decode(&i); err != nil {
				return SimpleValue{}, fmt.Errorf("%w: line %d: %v", types.ErrPatchSyntax, node.Line, err)
			}
			return SignedValue(i), nil
		}
		var u uint64
		if err := node.Decode(&u); err != nil {
			return SimpleValue{}, fmt.Errorf("%w: line %d: %v", types.ErrPatchSyntax, node.Line, err)
		}
		return UnsignedValue(u), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return SimpleValue{}, fmt.Errorf("%w: line %d: %v", types.ErrPatchSyntax, node.Line, err)
		}
		return FloatValue(f), nil
	case "!!str":
		expr, err := ParseExpression(node.Value)
		if err != nil {
			return SimpleValue{}, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return PatternValue(expr), nil
	default:
		return SimpleValue{}, fmt.Errorf("%w: line %d: unsupported scalar tag %s", types.ErrPatchSyntax, node.Line, node.Tag)
	}
}

type filterVariant int

const (
	filterAnd filterVariant = iota
	filterOr
)

func decodeFilter(node *yaml.Node, variant filterVariant) (Filter, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeFilterScalar(node)
	case yaml.SequenceNode:
		var children []Filter
		for _, item := range node.Content {
			sub, err := decodeFilter(item, variant)
			if err != nil {
				return nil, err
			}
			children = spliceFilter(children, sub, variant)
		}
		return joinFilters(children, variant), nil
	case yaml.MappingNode:
		return decodeFilterMapping(node, variant)
	default:
		return nil, fmt.Errorf("%w: line %d: unsupported filter node", types.ErrPatchSyntax, node.Line)
	}
}

func decodeFilterMapping(node *yaml.Node, variant filterVariant) (Filter, error) {
	var children []Filter
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: filter keys must be scalars", types.ErrPatchSyntax, key.Line)
		}
		switch key.Value {
		case keyAnd:
			sub, err := decodeFilter(value, filterAnd)
			if err != nil {
				return nil, err
			}
			if variant == filterAnd {
				children = spliceFilter(children, sub, filterAnd)
			} else {
				children = append(children, sub)
			}
		case keyOr:
			sub, err := decodeFilter(value, filterOr)
			if err != nil {
				return nil, err
			}
			if variant == filterOr {
				children = spliceFilter(children, sub, filterOr)
			} else {
				children = append(children, sub)
			}
		default:
			selector, err := CompileAnchored(key.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", key.Line, err)
			}
			sub, err := decodeFilter(value, variant)
			if err != nil {
				return nil, err
			}
			children = append(children, ChildFilter{Selector: selector, Filter: sub})
		}
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return joinFilters(children, variant), nil
}

// spliceFilter flattens a nested filter of the enclosing variant into the
// sibling list.
func spliceFilter(children []Filter, f Filter, variant filterVariant) []Filter {
	if variant == filterAnd {
		if and, ok := f.(AndFilter); ok {
			return append(children, and.Filters...)
		}
	} else if or, ok := f.(OrFilter); ok {
		return append(children, or.Filters...)
	}
	return append(children, f)
}

func joinFilters(children []Filter, variant filterVariant) Filter {
	if variant == filterAnd {
		return AndFilter{Filters: children}
	}
	return OrFilter{Filters: children}
}

func decodeFilterScalar(node *yaml.Node) (Filter, error) {
	switch node.Tag {
	case "!!null":
		return NotSetFilter{}, nil
	case "!!str":
		// handled below
	default:
		v, err := decodeSimpleValue(node)
		if err != nil {
			return nil, err
		}
		return ExpressionFilter{Comparator: CompEquals, Value: v}, nil
	}
	s := node.Value
	if strings.HasPrefix(s, "^") {
		source := strings.TrimPrefix(s, "^")
		source = strings.TrimSuffix(source, "$")
		selector, err := CompileAnchored(source)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return RegexFilter{Selector: selector}, nil
	}
	comparator := CompEquals
	rest := s
	for _, p := range []struct {
		prefix string
		cmp    Comparator
	}{
		{"<=", CompLesserEqual},
		{">=", CompGreaterEqual},
		{"!=", CompEqualsNot},
		{"<", CompLesserThan},
		{">", CompGreaterThan},
		{"=", CompEquals},
	} {
		if strings.HasPrefix(s, p.prefix) {
			comparator = p.cmp
			rest = s[len(p.prefix):]
			break
		}
	}
	v, err := reparseScalar(rest, node.Line)
	if err != nil {
		return nil, err
	}
	return ExpressionFilter{Comparator: comparator, Value: v}, nil
}

// reparseScalar re-reads the remainder of a comparator-prefixed filter
// string as a YAML scalar, so ">4" compares numerically and "=true"
// compares as a boolean.
func reparseScalar(s string, line int) (SimpleValue, error) {
	if strings.TrimSpace(s) == "" {
		return SimpleValue{}, fmt.Errorf("%w: line %d: comparator without operand", types.ErrPatchSyntax, line)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return SimpleValue{}, fmt.Errorf("%w: line %d: %v", types.ErrPatchSyntax, line, err)
	}
	if len(doc.Content) == 0 {
		return SimpleValue{}, fmt.Errorf("%w: line %d: comparator without operand", types.ErrPatchSyntax, line)
	}
	return decodeSimpleValue(resolveAlias(doc.Content[0]))
}
