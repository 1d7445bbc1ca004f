// Package processor walks a patch query over an XML tree and applies its
// rewrites in document order.
package processor

import (
	"fmt"

	"github.com/patchtools/patchxml/internal/patch"
	"github.com/patchtools/patchxml/internal/types"
	"github.com/patchtools/patchxml/internal/xmltree"
)

// Processor applies patch queries to one tree. The tree is mutably owned
// by the processor for the duration of Apply.
type Processor struct {
	tree *xmltree.Tree
}

// New returns a processor for tree.
func New(tree *xmltree.Tree) *Processor {
	return &Processor{tree: tree}
}

// Apply runs query against the tree. The real root is wrapped in a
// synthetic internal_root element so that root-level selectors behave
// like any other level.
func (p *Processor) Apply(query *patch.Query) error {
	wrapper := xmltree.NewElement("", "internal_root")
	wrapper.Append(p.tree.Root)
	err := applyQuery(query, wrapper)
	if p.tree.Root.Parent() == wrapper {
		p.tree.Root.Remove()
	}
	return err
}

func applyQuery(query *patch.Query, node *xmltree.Node) error {
	switch query.Kind {
	case patch.QuerySimple:
		return applySimple(query.Simple, node)
	case patch.QueryComplex:
		return applyComplex(query.Complex, node)
	case patch.QueryList:
		for _, cq := range query.List {
			if err := applyComplex(cq, node); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown query kind %d", types.ErrInternal, query.Kind)
	}
}

// applySimple assigns a leaf value: Remove detaches the node itself, any
// other value replaces the node's content with a single text child.
func applySimple(value patch.SimpleValue, node *xmltree.Node) error {
	text, hasText, err := value.EvalString(node)
	if err != nil {
		return err
	}
	if !hasText {
		node.Remove()
		return nil
	}
	node.ClearChildren()
	node.Append(xmltree.NewText(text))
	return nil
}

func applyComplex(cq *patch.ComplexQuery, node *xmltree.Node) error {
	if cq.Modifier.Filter != nil {
		ok, err := cq.Modifier.Filter.Eval(node)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	// An empty mapping assigned to a selector clears the element.
	if len(cq.SubQueries) == 0 && cq.Modification == nil &&
		cq.Modifier.Copy == nil && cq.Modifier.MoveTo == nil {
		node.ClearChildren()
		return nil
	}

	for _, sub := range cq.SubQueries {
		for _, child := range node.Children() {
			if child.Parent() == nil {
				// detached earlier in this pass
				continue
			}
			name, isElement := child.Name()
			if !isElement || !sub.Selector.Match(name) {
				continue
			}
			child.SetRegex(sub.Selector.Regexp())
			err := applyQuery(sub.Query, child)
			child.SetRegex(nil)
			if err != nil {
				return err
			}
		}
	}

	if cq.Modification != nil {
		if err := modify(cq.Modification, node); err != nil {
			return err
		}
	}
	if cq.Modifier.Copy != nil {
		if err := moveCopy(cq.Modifier.Copy, node, xmltree.ActionCopy); err != nil {
			return err
		}
	}
	if cq.Modifier.MoveTo != nil {
		if err := moveCopy(cq.Modifier.MoveTo, node, xmltree.ActionMove); err != nil {
			return err
		}
	}
	return nil
}

func moveCopy(expr *patch.Expression, node *xmltree.Node, action xmltree.MoveCopyAction) error {
	target, err := expr.Evaluate(node)
	if err != nil {
		return err
	}
	return node.MoveCopy(target, action)
}

func modify(value *patch.ModValue, node *xmltree.Node) error {
	switch value.Kind {
	case patch.ModValueSimple:
		text, hasText, err := value.Simple.EvalString(node)
		if err != nil {
			return err
		}
		node.ClearChildren()
		if hasText {
			node.Append(xmltree.NewText(text))
		}
		return nil
	case patch.ModValueComplex:
		return modifyComplex(value.Complex, node)
	case patch.ModValueList:
		for _, cv := range value.List {
			if err := modifyComplex(cv, node); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown modification kind %d", types.ErrInternal, value.Kind)
	}
}

func modifyComplex(cv *patch.ComplexValue, node *xmltree.Node) error {
	for _, sub := range cv.SubValues {
		name, err := sub.Identifier.Expr.Evaluate(node)
		if err != nil {
			return err
		}
		switch sub.Identifier.Mode {
		case patch.ModeModify:
			updated := false
			for _, child := range node.Children() {
				if childName, isElement := child.Name(); isElement && childName == name {
					updated = true
					if err := modify(sub.Value, child); err != nil {
						return err
					}
				}
			}
			if !updated {
				if err := modify(sub.Value, node.Append(xmltree.NewElement("", name))); err != nil {
					return err
				}
			}
		case patch.ModeReplace:
			exists := false
			for _, child := range node.Children() {
				if childName, isElement := child.Name(); isElement && childName == name {
					exists = true
					break
				}
			}
			if !exists {
				if err := modify(sub.Value, node.Append(xmltree.NewElement("", name))); err != nil {
					return err
				}
			}
		case patch.ModeAdd:
			if err := modify(sub.Value, node.Append(xmltree.NewElement("", name))); err != nil {
				return err
			}
		}
	}

	for _, attr := range cv.Attributes {
		text, hasText, err := attr.Value.EvalString(node)
		if err != nil {
			return err
		}
		if hasText {
			node.SetAttr(attr.Name, text)
		} else {
			node.RemoveAttr(attr.Name)
		}
	}
	return nil
}
