// Package xmltree implements the mutable, parent-linked XML tree the patch
// processor operates on. Child lists own their nodes; parent links are
// back-references only. Elements additionally carry a transient regex slot
// that the processor sets while it is inside a matching selector.
package xmltree

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/patchtools/patchxml/internal/types"
)

// Kind discriminates the node variants.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindCData
	KindProcInst
)

// Attr is a single attribute. Attribute order on an element is insertion
// order and is preserved through patching and serialization.
type Attr struct {
	Name  string
	Value string
}

// Node is one node of the tree. Only elements have names, attributes and
// children; the other kinds carry a text payload (and a target for
// processing instructions).
type Node struct {
	parent *Node
	kind   Kind

	prefix   string
	name     string
	attrs    []Attr
	regex    *regexp.Regexp
	children []*Node

	text   string
	target string
}

// Tree wraps the single real root of a document.
type Tree struct {
	Root *Node
}

// NewElement returns a detached element node.
func NewElement(prefix, name string) *Node {
	return &Node{kind: KindElement, prefix: prefix, name: name}
}

// NewText returns a detached text node.
func NewText(text string) *Node {
	return &Node{kind: KindText, text: text}
}

// NewComment returns a detached comment node.
func NewComment(text string) *Node {
	return &Node{kind: KindComment, text: text}
}

// NewCData returns a detached CDATA node.
func NewCData(text string) *Node {
	return &Node{kind: KindCData, text: text}
}

// NewProcInst returns a detached processing-instruction node.
func NewProcInst(target, data string) *Node {
	return &Node{kind: KindProcInst, target: target, text: data}
}

// Kind reports the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the node's parent, or nil for a detached or root node.
func (n *Node) Parent() *Node { return n.parent }

// Name returns the element name. The second result is false for
// non-element nodes.
func (n *Node) Name() (string, bool) {
	if n.kind != KindElement {
		return "", false
	}
	return n.name, true
}

// Prefix returns the element's namespace prefix, if any.
func (n *Node) Prefix() string { return n.prefix }

// SetName renames an element in place. It reports whether the node was an
// element.
func (n *Node) SetName(name string) bool {
	if n.kind != KindElement {
		return false
	}
	n.name = name
	return true
}

// Text returns the node's text payload. For elements it is the
// concatenation of the direct text and CDATA children.
func (n *Node) Text() string {
	if n.kind != KindElement {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		if c.kind == KindText || c.kind == KindCData {
			sb.WriteString(c.text)
		}
	}
	return sb.String()
}

// Target returns the processing-instruction target.
func (n *Node) Target() string { return n.target }

// Append attaches child at the end of n's children and sets its parent
// back-reference. Appending to a non-element is a no-op returning nil.
func (n *Node) Append(child *Node) *Node {
	if n.kind != KindElement {
		return nil
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// Children returns a snapshot of the current child list. Mutating the tree
// while ranging over the snapshot is safe for other branches; nodes added
// to n afterwards are not part of the snapshot.
func (n *Node) Children() []*Node {
	if n.kind != KindElement || len(n.children) == 0 {
		return nil
	}
	snapshot := make([]*Node, len(n.children))
	copy(snapshot, n.children)
	return snapshot
}

// ClearChildren drops all children. It reports whether the node was an
// element.
func (n *Node) ClearChildren() bool {
	if n.kind != KindElement {
		return false
	}
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	return true
}

// Remove detaches n from its parent. A node without a parent cannot be
// removed and Remove reports false.
func (n *Node) Remove() bool {
	p := n.parent
	if p == nil {
		return false
	}
	n.parent = nil
	kept := p.children[:0]
	for _, c := range p.children {
		if c.parent != nil {
			kept = append(kept, c)
		}
	}
	p.children = kept
	return true
}

// SetRegex stashes the selector regex that matched this element. The slot
// is transient: the processor sets it on entry and clears it on exit.
func (n *Node) SetRegex(re *regexp.Regexp) {
	if n.kind == KindElement {
		n.regex = re
	}
}

// Regex returns the stashed selector regex, if any.
func (n *Node) Regex() *regexp.Regexp {
	if n.kind != KindElement {
		return nil
	}
	return n.regex
}

// Attrs returns the element's attributes in insertion order.
func (n *Node) Attrs() []Attr { return n.attrs }

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or overwrites an attribute. An existing attribute keeps its
// position; a new one is appended.
func (n *Node) SetAttr(name, value string) {
	if n.kind != KindElement {
		return
	}
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute. Removing an absent attribute is a
// silent no-op.
func (n *Node) RemoveAttr(name string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// DeepClone copies n and all its descendants. The clone is detached and
// its transient regex slots are cleared.
func (n *Node) DeepClone() *Node {
	clone := &Node{
		kind:   n.kind,
		prefix: n.prefix,
		name:   n.name,
		text:   n.text,
		target: n.target,
	}
	if len(n.attrs) > 0 {
		clone.attrs = make([]Attr, len(n.attrs))
		copy(clone.attrs, n.attrs)
	}
	for _, c := range n.children {
		clone.Append(c.DeepClone())
	}
	return clone
}

// ResolvePath walks path segments from n. "." stays, ".." steps to the
// parent, and a name steps into the unique child element of that name.
// With autoCreate a missing name is synthesized as an empty element;
// without it, it is fatal. Ambiguous names are always fatal.
func (n *Node) ResolvePath(segments []string, autoCreate bool) (*Node, error) {
	current := n
	for _, segment := range segments {
		switch segment {
		case "..":
			if current.parent == nil {
				return nil, fmt.Errorf("%w: path segment \"..\" reaches past the document root", types.ErrPath)
			}
			current = current.parent
		case ".":
		default:
			var matches []*Node
			for _, c := range current.Children() {
				if name, ok := c.Name(); ok && name == segment {
					matches = append(matches, c)
				}
			}
			switch len(matches) {
			case 1:
				current = matches[0]
			case 0:
				if !autoCreate {
					return nil, fmt.Errorf("%w: no element %q under %q", types.ErrPath, segment, current.name)
				}
				current = current.Append(NewElement("", segment))
			default:
				return nil, fmt.Errorf("%w: more than one element %q under %q", types.ErrPath, segment, current.name)
			}
		}
	}
	return current, nil
}

// MoveCopyAction selects between relocating a node and duplicating it.
type MoveCopyAction int

const (
	ActionMove MoveCopyAction = iota
	ActionCopy
)

// MoveCopy applies an already-evaluated move/copy target to n. The target
// is a /-separated path whose last segment is the new element name; an
// empty last segment keeps the current name. A non-empty remaining path is
// resolved from n's parent with auto-create, and n (or its deep clone, for
// copies) is appended at the end of the resolved parent.
func (n *Node) MoveCopy(target string, action MoveCopyAction) error {
	segments := strings.Split(target, "/")
	newName := segments[len(segments)-1]
	segments = segments[:len(segments)-1]
	if newName != "" {
		if !n.SetName(newName) {
			return fmt.Errorf("%w: cannot rename non-element node to %q", types.ErrPath, newName)
		}
	}
	if len(segments) == 0 {
		return nil
	}
	if n.parent == nil {
		return fmt.Errorf("%w: the root element cannot be moved or copied", types.ErrPath)
	}
	newParent, err := n.parent.ResolvePath(segments, true)
	if err != nil {
		return err
	}
	switch action {
	case ActionMove:
		n.Remove()
		newParent.Append(n)
	case ActionCopy:
		newParent.Append(n.DeepClone())
	}
	return nil
}
