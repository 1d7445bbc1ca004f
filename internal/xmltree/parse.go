package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/patchtools/patchxml/internal/types"
)

// Parse builds a tree from XML text. The document must have exactly one
// root element; content outside it (prolog, doctype, surrounding
// whitespace) is dropped. Text inside the root is preserved verbatim.
//
// encoding/xml folds CDATA sections into character data, so parsed trees
// never contain KindCData nodes; they can only be built programmatically.
func Parse(text string) (*Tree, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	var root *Node
	var current *Node
	for {
		// RawToken keeps prefixes as written; Token would replace a
		// declared prefix with its namespace URL.
		token, err := decoder.RawToken()
		if err == io.EOF {
			if current != nil {
				return nil, fmt.Errorf("%w: unexpected end of document inside <%s>", types.ErrInputDecode, current.name)
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInputDecode, err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			element := NewElement(t.Name.Space, t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				element.SetAttr(attrName(a.Name), a.Value)
			}
			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("%w: more than one root element", types.ErrInputDecode)
				}
				root = element
			} else {
				current.Append(element)
			}
			current = element
		case xml.EndElement:
			if current == nil || t.Name.Space != current.prefix || t.Name.Local != current.name {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", types.ErrInputDecode, attrName(t.Name))
			}
			current = current.parent
		case xml.CharData:
			if current != nil {
				current.Append(NewText(string(t)))
			}
		case xml.Comment:
			if current != nil {
				current.Append(NewComment(string(t)))
			}
		case xml.ProcInst:
			if current != nil && t.Target != "xml" {
				current.Append(NewProcInst(t.Target, string(t.Inst)))
			}
		case xml.Directive:
			// doctype and friends are not represented
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", types.ErrInputDecode)
	}
	return &Tree{Root: root}, nil
}

func attrName(name xml.Name) string {
	if name.Space != "" {
		return name.Space + ":" + name.Local
	}
	return name.Local
}
