package xmltree

import (
	"strings"
)

const prolog = `<?xml version="1.0" encoding="UTF-8"?>`

// Serialize renders the tree as XML text: the standard UTF-8 prolog
// followed by the root element, with empty elements self-closed and
// attributes emitted in insertion order.
func (t *Tree) Serialize() string {
	var sb strings.Builder
	sb.WriteString(prolog)
	writeNode(&sb, t.Root)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	switch n.kind {
	case KindElement:
		name := n.name
		if n.prefix != "" {
			name = n.prefix + ":" + n.name
		}
		sb.WriteByte('<')
		sb.WriteString(name)
		for _, a := range n.attrs {
			sb.WriteByte(' ')
			sb.WriteString(a.Name)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(a.Value))
			sb.WriteByte('"')
		}
		if len(n.children) == 0 {
			sb.WriteString(" />")
			return
		}
		sb.WriteByte('>')
		for _, c := range n.children {
			writeNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(name)
		sb.WriteByte('>')
	case KindText:
		sb.WriteString(escapeText(n.text))
	case KindComment:
		sb.WriteString("<!--")
		sb.WriteString(n.text)
		sb.WriteString("-->")
	case KindCData:
		sb.WriteString("<![CDATA[")
		sb.WriteString(n.text)
		sb.WriteString("]]>")
	case KindProcInst:
		sb.WriteString("<?")
		sb.WriteString(n.target)
		if n.text != "" {
			sb.WriteByte(' ')
			sb.WriteString(n.text)
		}
		sb.WriteString("?>")
	}
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
