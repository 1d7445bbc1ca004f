package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patchtools/patchxml/internal/types"
	"github.com/patchtools/patchxml/internal/xmltree"
)

// Expression is a parsed interpolation template: a sequence of literal
// text segments and [path:capture] references that resolve capture-group
// text from an ancestor selector's match.
type Expression struct {
	Segments []Segment
}

// Segment is one piece of an Expression: a Literal or a Reference.
type Segment interface {
	segment()
	render(sb *strings.Builder)
}

// Literal is plain text.
type Literal struct {
	Text string
}

// Reference pulls capture text out of the element resolved by Path.
type Reference struct {
	Path    string
	Capture Capture
}

// CaptureKind selects how a reference picks text from the match.
type CaptureKind int

const (
	// CaptureWhole emits the full matched element name.
	CaptureWhole CaptureKind = iota
	// CaptureIndex emits a numbered group (0 is the whole match).
	CaptureIndex
	// CaptureName emits a named group.
	CaptureName
)

// Capture identifies a regex capture group.
type Capture struct {
	Kind  CaptureKind
	Index int
	Name  string
}

func (Literal) segment()   {}
func (Reference) segment() {}

// ParseExpression scans text into an Expression. [ opens a reference and ]
// closes it; backslash escapes [, ], \, n, r, t, ' and ". Any other
// escape, an unmatched ], or an unterminated [ is an error.
func ParseExpression(text string) (Expression, error) {
	var segments []Segment
	var buf strings.Builder
	escaping := false
	inReference := false
	for _, c := range text {
		if escaping {
			switch c {
			case '[', ']', '\\', '\'', '"':
				buf.WriteRune(c)
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			default:
				return Expression{}, fmt.Errorf("%w: invalid escape \\%c in %q", types.ErrPatchSyntax, c, text)
			}
			escaping = false
			continue
		}
		switch c {
		case '\\':
			escaping = true
		case '[':
			if inReference {
				return Expression{}, fmt.Errorf("%w: nested opening bracket in %q", types.ErrPatchSyntax, text)
			}
			if buf.Len() > 0 {
				segments = append(segments, Literal{Text: buf.String()})
				buf.Reset()
			}
			inReference = true
		case ']':
			if !inReference {
				return Expression{}, fmt.Errorf("%w: closing bracket without opening bracket in %q", types.ErrPatchSyntax, text)
			}
			ref, err := parseReference(buf.String())
			if err != nil {
				return Expression{}, err
			}
			segments = append(segments, ref)
			buf.Reset()
			inReference = false
		default:
			buf.WriteRune(c)
		}
	}
	if escaping {
		return Expression{}, fmt.Errorf("%w: dangling backslash in %q", types.ErrPatchSyntax, text)
	}
	if inReference {
		return Expression{}, fmt.Errorf("%w: unterminated reference in %q", types.ErrPatchSyntax, text)
	}
	if buf.Len() > 0 {
		segments = append(segments, Literal{Text: buf.String()})
	}
	return Expression{Segments: segments}, nil
}

func parseReference(body string) (Reference, error) {
	parts := strings.Split(body, ":")
	switch len(parts) {
	case 1:
		return Reference{Path: parts[0], Capture: Capture{Kind: CaptureWhole}}, nil
	case 2:
		if index, err := strconv.Atoi(parts[1]); err == nil && index >= 0 {
			return Reference{Path: parts[0], Capture: Capture{Kind: CaptureIndex, Index: index}}, nil
		}
		return Reference{Path: parts[0], Capture: Capture{Kind: CaptureName, Name: parts[1]}}, nil
	default:
		return Reference{}, fmt.Errorf("%w: a reference holds a path and at most one capture, got %q", types.ErrPatchSyntax, body)
	}
}

// String renders the expression back to its source form. Characters with
// a required escape (backslash, brackets, newline, carriage return, tab)
// are re-escaped, so parsing the result yields the same expression.
func (e Expression) String() string {
	var sb strings.Builder
	for _, s := range e.Segments {
		s.render(&sb)
	}
	return sb.String()
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`, "[", `\[`, "]", `\]`, "\n", `\n`, "\r", `\r`, "\t", `\t`,
)

func (l Literal) render(sb *strings.Builder) {
	sb.WriteString(literalEscaper.Replace(l.Text))
}

func (r Reference) render(sb *strings.Builder) {
	sb.WriteByte('[')
	sb.WriteString(literalEscaper.Replace(r.Path))
	switch r.Capture.Kind {
	case CaptureIndex:
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(r.Capture.Index))
	case CaptureName:
		sb.WriteByte(':')
		sb.WriteString(r.Capture.Name)
	}
	sb.WriteByte(']')
}

// Evaluate resolves the expression against node. Each reference walks its
// path from node (".." to the parent, "." staying put, a name to the
// unique child of that name — never auto-created here) and reads the
// chosen capture of the resolved element's stashed selector regex applied
// to its name.
func (e Expression) Evaluate(node *xmltree.Node) (string, error) {
	var sb strings.Builder
	for _, segment := range e.Segments {
		switch s := segment.(type) {
		case Literal:
			sb.WriteString(s.Text)
		case Reference:
			resolved, err := node.ResolvePath(strings.Split(s.Path, "/"), false)
			if err != nil {
				return "", err
			}
			re := resolved.Regex()
			name, isElement := resolved.Name()
			if re == nil || !isElement {
				return "", fmt.Errorf("%w: no selector match to reference at %q", types.ErrPath, s.Path)
			}
			for _, match := range re.FindAllStringSubmatch(name, -1) {
				switch s.Capture.Kind {
				case CaptureWhole:
					sb.WriteString(name)
				case CaptureIndex:
					if s.Capture.Index >= len(match) {
						return "", fmt.Errorf("%w: pattern %q has no group %d", types.ErrPath, re.String(), s.Capture.Index)
					}
					sb.WriteString(match[s.Capture.Index])
				case CaptureName:
					i := re.SubexpIndex(s.Capture.Name)
					if i < 0 {
						return "", fmt.Errorf("%w: pattern %q has no group %q", types.ErrPath, re.String(), s.Capture.Name)
					}
					sb.WriteString(match[i])
				}
			}
		}
	}
	return sb.String(), nil
}
