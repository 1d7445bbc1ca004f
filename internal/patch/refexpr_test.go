package patch

import (
	"reflect"
	"testing"
)

func TestParseExpressionSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "literals and references",
			input: "hello[world]lovely[myra]end",
			want: []Segment{
				Literal{Text: "hello"},
				Reference{Path: "world", Capture: Capture{Kind: CaptureWhole}},
				Literal{Text: "lovely"},
				Reference{Path: "myra", Capture: Capture{Kind: CaptureWhole}},
				Literal{Text: "end"},
			},
		},
		{
			name:  "escaped brackets stay literal",
			input: `hello[world]lovely\[myra\]end`,
			want: []Segment{
				Literal{Text: "hello"},
				Reference{Path: "world", Capture: Capture{Kind: CaptureWhole}},
				Literal{Text: "lovely[myra]end"},
			},
		},
		{
			name:  "escape alphabet",
			input: `hello[\[\]\n\r\t\\\'\"]world\[\]\n\r\t\\\'\"`,
			want: []Segment{
				Literal{Text: "hello"},
				Reference{Path: "[]\n\r\t\\'\"", Capture: Capture{Kind: CaptureWhole}},
				Literal{Text: "world[]\n\r\t\\'\""},
			},
		},
		{
			name:  "numbered capture",
			input: "[../x:2]",
			want: []Segment{
				Reference{Path: "../x", Capture: Capture{Kind: CaptureIndex, Index: 2}},
			},
		},
		{
			name:  "named capture",
			input: "[.:group]",
			want: []Segment{
				Reference{Path: ".", Capture: Capture{Kind: CaptureName, Name: "group"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("ParseExpression(%q) failed: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got.Segments, tt.want) {
				t.Errorf("ParseExpression(%q) = %#v, want %#v", tt.input, got.Segments, tt.want)
			}
		})
	}
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid escape", input: `foo\qbar`},
		{name: "dangling backslash", input: `foo\`},
		{name: "unmatched closing bracket", input: "foo]bar"},
		{name: "unterminated reference", input: "foo[bar"},
		{name: "nested opening bracket", input: "foo[[bar]"},
		{name: "reference with two captures", input: "[a:b:c]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseExpression(tt.input); err == nil {
				t.Errorf("ParseExpression(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestExpressionRoundTrip(t *testing.T) {
	inputs := []string{
		"hello[world]lovely[myra]end",
		"plain text without references",
		"[.]",
		"[.:0]",
		"[../a/b:name]",
		`escaped \[ and \] and \\ survive`,
		"",
	}
	for _, input := range inputs {
		expr, err := ParseExpression(input)
		if err != nil {
			t.Fatalf("ParseExpression(%q) failed: %v", input, err)
		}
		if got := expr.String(); got != input {
			t.Errorf("render(parse(%q)) = %q", input, got)
		}
		again, err := ParseExpression(expr.String())
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", expr.String(), err)
		}
		if !reflect.DeepEqual(expr, again) {
			t.Errorf("parse(render(x)) differs for %q", input)
		}
	}
}

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		input string
		mode  Mode
		expr  string
	}{
		{input: "pattern", mode: ModeModify, expr: "pattern"},
		{input: "+pattern", mode: ModeAdd, expr: "pattern"},
		{input: "~pattern", mode: ModeReplace, expr: "pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIdentifier(tt.input)
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) failed: %v", tt.input, err)
			}
			if got.Mode != tt.mode {
				t.Errorf("mode = %v, want %v", got.Mode, tt.mode)
			}
			if got.Expr.String() != tt.expr {
				t.Errorf("expr = %q, want %q", got.Expr.String(), tt.expr)
			}
		})
	}
}
