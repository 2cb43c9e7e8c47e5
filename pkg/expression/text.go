package expression

import (
	"fmt"
	"strings"
)

// textPart is either a literal or a text instruction
type textPart struct {
	literal string
	in      *Instruction
}

// TextExpression is a preprocessed text expression: literal and dynamic
// fragments in authored order
type TextExpression struct {
	parts []textPart
}

// Instructions returns the dynamic fragments in authored order
func (t *TextExpression) Instructions() []*Instruction {
	var out []*Instruction
	for _, p := range t.parts {
		if p.in != nil {
			out = append(out, p.in)
		}
	}
	return out
}

// Eval concatenates the fragments
func (t *TextExpression) Eval(scene Scene, objects ObjectsConcerned, obj1, obj2 Object) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.in != nil {
			b.WriteString(p.in.Text(scene, objects, obj1, obj2))
			continue
		}
		b.WriteString(p.literal)
	}
	return b.String()
}

// compileText parses segments joined by '+', each one a string literal or a
// call to a text function
func compileText(scene Scene, s string) (*TextExpression, error) {
	segments, err := splitTopLevel(s, '+')
	if err != nil {
		return nil, err
	}

	plan := &TextExpression{}
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		switch {
		case seg == "":
			return nil, fmt.Errorf("%w: empty text segment", ErrSyntax)
		case seg[0] == '"':
			if skipString(seg, 0) != len(seg) {
				return nil, fmt.Errorf("%w: malformed string literal %s", ErrSyntax, seg)
			}
			plan.parts = append(plan.parts, textPart{literal: unquote(seg)})
		case isIdentStart(seg[0]):
			cl, ok, err := parseCall(seg, 0)
			if err != nil {
				return nil, err
			}
			if !ok || cl.end != len(seg) {
				return nil, fmt.Errorf("%w: unexpected text segment %q", ErrSyntax, seg)
			}
			in, err := resolveInstruction(scene, cl, true)
			if err != nil {
				return nil, err
			}
			plan.parts = append(plan.parts, textPart{in: in})
		default:
			return nil, fmt.Errorf("%w: unexpected text segment %q", ErrSyntax, seg)
		}
	}
	return plan, nil
}
