package expression

import (
	"fmt"
	"strings"
)

// call is a "Name(args)" or "Object.Name(args)" fragment
type call struct {
	object string
	name   string
	args   []string
	end    int
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func readIdent(s string, i int) int {
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return i
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// readNumber reads a decimal literal with an optional exponent
func readNumber(s string, i int) int {
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			i = j
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}
	return i
}

// skipString returns the index just past the string literal opening at i,
// or -1 if it is not terminated
func skipString(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return -1
}

// matchParen returns the index of the parenthesis closing the one at open, or -1
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			end := skipString(s, i)
			if end < 0 {
				return -1
			}
			i = end - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep where sep is neither nested in parentheses
// nor inside a string literal
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			end := skipString(s, i)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated string literal", ErrSyntax)
			}
			i = end - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parenthesis", ErrSyntax)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parenthesis", ErrSyntax)
	}
	return append(parts, s[start:]), nil
}

// parseCall parses the identifier starting at i. ok is false for a bare
// identifier, in which case only c.name and c.end are set.
func parseCall(s string, i int) (c call, ok bool, err error) {
	j := readIdent(s, i)
	c = call{name: s[i:j], end: j}

	k := skipSpaces(s, j)
	if k < len(s) && s[k] == '.' {
		m := skipSpaces(s, k+1)
		if m >= len(s) || !isIdentStart(s[m]) {
			return c, false, fmt.Errorf("%w: expected member name after %q", ErrSyntax, c.name)
		}
		n := readIdent(s, m)
		c = call{object: c.name, name: s[m:n], end: n}
		k = skipSpaces(s, n)
		if k >= len(s) || s[k] != '(' {
			return c, false, fmt.Errorf("%w: expected '(' after %s.%s", ErrSyntax, c.object, c.name)
		}
	}
	if k >= len(s) || s[k] != '(' {
		return c, false, nil
	}

	closing := matchParen(s, k)
	if closing < 0 {
		return c, false, fmt.Errorf("%w: unbalanced parenthesis in call to %s", ErrSyntax, c.name)
	}
	inner := s[k+1 : closing]
	if strings.TrimSpace(inner) != "" {
		args, err := splitTopLevel(inner, ',')
		if err != nil {
			return c, false, err
		}
		for _, arg := range args {
			c.args = append(c.args, strings.TrimSpace(arg))
		}
	}
	c.end = closing + 1
	return c, true, nil
}

// unquote decodes a string literal written with '\"' and '\\' escapes
func unquote(lit string) string {
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
