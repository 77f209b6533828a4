package catalog

import (
	"fmt"
	"strings"
)

// FormatListLiteral renders values the way the analyzed catalog files have
// always stored list cells: a bracketed, comma separated list of quoted
// strings, e.g. ['algebra', 'equations']. Each value is single quoted unless
// it contains a single quote and no double quote.
func FormatListLiteral(values []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(&b, v)
	}
	b.WriteByte(']')
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
}

// ParseListLiteral is the inverse of FormatListLiteral. It accepts either
// quote style per element and an empty cell as an empty list.
func ParseListLiteral(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("catalog: not a list literal: %q", s)
	}

	p := &literalParser{src: []rune(s[1 : len(s)-1])}
	out := []string{}
	p.skipSpace()
	if p.done() {
		return out, nil
	}

	for {
		v, err := p.quoted()
		if err != nil {
			return nil, fmt.Errorf("catalog: list literal %q: %w", s, err)
		}
		out = append(out, v)

		p.skipSpace()
		if p.done() {
			return out, nil
		}
		if p.src[p.pos] != ',' {
			return nil, fmt.Errorf("catalog: list literal %q: expected ',' at %d", s, p.pos+1)
		}
		p.pos++
		p.skipSpace()
		if p.done() {
			// trailing comma
			return out, nil
		}
	}
}

type literalParser struct {
	src []rune
	pos int
}

func (p *literalParser) done() bool { return p.pos >= len(p.src) }

func (p *literalParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) quoted() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end")
	}
	q := p.src[p.pos]
	if q != '\'' && q != '"' {
		return "", fmt.Errorf("expected quote at %d", p.pos+1)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		r := p.src[p.pos]
		p.pos++
		switch r {
		case q:
			return b.String(), nil
		case '\\':
			if p.done() {
				return "", fmt.Errorf("dangling escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteRune('\n')
			case 'r':
				b.WriteRune('\r')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated string")
}
