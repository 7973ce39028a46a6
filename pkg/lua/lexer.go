package lua

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenAssign
	tokenConcat
	tokenMinus
	tokenOpenBrace
	tokenCloseBrace
	tokenOpenBracket
	tokenCloseBracket
	tokenComma
	tokenSemicolon
)

type token struct {
	typ  tokenType
	text string
	line int
}

type lexer struct {
	src    []byte
	pos    int
	line   int
	peeked *token
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		tok, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &tok
	}

	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}

	return l.scan()
}

func (l *lexer) discard() {
	l.peeked = nil
}

func (l *lexer) scan() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{typ: tokenEOF, line: l.line}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '=':
		l.pos++
		return token{typ: tokenAssign, text: "=", line: l.line}, nil
	case c == '{':
		l.pos++
		return token{typ: tokenOpenBrace, text: "{", line: l.line}, nil
	case c == '}':
		l.pos++
		return token{typ: tokenCloseBrace, text: "}", line: l.line}, nil
	case c == ']':
		l.pos++
		return token{typ: tokenCloseBracket, text: "]", line: l.line}, nil
	case c == ',':
		l.pos++
		return token{typ: tokenComma, text: ",", line: l.line}, nil
	case c == ';':
		l.pos++
		return token{typ: tokenSemicolon, text: ";", line: l.line}, nil
	case c == '-':
		l.pos++
		return token{typ: tokenMinus, text: "-", line: l.line}, nil
	case c == '[':
		if l.lookahead(1) == '[' {
			return l.scanLongString()
		}
		l.pos++
		return token{typ: tokenOpenBracket, text: "[", line: l.line}, nil
	case c == '.':
		if l.lookahead(1) == '.' {
			l.pos += 2
			return token{typ: tokenConcat, text: "..", line: l.line}, nil
		}
		return l.scanNumber()
	case c == '\'' || c == '"':
		return l.scanString(c)
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case isIdentStart(c):
		return l.scanIdent()
	default:
		return token{}, fmt.Errorf("line %d: unexpected character %q", l.line, string(c))
	}
}

func (l *lexer) lookahead(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}

	return l.src[l.pos+n]
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '-' && l.lookahead(1) == '-':
			l.pos += 2
			if l.pos < len(l.src) && l.src[l.pos] == '[' && l.lookahead(1) == '[' {
				l.skipUntil("]]")
			} else {
				l.skipUntil("\n")
			}
		default:
			return
		}
	}
}

func (l *lexer) skipUntil(end string) {
	idx := strings.Index(string(l.src[l.pos:]), end)
	if idx < 0 {
		l.pos = len(l.src)
		return
	}

	l.line += strings.Count(string(l.src[l.pos:l.pos+idx]), "\n")
	l.pos += idx + len(end)
}

func (l *lexer) scanString(quote byte) (token, error) {
	line := l.line
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{typ: tokenString, text: sb.String(), line: line}, nil
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return token{}, fmt.Errorf("line %d: unterminated string", line)
			}
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(l.src[l.pos])
			}
			l.pos++
		case '\n':
			return token{}, fmt.Errorf("line %d: unterminated string", line)
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}

	return token{}, fmt.Errorf("line %d: unterminated string", line)
}

func (l *lexer) scanLongString() (token, error) {
	line := l.line
	l.pos += 2

	idx := strings.Index(string(l.src[l.pos:]), "]]")
	if idx < 0 {
		return token{}, fmt.Errorf("line %d: unterminated long string", line)
	}

	text := string(l.src[l.pos : l.pos+idx])
	l.line += strings.Count(text, "\n")
	l.pos += idx + 2

	return token{typ: tokenString, text: text, line: line}, nil
}

func (l *lexer) scanNumber() (token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E')) {
			l.pos++
			continue
		}
		break
	}

	return token{typ: tokenNumber, text: string(l.src[start:l.pos]), line: line}, nil
}

func (l *lexer) scanIdent() (token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	return token{typ: tokenIdent, text: string(l.src[start:l.pos]), line: line}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
