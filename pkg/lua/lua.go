// Package lua evaluates Lua data documents, such as the scenario descriptors
// shipped inside map archives. It is intentionally not a Lua runtime: only
// literals, string concatenation, and table constructors are understood, so an
// untrusted descriptor can never execute anything. The result is an immutable
// value tree exposed through typed accessors.
package lua

import (
	"fmt"
	"os"
	"strconv"
)

type kind int

const (
	kindNil kind = iota
	kindBool
	kindNumber
	kindString
	kindTable
)

// Value is a single evaluated Lua value. The zero Value is nil.
type Value struct {
	kind  kind
	b     bool
	n     float64
	s     string
	table *table
}

type table struct {
	fields map[string]Value
	items  []Value
}

// ParseFile evaluates a Lua data document from disk. The file is treated as a
// byte sequence; no charset conversion is applied.
func ParseFile(path string) (Value, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Value{}, err
	}

	return Parse(raw)
}

// Parse evaluates a Lua data document. Top-level assignments become fields of
// the returned table value.
func Parse(src []byte) (Value, error) {
	p := &parser{lexer: newLexer(src)}
	root := newTable()

	for {
		tok, err := p.lexer.next()
		if err != nil {
			return Value{}, err
		}
		if tok.typ == tokenEOF {
			break
		}
		if tok.typ != tokenIdent {
			return Value{}, fmt.Errorf("line %d: expected identifier, got %q", tok.line, tok.text)
		}

		if err := p.expect(tokenAssign); err != nil {
			return Value{}, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}

		root.fields[tok.text] = value
	}

	return Value{kind: kindTable, table: root}, nil
}

func newTable() *table {
	return &table{fields: map[string]Value{}}
}

// Field returns the named field of a table value. Accessing a field of a
// non-table or a missing field yields a nil Value, so lookups can be chained.
func (v Value) Field(name string) Value {
	if v.kind != kindTable {
		return Value{}
	}

	return v.table.fields[name]
}

// Index returns the i-th positional item of a table value, counting from 1 as
// Lua does.
func (v Value) Index(i int) Value {
	if v.kind != kindTable || i < 1 || i > len(v.table.items) {
		return Value{}
	}

	return v.table.items[i-1]
}

func (v Value) IsNil() bool {
	return v.kind == kindNil
}

func (v Value) AsString() (string, error) {
	if v.kind != kindString {
		return "", fmt.Errorf("value is not a string")
	}

	return v.s, nil
}

// AsInt converts a number value to an integer, truncating any fraction.
// Numeric strings are coerced the same way Lua does.
func (v Value) AsInt() (int, error) {
	switch v.kind {
	case kindNumber:
		return int(v.n), nil
	case kindString:
		n, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v.s)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("value is not a number")
	}
}

// Len returns the number of positional items of a table value.
func (v Value) Len() (int, error) {
	if v.kind != kindTable {
		return 0, fmt.Errorf("value is not a table")
	}

	return len(v.table.items), nil
}

type parser struct {
	lexer *lexer
}

func (p *parser) expect(typ tokenType) error {
	tok, err := p.lexer.next()
	if err != nil {
		return err
	}
	if tok.typ != typ {
		return fmt.Errorf("line %d: unexpected token %q", tok.line, tok.text)
	}

	return nil
}

// parseExpr evaluates a primary value followed by any number of ".."
// concatenations. Concatenation is the only operator the evaluator accepts.
func (p *parser) parseExpr() (Value, error) {
	value, err := p.parsePrimary()
	if err != nil {
		return Value{}, err
	}

	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.typ != tokenConcat {
			return value, nil
		}
		p.lexer.discard()

		right, err := p.parsePrimary()
		if err != nil {
			return Value{}, err
		}

		left, err := coerceString(value)
		if err != nil {
			return Value{}, fmt.Errorf("line %d: %v", tok.line, err)
		}
		rightStr, err := coerceString(right)
		if err != nil {
			return Value{}, fmt.Errorf("line %d: %v", tok.line, err)
		}

		value = Value{kind: kindString, s: left + rightStr}
	}
}

func coerceString(v Value) (string, error) {
	switch v.kind {
	case kindString:
		return v.s, nil
	case kindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot concatenate non-string value")
	}
}

func (p *parser) parsePrimary() (Value, error) {
	tok, err := p.lexer.next()
	if err != nil {
		return Value{}, err
	}

	switch tok.typ {
	case tokenString:
		return Value{kind: kindString, s: tok.text}, nil
	case tokenNumber:
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("line %d: invalid number %q", tok.line, tok.text)
		}
		return Value{kind: kindNumber, n: n}, nil
	case tokenMinus:
		value, err := p.parsePrimary()
		if err != nil {
			return Value{}, err
		}
		if value.kind != kindNumber {
			return Value{}, fmt.Errorf("line %d: unary minus on non-number", tok.line)
		}
		return Value{kind: kindNumber, n: -value.n}, nil
	case tokenIdent:
		switch tok.text {
		case "true":
			return Value{kind: kindBool, b: true}, nil
		case "false":
			return Value{kind: kindBool, b: false}, nil
		case "nil":
			return Value{}, nil
		}
		return Value{}, fmt.Errorf("line %d: identifier %q is not a literal", tok.line, tok.text)
	case tokenOpenBrace:
		return p.parseTable(tok.line)
	default:
		return Value{}, fmt.Errorf("line %d: unexpected token %q", tok.line, tok.text)
	}
}

func (p *parser) parseTable(line int) (Value, error) {
	t := newTable()

	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return Value{}, err
		}

		switch tok.typ {
		case tokenEOF:
			return Value{}, fmt.Errorf("line %d: unterminated table constructor", line)

		case tokenCloseBrace:
			p.lexer.discard()
			return Value{kind: kindTable, table: t}, nil

		case tokenComma, tokenSemicolon:
			p.lexer.discard()

		case tokenIdent:
			// Either a named field "key = value" or a bare literal item
			// (true/false/nil). Decide by looking at the token after it.
			ident := tok
			p.lexer.discard()
			after, err := p.lexer.peek()
			if err != nil {
				return Value{}, err
			}
			if after.typ == tokenAssign {
				p.lexer.discard()
				value, err := p.parseExpr()
				if err != nil {
					return Value{}, err
				}
				t.fields[ident.text] = value
				continue
			}
			switch ident.text {
			case "true":
				t.items = append(t.items, Value{kind: kindBool, b: true})
			case "false":
				t.items = append(t.items, Value{kind: kindBool, b: false})
			case "nil":
				t.items = append(t.items, Value{})
			default:
				return Value{}, fmt.Errorf("line %d: identifier %q is not a literal", ident.line, ident.text)
			}

		case tokenOpenBracket:
			p.lexer.discard()
			key, err := p.parseExpr()
			if err != nil {
				return Value{}, err
			}
			if err := p.expect(tokenCloseBracket); err != nil {
				return Value{}, err
			}
			if err := p.expect(tokenAssign); err != nil {
				return Value{}, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return Value{}, err
			}
			switch key.kind {
			case kindString:
				t.fields[key.s] = value
			case kindNumber:
				// Bracketed integer keys append in order; scenario files
				// only use them as consecutive list indices.
				t.items = append(t.items, value)
			default:
				return Value{}, fmt.Errorf("line %d: unsupported table key", tok.line)
			}

		default:
			value, err := p.parseExpr()
			if err != nil {
				return Value{}, err
			}
			t.items = append(t.items, value)
		}
	}
}
