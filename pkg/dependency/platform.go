package dependency

import (
	"fmt"
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
)

// Platform is the filter of a [target.<platform>] table: either a target
// triple such as `x86_64-unknown-linux-gnu` or a `cfg(...)` expression.
type Platform struct {
	Name string   // Target triple, empty for cfg expressions
	Cfg  *CfgExpr // Parsed cfg expression, nil for triples
}

// ParsePlatform parses a platform key.
func ParsePlatform(s string) (*Platform, error) {
	if strings.HasPrefix(s, "cfg(") && strings.HasSuffix(s, ")") {
		expr, err := ParseCfg(s[len("cfg(") : len(s)-1])
		if err != nil {
			return nil, errors.Context(err, "failed to parse `%s` as a cfg expression", s)
		}
		return &Platform{Cfg: expr}, nil
	}
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target name cannot be empty")
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"unexpected `%c` character in target name `%s`", r, s)
		}
	}
	return &Platform{Name: s}, nil
}

// String returns the platform key as written in canonical form.
func (p *Platform) String() string {
	if p.Cfg != nil {
		return "cfg(" + p.Cfg.String() + ")"
	}
	return p.Name
}

// MarshalText renders the platform for JSON and YAML encoders.
func (p *Platform) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// CheckCfgAttributes warns about cfg keys that cannot select dependencies.
func (p *Platform) CheckCfgAttributes(warnings *[]string) {
	if p.Cfg != nil {
		p.Cfg.walk(func(e *CfgExpr) {
			switch {
			case e.Value == nil && (e.Name == "test" || e.Name == "debug_assertions" || e.Name == "proc_macro"):
				*warnings = append(*warnings, fmt.Sprintf(
					"Found `%s` in `target.'cfg(...)'.dependencies`. This value is not supported "+
						"for selecting dependencies and will not work as expected.", e.Name))
			case e.Value != nil && e.Name == "feature":
				*warnings = append(*warnings, fmt.Sprintf(
					"Found `%s` in `target.'cfg(...)'.dependencies`. This key is not supported "+
						"for selecting dependencies and will not work as expected. "+
						"Use the [features] section instead.", e.Name))
			}
		})
	}
}

// CfgOp is the operator of a cfg expression node.
type CfgOp int

const (
	CfgValue CfgOp = iota // `name` or `name = "value"`
	CfgNot
	CfgAll
	CfgAny
)

// CfgExpr is a node of a cfg expression tree.
type CfgExpr struct {
	Op    CfgOp
	Name  string     // For CfgValue
	Value *string    // For CfgValue key pairs
	Args  []*CfgExpr // For CfgNot (one), CfgAll and CfgAny
}

// String renders the expression.
func (e *CfgExpr) String() string {
	switch e.Op {
	case CfgNot:
		return "not(" + e.Args[0].String() + ")"
	case CfgAll, CfgAny:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		op := "all"
		if e.Op == CfgAny {
			op = "any"
		}
		return op + "(" + strings.Join(parts, ", ") + ")"
	default:
		if e.Value != nil {
			return fmt.Sprintf("%s = %q", e.Name, *e.Value)
		}
		return e.Name
	}
}

func (e *CfgExpr) walk(fn func(*CfgExpr)) {
	if e.Op == CfgValue {
		fn(e)
		return
	}
	for _, a := range e.Args {
		a.walk(fn)
	}
}

// ParseCfg parses the inside of a `cfg(...)` expression.
func ParseCfg(s string) (*CfgExpr, error) {
	p := &cfgParser{src: s}
	p.next()
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected content `%s` found after cfg expression", p.src[p.tok.pos:])
	}
	return expr, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokError
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type cfgParser struct {
	src string
	pos int
	tok token
}

func (p *cfgParser) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}

func (p *cfgParser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	case c == '=':
		p.pos++
		p.tok = token{kind: tokEquals, text: "=", pos: start}
	case c == '"':
		end := strings.IndexByte(p.src[p.pos+1:], '"')
		if end < 0 {
			p.tok = token{kind: tokError, text: "unterminated string", pos: start}
			p.pos = len(p.src)
			return
		}
		p.tok = token{kind: tokString, text: p.src[p.pos+1 : p.pos+1+end], pos: start}
		p.pos += end + 2
	case isIdentStart(c):
		for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokError, text: fmt.Sprintf("unexpected character `%c`", c), pos: start}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (p *cfgParser) unexpected(what string) error {
	switch p.tok.kind {
	case tokEOF:
		return p.errorf("expected %s, but cfg expression ended", what)
	case tokError:
		return p.errorf("%s", p.tok.text)
	default:
		return p.errorf("expected %s, found `%s`", what, p.tok.text)
	}
}

func (p *cfgParser) expr() (*CfgExpr, error) {
	if p.tok.kind != tokIdent {
		return nil, p.unexpected("identifier")
	}
	name := p.tok.text
	p.next()

	switch {
	case p.tok.kind == tokLParen && (name == "all" || name == "any" || name == "not"):
		p.next()
		var args []*CfgExpr
		for p.tok.kind != tokRParen {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			if p.tok.kind != tokRParen {
				return nil, p.unexpected("`,` or `)`")
			}
		}
		p.next()
		switch name {
		case "not":
			if len(args) != 1 {
				return nil, p.errorf("expected exactly one argument to `not`")
			}
			return &CfgExpr{Op: CfgNot, Args: args}, nil
		case "all":
			return &CfgExpr{Op: CfgAll, Args: args}, nil
		default:
			return &CfgExpr{Op: CfgAny, Args: args}, nil
		}
	case p.tok.kind == tokEquals:
		p.next()
		if p.tok.kind != tokString {
			return nil, p.unexpected("a string")
		}
		value := p.tok.text
		p.next()
		return &CfgExpr{Op: CfgValue, Name: name, Value: &value}, nil
	default:
		return &CfgExpr{Op: CfgValue, Name: name}, nil
	}
}
