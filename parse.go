package calcrules

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// Parse converts text into an expression tree bound to varName (empty
// means DefaultVar). The syntax is conventional infix math: '^' (or
// '**') is power, multiplication may be implicit ("3x", "2(x+1)",
// "x sin(x)"), '/' builds an exact reciprocal, decimals parse as exact
// rationals, and any identifier followed by '(' is a function
// application ("log" is an alias for "ln", "sqrt(u)" is u^(1/2)).
//
// The returned tree is raw: Parse never simplifies, so 2^(3*x) comes
// back exactly as written. Callers that want the canonical form
// simplify explicitly.
func Parse(text, varName string) (Expr, error) {
	if varName == "" {
		varName = DefaultVar
	}
	toks, err := lexExpr(text)
	if err != nil {
		return nil, &InvalidExpressionError{Text: text, Var: varName, Err: err}
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err == nil && p.cur().kind != tokEOF {
		err = fmt.Errorf("unexpected %s", describeToken(p.cur()))
	}
	if err != nil {
		return nil, &InvalidExpressionError{Text: text, Var: varName, Err: err}
	}
	return e, nil
}

// MustParse is Parse for tests and examples; it panics on bad input.
func MustParse(text, varName string) Expr {
	e, err := Parse(text, varName)
	if err != nil {
		panic(err)
	}
	return e
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func describeToken(t token) string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q at offset %d", t.text, t.pos)
}

func lexExpr(text string) ([]token, error) {
	runes := []rune(text)
	toks := []token{}
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("malformed number at offset %d", start)
					}
					seenDot = true
				}
				i++
			}
			num := string(runes[start:i])
			if num == "." {
				return nil, fmt.Errorf("malformed number at offset %d", start)
			}
			toks = append(toks, token{kind: tokNumber, text: num, pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case r == '*':
			// "**" is an alternate spelling of '^'.
			if i+1 < len(runes) && runes[i+1] == '*' {
				toks = append(toks, token{kind: tokCaret, text: "**", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokStar, text: "*", pos: i})
				i++
			}
		case r == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case r == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case r == '^':
			toks = append(toks, token{kind: tokCaret, text: "^", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", string(r), i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) parseExpr() (Expr, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.cur().kind == tokPlus || p.cur().kind == tokMinus {
		neg := p.cur().kind == tokMinus
		p.pos++
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if neg {
			t = &Mul{factors: []Expr{N(-1), t}}
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &Add{terms: terms}, nil
}

func (p *parser) parseTerm() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{first}
	for {
		switch p.cur().kind {
		case tokStar:
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case tokSlash:
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, &Pow{base: f, exp: N(-1)})
		case tokNumber, tokIdent, tokLParen:
			// Adjacency is implicit multiplication.
			f, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		default:
			if len(factors) == 1 {
				return first, nil
			}
			return &Mul{factors: factors}, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.cur().kind {
	case tokMinus:
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Mul{factors: []Expr{N(-1), inner}}, nil
	case tokPlus:
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokCaret {
		p.pos++
		// Right-associative; a leading '-' in the exponent is allowed.
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Pow{base: base, exp: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.cur()
	switch tok.kind {
	case tokNumber:
		p.pos++
		r := new(big.Rat)
		if _, ok := r.SetString(tok.text); !ok {
			return nil, fmt.Errorf("malformed number %q at offset %d", tok.text, tok.pos)
		}
		return &Num{val: r}, nil
	case tokIdent:
		p.pos++
		if p.cur().kind == tokLParen {
			p.pos++
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur().kind != tokRParen {
				return nil, fmt.Errorf("missing ')' after argument of %s", tok.text)
			}
			p.pos++
			return applyFuncName(tok.text, arg), nil
		}
		return S(tok.text), nil
	case tokLParen:
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("missing ')' at offset %d", p.cur().pos)
		}
		p.pos++
		return e, nil
	}
	return nil, fmt.Errorf("unexpected %s", describeToken(tok))
}

func applyFuncName(name string, arg Expr) Expr {
	switch strings.ToLower(name) {
	case "sqrt":
		return &Pow{base: arg, exp: F(1, 2)}
	case "log":
		return &Func{name: "ln", arg: arg}
	default:
		return &Func{name: strings.ToLower(name), arg: arg}
	}
}
