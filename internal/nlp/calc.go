package nlp

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoExpression   = errors.New("no arithmetic expression found")
	ErrDivisionByZero = errors.New("division by zero")
	ErrBadExpression  = errors.New("malformed expression")
)

var expressionPattern = regexp.MustCompile(`[-+*/().\d\s]*\d[-+*/().\d\s]*`)

// Evaluate finds the arithmetic expression in text and computes it with the
// usual precedence. Supported: + - * / parentheses and unary minus.
func Evaluate(text string) (float64, string, error) {
	lower := strings.ToLower(text)
	lower = strings.NewReplacer(" x ", " * ", "×", "*", "÷", "/", " plus ", " + ", " minus ", " - ",
		" times ", " * ", " divided by ", " / ").Replace(lower)

	var expr string
	for _, m := range expressionPattern.FindAllString(lower, -1) {
		if m = strings.TrimSpace(m); strings.ContainsAny(strings.TrimLeft(m, "-"), "+-*/") {
			expr = m
			break
		}
		if expr == "" {
			expr = m
		}
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, "", ErrNoExpression
	}

	p := &exprParser{src: strings.ReplaceAll(expr, " ", "")}
	v, err := p.sum()
	if err != nil {
		return 0, expr, err
	}
	if p.pos != len(p.src) {
		return 0, expr, ErrBadExpression
	}
	return v, expr, nil
}

// FormatNumber renders integral results without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) sum() (float64, error) {
	v, err := p.product()
	if err != nil {
		return 0, err
	}
	for op := p.peek(); op == '+' || op == '-'; op = p.peek() {
		p.pos++
		r, err := p.product()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += r
		} else {
			v -= r
		}
	}
	return v, nil
}

func (p *exprParser) product() (float64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for op := p.peek(); op == '*' || op == '/'; op = p.peek() {
		p.pos++
		r, err := p.factor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= r
			continue
		}
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		v /= r
	}
	return v, nil
}

func (p *exprParser) factor() (float64, error) {
	switch c := p.peek(); {
	case c == '-':
		p.pos++
		v, err := p.factor()
		return -v, err
	case c == '(':
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, ErrBadExpression
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for c := p.peek(); c >= '0' && c <= '9' || c == '.'; c = p.peek() {
			p.pos++
		}
		return strconv.ParseFloat(p.src[start:p.pos], 64)
	default:
		return 0, ErrBadExpression
	}
}
