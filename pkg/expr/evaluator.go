package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-calculator/pkg/model"
)

// ConditionEvaluator is a small, dependency-free condition evaluator used by
// cross-field rules and rule guards.
//
// Supported operators:
// - boolean checks: `enabled`, `!enabled`
// - equality: `planType == "roth"`, `count != 3`, `missing == null`
// - ordering: `age >= 18`, `retirementAge > currentAge`
// - boolean composition: `a == true && b != false`, `a || b`, parentheses
//
// Values are read from Context.Values with dot-path traversal. A bare
// identifier on the right-hand side refers to another field when that field is
// present, otherwise it is read as a string literal. Ordering operators only
// hold when both sides cast to numbers. An absent or non-numeric value never
// equals a number literal, so `missing == 0` is false and `missing != 0` holds.
type ConditionEvaluator struct{}

// New returns the default evaluator.
func New() *ConditionEvaluator { return &ConditionEvaluator{} }

var _ Evaluator = (*ConditionEvaluator)(nil)

// Eval parses and evaluates rule. An empty rule always holds.
func (e *ConditionEvaluator) Eval(field, rule string, ctx Context) (bool, error) {
	node, err := parse(rule)
	if err != nil {
		if field != "" {
			return false, fmt.Errorf("%w (field %s)", err, field)
		}
		return false, err
	}
	if node == nil {
		return true, nil
	}
	return node.eval(ctx)
}

// Check reports syntax errors in rule without evaluating it.
func Check(rule string) error {
	_, err := parse(rule)
	return err
}

// Fields returns the distinct identifiers referenced by rule, in order of
// first appearance. Literal keywords are not included.
func Fields(rule string) ([]string, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, tok := range tokens {
		if tok.kind != tokenIdentifier {
			continue
		}
		if _, ok := seen[tok.raw]; ok {
			continue
		}
		seen[tok.raw] = struct{}{}
		out = append(out, tok.raw)
	}
	return out, nil
}

func parse(rule string) (exprNode, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return parseExpression(tokens)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			consume()
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '=':
			consume()
			if next() != '=' {
				return nil, fmt.Errorf("expr: unexpected '='; use '=='")
			}
			consume()
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '<':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
				continue
			}
			tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			continue
		case '>':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
				continue
			}
			tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("expr: unexpected '&'; use '&&'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("expr: unexpected '|'; use '||'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			quote := consume()
			start := i
			escaped := false
			closed := false
			for i < len(input) {
				c := consume()
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("expr: unterminated string literal")
			}
			body := input[start : i-1]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			continue
		}

		start := i
		for i < len(input) {
			c := input[i]
			if isDelimiter(c) {
				break
			}
			i++
		}
		raw := strings.TrimSpace(input[start:i])
		if raw == "" {
			return nil, fmt.Errorf("expr: unexpected character %q", string(ch))
		}
		switch strings.ToLower(raw) {
		case "true", "false":
			tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
		case "null", "nil":
			tokens = append(tokens, token{kind: tokenNull, raw: "null"})
		default:
			if looksLikeNumber(raw) {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			} else {
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
			}
		}
	}

	return tokens, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>', '"', '\'':
		return true
	default:
		return false
	}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type exprNode interface {
	eval(ctx Context) (bool, error)
}

type exprOr struct {
	left  exprNode
	right exprNode
}

func (n exprOr) eval(ctx Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return n.right.eval(ctx)
}

type exprAnd struct {
	left  exprNode
	right exprNode
}

func (n exprAnd) eval(ctx Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.right.eval(ctx)
}

type exprNot struct {
	inner exprNode
}

func (n exprNot) eval(ctx Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type operandKind int

const (
	operandString operandKind = iota
	operandNumber
	operandBool
	operandNull
	operandField
)

type operand struct {
	kind operandKind
	raw  string
}

type exprCompare struct {
	identifier string
	op         tokenKind
	right      operand
}

func (n exprCompare) eval(ctx Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		value = nil
	}

	right := n.right
	if right.kind == operandField {
		other, found := lookup(ctx, right.raw)
		if found {
			return compareValues(value, other, n.op), nil
		}
		right = operand{kind: operandString, raw: right.raw}
	}

	switch right.kind {
	case operandNull:
		isNull := value == nil
		switch n.op {
		case tokenEq:
			return isNull, nil
		case tokenNeq:
			return !isNull, nil
		}
		return false, fmt.Errorf("expr: unsupported operator %q for null literal", opString(n.op))
	case operandBool:
		want := right.raw == "true"
		got, _ := coerceBool(value)
		switch n.op {
		case tokenEq:
			return got == want, nil
		case tokenNeq:
			return got != want, nil
		}
		return false, fmt.Errorf("expr: unsupported operator %q for bool literal", opString(n.op))
	case operandNumber:
		want, err := strconv.ParseFloat(right.raw, 64)
		if err != nil {
			return false, fmt.Errorf("expr: invalid number literal %q", right.raw)
		}
		got, ok := coerceNumber(value)
		switch n.op {
		case tokenEq, tokenNeq:
			if !ok {
				return n.op == tokenNeq, nil
			}
			if n.op == tokenEq {
				return got == want, nil
			}
			return got != want, nil
		default:
			if !ok {
				return false, nil
			}
			return orderHolds(n.op, got, want), nil
		}
	case operandString:
		want := right.raw
		got := coerceString(value)
		switch n.op {
		case tokenEq:
			return got == want, nil
		case tokenNeq:
			return got != want, nil
		}
		return false, fmt.Errorf("expr: unsupported operator %q for string literal", opString(n.op))
	default:
		return false, fmt.Errorf("expr: unsupported operand")
	}
}

func compareValues(left, right any, op tokenKind) bool {
	lnum, lok := coerceNumber(left)
	rnum, rok := coerceNumber(right)
	switch op {
	case tokenEq, tokenNeq:
		var equal bool
		if lok && rok {
			equal = lnum == rnum
		} else {
			equal = coerceString(left) == coerceString(right)
		}
		if op == tokenEq {
			return equal
		}
		return !equal
	default:
		if !lok || !rok {
			return false
		}
		return orderHolds(op, lnum, rnum)
	}
}

func isOrdering(op tokenKind) bool {
	switch op {
	case tokenLt, tokenLte, tokenGt, tokenGte:
		return true
	default:
		return false
	}
}

func orderHolds(op tokenKind, got, want float64) bool {
	switch op {
	case tokenLt:
		return got < want
	case tokenLte:
		return got <= want
	case tokenGt:
		return got > want
	case tokenGte:
		return got >= want
	default:
		return false
	}
}

func opString(op tokenKind) string {
	switch op {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}

type exprTruthy struct {
	identifier string
}

func (n exprTruthy) eval(ctx Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("expr: empty expression")
		}
		return nil, fmt.Errorf("expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenLte, tokenLt, tokenGte, tokenGt} {
		if stream.match(op) {
			right, err := stream.consumeOperand()
			if err != nil {
				return nil, err
			}
			if isOrdering(op) && right.kind != operandNumber && right.kind != operandField {
				return nil, fmt.Errorf("expr: operator %q needs a number or field operand", opString(op))
			}
			return exprCompare{identifier: ident.raw, op: op, right: right}, nil
		}
	}

	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	if s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeOperand() (operand, error) {
	if s.pos >= len(s.tokens) {
		return operand{}, errors.New("expr: missing right-hand operand")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return operand{kind: operandString, raw: tok.raw}, nil
	case tokenNumber:
		if _, err := strconv.ParseFloat(tok.raw, 64); err != nil {
			return operand{}, fmt.Errorf("expr: invalid number literal %q", tok.raw)
		}
		return operand{kind: operandNumber, raw: tok.raw}, nil
	case tokenBool:
		return operand{kind: operandBool, raw: strings.ToLower(tok.raw)}, nil
	case tokenNull:
		return operand{kind: operandNull, raw: "null"}, nil
	case tokenIdentifier:
		return operand{kind: operandField, raw: tok.raw}, nil
	default:
		return operand{}, fmt.Errorf("expr: expected operand, got %q", tok.raw)
	}
}

func lookup(ctx Context, key string) (any, bool) {
	path := strings.TrimSpace(key)
	if path == "" || len(ctx.Values) == 0 {
		return nil, false
	}

	// Exact match first so flattened dotted ids ("budget.total") resolve.
	if v, ok := ctx.Values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = ctx.Values
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	return model.ToNumber(value)
}

func coerceString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
