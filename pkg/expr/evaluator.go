package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Package expr evaluates the small template expressions embedded in form
// descriptors. Grammar: bare dotted-path lookups (including array .length)
// and prefix function calls `(fn arg...)` with the built-ins eq, not, or,
// and, isEmpty and gte. Expressions are wrapped in `{{ }}`.
//
// Evaluation never panics and malformed input never escapes as a hard
// failure: Eval functions return a degraded value (false / empty string)
// alongside the error so callers can log and continue.

// IsExpression reports whether the string is a `{{ }}` wrapped template
// expression rather than a literal value.
func IsExpression(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}")
}

// EvalBool evaluates a template expression in boolean position. Undefined
// identifiers and malformed expressions degrade to false.
func EvalBool(raw string, ctx Context) (bool, error) {
	value, err := EvalValue(raw, ctx)
	if err != nil {
		return false, err
	}
	return truthy(value), nil
}

// EvalString evaluates a template expression in value position. Undefined
// identifiers and malformed expressions degrade to the empty string.
func EvalString(raw string, ctx Context) (string, error) {
	value, err := EvalValue(raw, ctx)
	if err != nil {
		return "", err
	}
	return renderString(value), nil
}

// EvalValue evaluates a template expression and returns the raw result.
func EvalValue(raw string, ctx Context) (any, error) {
	inner, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	node, err := parse(inner)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return node.eval(ctx)
}

// Interpolate replaces every `{{ }}` occurrence inside a template string with
// its rendered value. Failed segments render empty; the first error is
// reported so the caller can log it.
func Interpolate(template string, ctx Context) (string, error) {
	if !strings.Contains(template, "{{") {
		return template, nil
	}

	var out strings.Builder
	var firstErr error
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			if firstErr == nil {
				firstErr = errors.New("expr: unterminated expression")
			}
			break
		}
		segment := rest[start : start+end+2]
		rendered, err := EvalString(segment, ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out.WriteString(rendered)
		rest = rest[start+end+2:]
	}
	return out.String(), firstErr
}

func unwrap(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") && len(trimmed) >= 4 {
		return strings.TrimSpace(trimmed[2 : len(trimmed)-2]), nil
	}
	return trimmed, nil
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
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
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '"' || ch == '\'':
			quote := ch
			i++
			start := i
			escaped := false
			for i < len(input) {
				c := input[i]
				i++
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					raw := `"` + input[start:i-1] + `"`
					value, err := strconv.Unquote(raw)
					if err != nil {
						// Single-quoted content may legitimately hold double
						// quotes; fall back to the raw span.
						value = input[start : i-1]
					}
					tokens = append(tokens, token{kind: tokenString, raw: value})
					goto nextToken
				}
			}
			return nil, errors.New("expr: unterminated string literal")
		default:
			start := i
			for i < len(input) {
				c := input[i]
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == '"' || c == '\'' {
					break
				}
				i++
			}
			raw := input[start:i]
			switch raw {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: raw})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	nextToken:
		continue
	}
	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	if ch >= '0' && ch <= '9' {
		return true
	}
	if (ch == '-' || ch == '+') && len(raw) > 1 {
		next := raw[1]
		return next >= '0' && next <= '9'
	}
	return false
}

type exprNode interface {
	eval(ctx Context) (any, error)
}

type pathNode struct {
	path string
}

func (n pathNode) eval(ctx Context) (any, error) {
	value, ok := ctx.Lookup(n.path)
	if !ok {
		return nil, nil
	}
	return value, nil
}

type literalNode struct {
	value any
}

func (n literalNode) eval(Context) (any, error) {
	return n.value, nil
}

type callNode struct {
	fn   string
	args []exprNode
}

func (n callNode) eval(ctx Context) (any, error) {
	builtin, ok := builtins[n.fn]
	if !ok {
		return nil, fmt.Errorf("expr: unknown function %q", n.fn)
	}
	// All operands evaluate; the built-ins do not short-circuit.
	values := make([]any, len(n.args))
	for i, arg := range n.args {
		value, err := arg.eval(ctx)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return builtin(values)
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parse(input string) (exprNode, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	stream := &tokenStream{tokens: tokens}
	node, err := parseNode(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		// Top-level calls appear without wrapping parens: `fn arg...`.
		head, ok := node.(pathNode)
		if !ok {
			return nil, fmt.Errorf("expr: unexpected token %q", stream.tokens[stream.pos].raw)
		}
		var args []exprNode
		for stream.pos < len(stream.tokens) {
			arg, err := parseNode(stream)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return callNode{fn: head.path, args: args}, nil
	}
	return node, nil
}

func parseNode(stream *tokenStream) (exprNode, error) {
	if stream.pos >= len(stream.tokens) {
		return nil, errors.New("expr: unexpected end of expression")
	}
	tok := stream.tokens[stream.pos]
	stream.pos++

	switch tok.kind {
	case tokenLParen:
		return parseCall(stream)
	case tokenRParen:
		return nil, errors.New("expr: unexpected ')'")
	case tokenString:
		return literalNode{value: tok.raw}, nil
	case tokenBool:
		return literalNode{value: tok.raw == "true"}, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: invalid number literal %q", tok.raw)
		}
		return literalNode{value: value}, nil
	default:
		return pathNode{path: tok.raw}, nil
	}
}

func parseCall(stream *tokenStream) (exprNode, error) {
	if stream.pos >= len(stream.tokens) {
		return nil, errors.New("expr: missing function name")
	}
	name := stream.tokens[stream.pos]
	if name.kind != tokenIdentifier {
		return nil, fmt.Errorf("expr: expected function name, got %q", name.raw)
	}
	stream.pos++

	var args []exprNode
	for {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("expr: missing closing ')'")
		}
		if stream.tokens[stream.pos].kind == tokenRParen {
			stream.pos++
			return callNode{fn: name.raw, args: args}, nil
		}
		arg, err := parseNode(stream)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

type builtinFunc func(args []any) (any, error)

var builtins = map[string]builtinFunc{
	"eq":      builtinEq,
	"not":     builtinNot,
	"or":      builtinOr,
	"and":     builtinAnd,
	"isEmpty": builtinIsEmpty,
	"gte":     builtinGte,
}

func builtinEq(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expr: eq expects 2 arguments, got %d", len(args))
	}
	left, leftOK := coerceNumber(args[0])
	right, rightOK := coerceNumber(args[1])
	if leftOK && rightOK {
		return left == right, nil
	}
	if args[0] == nil || args[1] == nil {
		return args[0] == nil && args[1] == nil, nil
	}
	return renderString(args[0]) == renderString(args[1]), nil
}

func builtinNot(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expr: not expects 1 argument, got %d", len(args))
	}
	return !truthy(args[0]), nil
}

func builtinOr(args []any) (any, error) {
	result := false
	for _, arg := range args {
		result = result || truthy(arg)
	}
	return result, nil
}

func builtinAnd(args []any) (any, error) {
	if len(args) == 0 {
		return false, nil
	}
	result := true
	for _, arg := range args {
		result = result && truthy(arg)
	}
	return result, nil
}

func builtinIsEmpty(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expr: isEmpty expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return true, nil
	case string:
		return v == "", nil
	case []any:
		return len(v) == 0, nil
	case []string:
		return len(v) == 0, nil
	case []map[string]any:
		return len(v) == 0, nil
	default:
		// Numbers, including zero, are never empty.
		return false, nil
	}
}

func builtinGte(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expr: gte expects 2 arguments, got %d", len(args))
	}
	left := numberOrNaN(args[0])
	right := numberOrNaN(args[1])
	// NaN operands make every comparison false.
	return left >= right, nil
}

func numberOrNaN(value any) float64 {
	if number, ok := coerceNumber(value); ok {
		return number
	}
	return math.NaN()
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func renderString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
