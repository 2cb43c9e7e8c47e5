package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

// slots is the environment compiled math expressions run against: slot i
// holds the value of the i-th parameter instruction.
type slots struct {
	P []float64
}

// MathExpression is a compiled arithmetic expression over parameter slots
type MathExpression struct {
	source  string
	program *vm.Program
}

// CompileMath compiles a rewritten math expression. Slots are written P[0],
// P[1]... and math functions use their internal names.
func CompileMath(source string) (*MathExpression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty math expression", ErrSyntax)
	}

	opts := append([]expr.Option{expr.Env(slots{}), expr.AsFloat64()}, mathFunctionOptions...)
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compile expression '%s': %v", ErrSyntax, source, err)
	}

	return &MathExpression{source: source, program: program}, nil
}

// Source returns the rewritten source the expression was compiled from
func (m *MathExpression) Source() string {
	return m.source
}

// Eval runs the expression with the given slot values. An empty values slice
// is normalized to a single zero slot so constant expressions always see at
// least one slot.
func (m *MathExpression) Eval(values []float64) (float64, error) {
	if len(values) == 0 {
		values = []float64{0}
	}

	result, err := expr.Run(m.program, slots{P: values})
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate expression '%s': %w", m.source, err)
	}

	return toFloat(result)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unexpected result type: %T", v)
	}
}

type mathFunction struct {
	arity int // -1 means one or more arguments
	fn    func(args []float64) float64
}

// mathFunctions are the built-in functions of the math grammar, keyed by the
// name authors write. They are compiled under a prefixed name so they never
// collide with expr's own builtins.
var mathFunctions = map[string]mathFunction{
	"abs":   {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"ceil":  {1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"floor": {1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"round": {1, func(a []float64) float64 { return math.Round(a[0]) }},
	"trunc": {1, func(a []float64) float64 { return math.Trunc(a[0]) }},
	"int":   {1, func(a []float64) float64 { return math.Trunc(a[0]) }},
	"sign": {1, func(a []float64) float64 {
		switch {
		case a[0] > 0:
			return 1
		case a[0] < 0:
			return -1
		}
		return 0
	}},
	"sqrt":  {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"exp":   {1, func(a []float64) float64 { return math.Exp(a[0]) }},
	"log":   {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"log10": {1, func(a []float64) float64 { return math.Log10(a[0]) }},
	"sin":   {1, func(a []float64) float64 { return math.Sin(a[0]) }},
	"cos":   {1, func(a []float64) float64 { return math.Cos(a[0]) }},
	"tan":   {1, func(a []float64) float64 { return math.Tan(a[0]) }},
	"asin":  {1, func(a []float64) float64 { return math.Asin(a[0]) }},
	"acos":  {1, func(a []float64) float64 { return math.Acos(a[0]) }},
	"atan":  {1, func(a []float64) float64 { return math.Atan(a[0]) }},
	"atan2": {2, func(a []float64) float64 { return math.Atan2(a[0], a[1]) }},
	"pow":   {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"mod":   {2, func(a []float64) float64 { return math.Mod(a[0], a[1]) }},
	"clamp": {3, func(a []float64) float64 { return math.Max(a[1], math.Min(a[2], a[0])) }},
	"min": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

const mathFunctionPrefix = "fn_"

var mathFunctionOptions = buildMathFunctionOptions()

// modPatcher rewrites a % b into a call to the float modulo, expr's own %
// being defined on integers only.
type modPatcher struct{}

func (modPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "%" {
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: mathFunctionPrefix + "mod"},
		Arguments: []ast.Node{bin.Left, bin.Right},
	})
}

func buildMathFunctionOptions() []expr.Option {
	opts := make([]expr.Option, 0, len(mathFunctions)+1)
	opts = append(opts, expr.Patch(modPatcher{}))
	for name, mf := range mathFunctions {
		name, mf := name, mf
		opts = append(opts, expr.Function(mathFunctionPrefix+name, func(params ...any) (any, error) {
			if mf.arity >= 0 && len(params) != mf.arity {
				return nil, fmt.Errorf("%s expects %d arguments, got %d", name, mf.arity, len(params))
			}
			if len(params) == 0 {
				return nil, fmt.Errorf("%s expects at least one argument", name)
			}
			args := make([]float64, len(params))
			for i, p := range params {
				v, err := toFloat(p)
				if err != nil {
					return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
				}
				args[i] = v
			}
			return mf.fn(args), nil
		}))
	}
	return opts
}

func isMathFunction(name string) bool {
	_, ok := mathFunctions[name]
	return ok
}

// mathRewriter turns a plain string into compilable source, resolving every
// call that is not a math function into a parameter instruction. Slots are
// assigned in the order calls are met, which is the authored left-to-right
// order, so instructions and slots are produced together.
type mathRewriter struct {
	scene     Scene
	functions []*Instruction
}

func (r *mathRewriter) rewrite(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			return "", fmt.Errorf("%w: string literal in math expression", ErrSyntax)
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			j := readNumber(s, i)
			lit, err := floatLiteral(s[i:j])
			if err != nil {
				return "", err
			}
			b.WriteString(lit)
			i = j
		case isIdentStart(c):
			cl, ok, err := parseCall(s, i)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", fmt.Errorf("%w: unexpected identifier %q", ErrSyntax, cl.name)
			}
			if cl.object == "" && isMathFunction(cl.name) {
				if err := r.writeMathCall(&b, cl); err != nil {
					return "", err
				}
			} else {
				in, err := resolveInstruction(r.scene, cl, false)
				if err != nil {
					return "", err
				}
				fmt.Fprintf(&b, "P[%d]", len(r.functions))
				r.functions = append(r.functions, in)
			}
			i = cl.end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// floatLiteral rewrites a number so expr reads it as a float64 constant.
// Integer literals would otherwise be int64 and wrap on overflow.
func floatLiteral(s string) (string, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: invalid number %q", ErrSyntax, s)
	}
	lit := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(lit, ".e") {
		lit += ".0"
	}
	return lit, nil
}

func (r *mathRewriter) writeMathCall(b *strings.Builder, cl call) error {
	mf := mathFunctions[cl.name]
	if (mf.arity >= 0 && len(cl.args) != mf.arity) || len(cl.args) == 0 {
		return fmt.Errorf("%w: wrong number of arguments to %s", ErrSyntax, cl.name)
	}
	b.WriteString(mathFunctionPrefix + cl.name)
	b.WriteByte('(')
	for k, arg := range cl.args {
		if k > 0 {
			b.WriteString(", ")
		}
		inner, err := r.rewrite(arg)
		if err != nil {
			return err
		}
		b.WriteString(inner)
	}
	b.WriteByte(')')
	return nil
}
