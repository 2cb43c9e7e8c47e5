// Package expression holds authored expressions and evaluates them against a
// scene. An expression is built from its plain string once, preprocessed once
// into a math or text plan, then evaluated every tick without re-parsing.
//
// Preprocessing writes the expression's cached plan and must complete before
// concurrent evaluation starts. Evaluation only reads the plan.
package expression

import (
	"fmt"
	"sync"

	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

// Kind is the outcome of preprocessing
type Kind int

const (
	Unprocessed Kind = iota
	Math
	Text
)

func (k Kind) String() string {
	switch k {
	case Math:
		return "math"
	case Text:
		return "text"
	}
	return "unprocessed"
}

// Expression is an authored expression with its cached metadata
type Expression struct {
	plain        string
	comparison   ComparisonOperator
	modification ModificationOperator

	idOnce sync.Once
	id     objectid.ID

	kind      Kind
	functions []*Instruction
	math      *MathExpression
	text      *TextExpression
}

// New creates an expression. Only the operator scans run here.
func New(plain string) *Expression {
	return &Expression{
		plain:        plain,
		comparison:   ScanComparison(plain),
		modification: ScanModification(plain),
	}
}

// PlainString returns the text the expression was created from
func (e *Expression) PlainString() string {
	return e.plain
}

// ComparisonOperator returns the comparison operator found at creation
func (e *Expression) ComparisonOperator() ComparisonOperator {
	return e.comparison
}

// ModificationOperator returns the modification operator found at creation
func (e *Expression) ModificationOperator() ModificationOperator {
	return e.modification
}

// ObjectIdentifier returns the identifier of the object named by the plain
// string. The first call looks it up in ids; every later call returns that
// first result, even if ids has changed since.
func (e *Expression) ObjectIdentifier(ids IdentifierRegistry) objectid.ID {
	e.idOnce.Do(func() {
		e.id = ids.Lookup(e.plain)
	})
	return e.id
}

// Kind returns how the expression was preprocessed
func (e *Expression) Kind() Kind {
	return e.kind
}

// Preprocess prepares the expression for evaluation, first as a math
// expression, then as a text expression. It is a no-op once it succeeded.
// On failure the expression stays unprocessed and may be retried.
func (e *Expression) Preprocess(scene Scene) error {
	if e.kind != Unprocessed {
		return nil
	}

	mathErr := e.preprocessMath(scene)
	if mathErr == nil {
		return nil
	}
	textErr := e.preprocessText(scene)
	if textErr == nil {
		return nil
	}

	return fmt.Errorf("%w: %q: math: %w; text: %w", ErrBothPathsFailed, e.plain, mathErr, textErr)
}

func (e *Expression) preprocessMath(scene Scene) error {
	r := &mathRewriter{scene: scene}
	source, err := r.rewrite(e.plain)
	if err != nil {
		return err
	}
	compiled, err := CompileMath(source)
	if err != nil {
		return err
	}

	e.functions = nil
	for _, in := range r.functions {
		e.AddMathFunction(in)
	}
	e.math = compiled
	e.kind = Math
	return nil
}

func (e *Expression) preprocessText(scene Scene) error {
	plan, err := compileText(scene, e.plain)
	if err != nil {
		return err
	}
	e.text = plan
	e.kind = Text
	return nil
}

// AddMathFunction appends a parameter instruction. Its value fills the next
// slot of the math expression. Only meant to be used while preprocessing.
func (e *Expression) AddMathFunction(in *Instruction) {
	e.functions = append(e.functions, in)
}

// MathFunctions returns the parameter instructions in slot order
func (e *Expression) MathFunctions() []*Instruction {
	return e.functions
}

// TextFunctions returns the dynamic fragments of a text expression
func (e *Expression) TextFunctions() []*Instruction {
	if e.text == nil {
		return nil
	}
	return e.text.Instructions()
}

// MathSource returns the compiled math source, empty unless preprocessed as math
func (e *Expression) MathSource() string {
	if e.math == nil {
		return ""
	}
	return e.math.Source()
}

// EvaluateNumber evaluates the parameter instructions in order and feeds
// their values to the compiled math expression.
func (e *Expression) EvaluateNumber(scene Scene, objects ObjectsConcerned, obj1, obj2 Object) (float64, error) {
	if e.kind != Math {
		return 0, fmt.Errorf("%w as math: %q", ErrNotPreprocessed, e.plain)
	}

	values := make([]float64, 0, len(e.functions))
	for _, in := range e.functions {
		values = append(values, in.Number(scene, objects, obj1, obj2))
	}

	return e.math.Eval(values)
}

// EvaluateText assembles the literal and dynamic fragments in order
func (e *Expression) EvaluateText(scene Scene, objects ObjectsConcerned, obj1, obj2 Object) (string, error) {
	if e.kind != Text {
		return "", fmt.Errorf("%w as text: %q", ErrNotPreprocessed, e.plain)
	}
	return e.text.Eval(scene, objects, obj1, obj2), nil
}
