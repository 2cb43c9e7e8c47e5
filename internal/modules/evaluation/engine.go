package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/expression"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

// ConditionRequest compares the expression result with Value using the
// comparison operator written in Operator (e.g. ">=")
type ConditionRequest struct {
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ActionRequest modifies Current with the expression result using the
// modification operator written in Operator (e.g. "+")
type ActionRequest struct {
	Operator    string  `json:"operator"`
	Current     float64 `json:"current"`
	CurrentText string  `json:"current_text,omitempty"`
}

// EvaluateRequest asks for one evaluation against a scene snapshot
type EvaluateRequest struct {
	Expression string                  `json:"expression"`
	Scene      runtime.SceneDefinition `json:"scene"`
	Primary    string                  `json:"primary,omitempty"`
	Secondary  string                  `json:"secondary,omitempty"`
	Condition  *ConditionRequest       `json:"condition,omitempty"`
	Action     *ActionRequest          `json:"action,omitempty"`
}

// Result is the outcome of an evaluation
type Result struct {
	Expression   string   `json:"expression"`
	Kind         string   `json:"kind"`
	Number       *float64 `json:"number,omitempty"`
	Text         *string  `json:"text,omitempty"`
	Comparison   string   `json:"comparison"`
	Modification string   `json:"modification"`
	ObjectID     uint32   `json:"object_id"`
	MathSource   string   `json:"math_source,omitempty"`
	Parameters   []string `json:"parameters,omitempty"`
	ConditionMet *bool    `json:"condition_met,omitempty"`
	ActionNumber *float64 `json:"action_number,omitempty"`
	ActionText   *string  `json:"action_text,omitempty"`
}

// Engine preprocesses and evaluates expressions
type Engine struct {
	exprRepo  repository.ExpressionRepository
	functions *expression.Functions
	ids       *objectid.Manager
	cache     *Cache
	maxLength int
	log       *logrus.Logger

	validationScene *runtime.Scene

	// names holds the expressions behind ObjectIdentifier
	names *Cache
}

// NewEngine creates a new evaluation engine
func NewEngine(
	exprRepo repository.ExpressionRepository,
	functions *expression.Functions,
	ids *objectid.Manager,
	cfg config.EvaluationConfig,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		exprRepo:        exprRepo,
		functions:       functions,
		ids:             ids,
		cache:           NewCache(cfg.CacheSize),
		maxLength:       cfg.MaxExpressionLength,
		log:             log,
		validationScene: runtime.NewScene("validation", functions, 0),
		names:           NewCache(cfg.CacheSize),
	}
}

// CacheStats returns the preprocessed expression cache statistics
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

func (e *Engine) check(plain string) error {
	if strings.TrimSpace(plain) == "" {
		return ErrEmptyExpression
	}
	if e.maxLength > 0 && len(plain) > e.maxLength {
		return fmt.Errorf("%w: %d > %d", ErrExpressionTooLong, len(plain), e.maxLength)
	}
	return nil
}

// ObjectIdentifier returns the identifier of the object named name. Like any
// expression's identifier it is resolved once and kept while the expression
// stays cached.
func (e *Engine) ObjectIdentifier(name string) objectid.ID {
	return e.names.GetOrCreate(name).ObjectIdentifier(e.ids)
}

// Prepare returns the preprocessed expression for plain
func (e *Engine) Prepare(plain string) (*expression.Expression, error) {
	if err := e.check(plain); err != nil {
		return nil, err
	}
	return e.cache.GetOrPreprocess(plain, e.validationScene)
}

// Inspect preprocesses plain and describes it without evaluating it
func (e *Engine) Inspect(plain string) (*Result, error) {
	x, err := e.Prepare(plain)
	if err != nil {
		return nil, err
	}
	return e.describe(x), nil
}

func (e *Engine) describe(x *expression.Expression) *Result {
	res := &Result{
		Expression:   x.PlainString(),
		Kind:         x.Kind().String(),
		Comparison:   x.ComparisonOperator().String(),
		Modification: x.ModificationOperator().String(),
		ObjectID:     uint32(x.ObjectIdentifier(e.ids)),
		MathSource:   x.MathSource(),
	}
	instructions := x.MathFunctions()
	if x.Kind() == expression.Text {
		instructions = x.TextFunctions()
	}
	for _, in := range instructions {
		res.Parameters = append(res.Parameters, in.Qualified())
	}
	return res
}

// Evaluate evaluates req.Expression against the scene described in req
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x, err := e.Prepare(req.Expression)
	if err != nil {
		return nil, err
	}

	scene := req.Scene.Build(e.functions, e.ids)
	objects := scene.PickAll()
	obj1, obj2 := pickObject(scene, req.Primary), pickObject(scene, req.Secondary)

	res := e.describe(x)
	switch x.Kind() {
	case expression.Math:
		v, err := x.EvaluateNumber(scene, objects, obj1, obj2)
		if err != nil {
			return nil, err
		}
		res.Number = &v
	case expression.Text:
		v, err := x.EvaluateText(scene, objects, obj1, obj2)
		if err != nil {
			return nil, err
		}
		res.Text = &v
	}

	if req.Condition != nil {
		met, err := e.condition(x.Kind(), res, req.Condition, scene, objects, obj1, obj2)
		if err != nil {
			return nil, err
		}
		res.ConditionMet = &met
	}
	if req.Action != nil {
		e.action(res, req.Action)
	}

	e.log.WithFields(logrus.Fields{
		"expression": req.Expression,
		"kind":       res.Kind,
		"scene":      req.Scene.Name,
	}).Debug("expression evaluated")
	return res, nil
}

func (e *Engine) condition(kind expression.Kind, res *Result, cond *ConditionRequest, scene *runtime.Scene, objects *runtime.ObjectsConcerned, obj1, obj2 expression.Object) (bool, error) {
	op := expression.New(cond.Operator).ComparisonOperator()
	rhs, err := e.Prepare(cond.Value)
	if err != nil {
		return false, fmt.Errorf("condition value: %w", err)
	}
	if rhs.Kind() != kind {
		return false, fmt.Errorf("%w: %s expression compared with %s value %q", ErrKindMismatch, kind, rhs.Kind(), cond.Value)
	}

	if kind == expression.Text {
		v, err := rhs.EvaluateText(scene, objects, obj1, obj2)
		if err != nil {
			return false, fmt.Errorf("condition value: %w", err)
		}
		return op.CompareText(*res.Text, v), nil
	}
	v, err := rhs.EvaluateNumber(scene, objects, obj1, obj2)
	if err != nil {
		return false, fmt.Errorf("condition value: %w", err)
	}
	return op.Compare(*res.Number, v), nil
}

func (e *Engine) action(res *Result, act *ActionRequest) {
	op := expression.New(act.Operator).ModificationOperator()
	if res.Text != nil {
		v := op.ApplyText(act.CurrentText, *res.Text)
		res.ActionText = &v
		return
	}
	v := op.Apply(act.Current, *res.Number)
	res.ActionNumber = &v
}

func pickObject(scene *runtime.Scene, name string) expression.Object {
	if name == "" {
		return nil
	}
	if o, ok := scene.Find(name); ok {
		return o
	}
	return nil
}

// EvaluateStored evaluates a persisted expression
func (e *Engine) EvaluateStored(ctx context.Context, id uuid.UUID, req EvaluateRequest) (*Result, error) {
	stored, err := e.exprRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expression: %w", err)
	}
	req.Expression = stored.PlainString
	return e.Evaluate(ctx, req)
}

// Validate preprocesses a stored expression and reports the outcome
func (e *Engine) Validate(stored *entity.StoredExpression) *entity.ValidationResult {
	res := &entity.ValidationResult{
		ExpressionID: stored.ID,
		Kind:         expression.Unprocessed.String(),
		ValidatedAt:  time.Now(),
	}

	x, err := e.Prepare(stored.PlainString)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Kind = x.Kind().String()
	res.Valid = true
	return res
}
