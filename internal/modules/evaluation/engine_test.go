package evaluation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/expression"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

func levelScene() runtime.SceneDefinition {
	return runtime.SceneDefinition{
		Name:      "Level1",
		Variables: map[string]float64{"score": 40},
		Objects: []runtime.ObjectDefinition{
			{Name: "Player", X: 5, Y: 1},
			{Name: "Enemy", X: 8, Y: 5},
		},
	}
}

func TestEngine_EvaluateMath(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Player.X()+10",
		Scene:      levelScene(),
	})

	require.NoError(t, err)
	assert.Equal(t, "math", res.Kind)
	require.NotNil(t, res.Number)
	assert.Equal(t, 15.0, *res.Number)
	assert.Nil(t, res.Text)
	assert.Equal(t, []string{"Player.X"}, res.Parameters)
	assert.Equal(t, "P[0]+10.0", res.MathSource)
}

func TestEngine_EvaluateText(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: `"Score: " + ToString(Variable(score))`,
		Scene:      levelScene(),
	})

	require.NoError(t, err)
	assert.Equal(t, "text", res.Kind)
	require.NotNil(t, res.Text)
	assert.Equal(t, "Score: 40", *res.Text)
	assert.Equal(t, []string{"ToString"}, res.Parameters)
}

func TestEngine_PrimaryObject(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())
	scene := levelScene()
	scene.Objects = append(scene.Objects, runtime.ObjectDefinition{Name: "Enemy", X: 100})

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Player.Distance(Enemy)",
		Scene:      scene,
		Primary:    "Player",
	})

	require.NoError(t, err)
	assert.Equal(t, 5.0, *res.Number)
}

func TestEngine_Condition(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	testCases := []struct {
		operator string
		value    string
		expected bool
	}{
		{">=", "40", true},
		{">", "40", false},
		{"!=", "Variable(score) - 1", true},
		{"=", "2*20", true},
		{"nonsense", "40", false},
	}

	for _, tc := range testCases {
		t.Run(tc.operator+tc.value, func(t *testing.T) {
			res, err := engine.Evaluate(context.Background(), EvaluateRequest{
				Expression: "Variable(score)",
				Scene:      levelScene(),
				Condition:  &ConditionRequest{Operator: tc.operator, Value: tc.value},
			})
			require.NoError(t, err)
			require.NotNil(t, res.ConditionMet)
			assert.Equal(t, tc.expected, *res.ConditionMet)
		})
	}
}

func TestEngine_TextCondition(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Player.Name()",
		Scene:      levelScene(),
		Condition:  &ConditionRequest{Operator: "=", Value: `"Player"`},
	})

	require.NoError(t, err)
	assert.True(t, *res.ConditionMet)
}

func TestEngine_Action(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Enemy.Y() * 2",
		Scene:      levelScene(),
		Action:     &ActionRequest{Operator: "-", Current: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, *res.ActionNumber)

	res, err = engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: `"!"`,
		Scene:      levelScene(),
		Action:     &ActionRequest{Operator: "+", CurrentText: "Hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", *res.ActionText)
}

func TestEngine_ObjectIdentifier(t *testing.T) {
	engine, ids := newTestEngine(newMemExpressionRepo())
	require.NoError(t, ids.Assign("Player", 7))

	assert.Equal(t, objectid.ID(7), engine.ObjectIdentifier("Player"))

	// cached per expression: later reassignments are not observed
	require.NoError(t, ids.Assign("Player", 9))
	assert.Equal(t, objectid.ID(7), engine.ObjectIdentifier("Player"))
	assert.Equal(t, objectid.NoObject, engine.ObjectIdentifier("Ghost"))

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{Expression: "Player.X()", Scene: levelScene()})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.ObjectID)
}

func TestEngine_Rejects(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	_, err := engine.Evaluate(context.Background(), EvaluateRequest{Expression: "  "})
	assert.ErrorIs(t, err, ErrEmptyExpression)

	_, err = engine.Evaluate(context.Background(), EvaluateRequest{Expression: strings.Repeat("1+", 200) + "1"})
	assert.ErrorIs(t, err, ErrExpressionTooLong)

	_, err = engine.Evaluate(context.Background(), EvaluateRequest{Expression: "Foo.Bar()"})
	assert.ErrorIs(t, err, expression.ErrBothPathsFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Evaluate(ctx, EvaluateRequest{Expression: "1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_CachesPreprocessedExpressions(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	for i := 0; i < 3; i++ {
		_, err := engine.Evaluate(context.Background(), EvaluateRequest{Expression: "1+Variable(score)", Scene: levelScene()})
		require.NoError(t, err)
	}

	stats := engine.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestEngine_EvaluateStored(t *testing.T) {
	repo := newMemExpressionRepo()
	stored := &entity.StoredExpression{ID: uuid.New(), PlainString: "Enemy.X() - Player.X()"}
	require.NoError(t, repo.Create(context.Background(), stored))
	engine, _ := newTestEngine(repo)

	res, err := engine.EvaluateStored(context.Background(), stored.ID, EvaluateRequest{Scene: levelScene()})
	require.NoError(t, err)
	assert.Equal(t, 3.0, *res.Number)

	_, err = engine.EvaluateStored(context.Background(), uuid.New(), EvaluateRequest{})
	assert.ErrorIs(t, err, errNotFound)
}

func TestEngine_Validate(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	ok := engine.Validate(&entity.StoredExpression{ID: uuid.New(), PlainString: "2+3*4"})
	assert.True(t, ok.Valid)
	assert.Equal(t, "math", ok.Kind)

	bad := engine.Validate(&entity.StoredExpression{ID: uuid.New(), PlainString: "Foo.Bar()"})
	assert.False(t, bad.Valid)
	assert.Equal(t, "unprocessed", bad.Kind)
	assert.Contains(t, bad.Error, "Foo.Bar")
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(2)
	scene := runtime.NewScene("s", runtime.NewFunctions(), 0)

	first, err := cache.GetOrPreprocess("1", scene)
	require.NoError(t, err)
	_, err = cache.GetOrPreprocess("2", scene)
	require.NoError(t, err)
	_, err = cache.GetOrPreprocess("1", scene)
	require.NoError(t, err)
	_, err = cache.GetOrPreprocess("3", scene)
	require.NoError(t, err)

	again, err := cache.GetOrPreprocess("1", scene)
	require.NoError(t, err)
	assert.Same(t, first, again)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Size)

	_, err = cache.GetOrPreprocess("nope", scene)
	assert.Error(t, err)
	assert.Equal(t, 2, cache.Stats().Size)
}

func TestEngine_ConditionKindMismatch(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	_, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Player.Name()",
		Scene:      levelScene(),
		Condition:  &ConditionRequest{Operator: "=", Value: "3"},
	})
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.True(t, IsInputError(err))

	_, err = engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Variable(score)",
		Scene:      levelScene(),
		Condition:  &ConditionRequest{Operator: "=", Value: `"40"`},
	})
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestIsInputError(t *testing.T) {
	engine, _ := newTestEngine(newMemExpressionRepo())

	_, err := engine.Evaluate(context.Background(), EvaluateRequest{Expression: "Foo.Bar()"})
	assert.True(t, IsInputError(err))

	_, err = engine.Evaluate(context.Background(), EvaluateRequest{Expression: ""})
	assert.True(t, IsInputError(err))

	assert.False(t, IsInputError(errNotFound))
	assert.False(t, IsInputError(context.Canceled))
}

func TestEngine_EvaluateLeavesRegistryUntouched(t *testing.T) {
	engine, ids := newTestEngine(newMemExpressionRepo())
	require.NoError(t, ids.Assign("Player", 5))

	res, err := engine.Evaluate(context.Background(), EvaluateRequest{
		Expression: "Enemy.X() - Player.X()",
		Scene:      levelScene(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, *res.Number)
	assert.Equal(t, 1, ids.Len())
	assert.Equal(t, objectid.NoObject, ids.Lookup("Enemy"))
}

func TestEngine_ObjectIdentifierCacheBounded(t *testing.T) {
	engine, ids := newTestEngine(newMemExpressionRepo())

	for i := 0; i < 40; i++ {
		engine.ObjectIdentifier(fmt.Sprintf("Object%d", i))
	}

	stats := engine.names.Stats()
	assert.Equal(t, 16, stats.Size)
	assert.Equal(t, int64(24), stats.Evictions)
	assert.Equal(t, 0, ids.Len())
}
