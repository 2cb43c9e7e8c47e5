package runtime

import (
	"math"
	"strconv"
	"strings"

	"github.com/ilramdhan/scene-expr/pkg/expression"
)

// NewFunctions returns a function registry holding the builtin library
func NewFunctions() *expression.Functions {
	fns := expression.NewFunctions()
	RegisterBuiltins(fns)
	return fns
}

// RegisterBuiltins adds the builtin number and text functions to fns
func RegisterBuiltins(fns *expression.Functions) {
	fns.RegisterNumber("Random", random)
	fns.RegisterNumber("Variable", sceneVariable)
	fns.RegisterNumber("TimeDelta", timeDelta)
	fns.RegisterNumber("Count", count)

	fns.RegisterObjectNumber("X", objectNumber(func(o *Object, _ *expression.Instruction) float64 { return o.X }))
	fns.RegisterObjectNumber("Y", objectNumber(func(o *Object, _ *expression.Instruction) float64 { return o.Y }))
	fns.RegisterObjectNumber("Angle", objectNumber(func(o *Object, _ *expression.Instruction) float64 { return o.Angle }))
	fns.RegisterObjectNumber("Variable", objectNumber(func(o *Object, in *expression.Instruction) float64 {
		return o.Variable(in.Parameter(0).PlainString())
	}))
	fns.RegisterObjectNumber("Distance", distance)

	fns.RegisterText("ToString", toString)
	fns.RegisterText("VariableString", sceneVariableString)
	fns.RegisterText("LowerCase", caseText(strings.ToLower))
	fns.RegisterText("UpperCase", caseText(strings.ToUpper))
	fns.RegisterText("SceneName", sceneName)

	fns.RegisterObjectText("Name", objectText(func(o *Object, _ *expression.Instruction) string { return o.ObjectName }))
	fns.RegisterObjectText("VariableString", objectText(func(o *Object, in *expression.Instruction) string {
		return o.VariableString(in.Parameter(0).PlainString())
	}))
}

// instance finds the object an object call applies to: one of the two
// objects passed to the evaluation, then the picked instances, then the
// scene's instances
func instance(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, name string) (*Object, bool) {
	for _, o := range []expression.Object{obj1, obj2} {
		if ro, ok := o.(*Object); ok && ro != nil && ro.ObjectName == name {
			return ro, true
		}
	}
	if objects != nil {
		for _, o := range objects.Pick(name) {
			if ro, ok := o.(*Object); ok {
				return ro, true
			}
		}
	}
	if s, ok := scene.(*Scene); ok {
		return s.Find(name)
	}
	return nil, false
}

func numberParam(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction, i int) float64 {
	v, err := in.Parameter(i).EvaluateNumber(scene, objects, obj1, obj2)
	if err != nil {
		return 0
	}
	return v
}

func textParam(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction, i int) string {
	v, err := in.Parameter(i).EvaluateText(scene, objects, obj1, obj2)
	if err != nil {
		return ""
	}
	return v
}

func objectNumber(get func(*Object, *expression.Instruction) float64) expression.NumberFunc {
	return func(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) float64 {
		o, ok := instance(scene, objects, obj1, obj2, in.Object)
		if !ok {
			return 0
		}
		return get(o, in)
	}
}

func objectText(get func(*Object, *expression.Instruction) string) expression.TextFunc {
	return func(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) string {
		o, ok := instance(scene, objects, obj1, obj2, in.Object)
		if !ok {
			return ""
		}
		return get(o, in)
	}
}

func random(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) float64 {
	s, ok := scene.(*Scene)
	if !ok {
		return 0
	}
	return float64(s.Random(int(numberParam(scene, objects, obj1, obj2, in, 0))))
}

func sceneVariable(scene expression.Scene, _ expression.ObjectsConcerned, _, _ expression.Object, in *expression.Instruction) float64 {
	s, ok := scene.(*Scene)
	if !ok {
		return 0
	}
	return s.Variables[in.Parameter(0).PlainString()]
}

func timeDelta(scene expression.Scene, _ expression.ObjectsConcerned, _, _ expression.Object, _ *expression.Instruction) float64 {
	s, ok := scene.(*Scene)
	if !ok {
		return 0
	}
	return s.TimeDelta
}

func count(_ expression.Scene, objects expression.ObjectsConcerned, _, _ expression.Object, in *expression.Instruction) float64 {
	if objects == nil {
		return 0
	}
	return float64(len(objects.Pick(in.Parameter(0).PlainString())))
}

func distance(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) float64 {
	from, ok := instance(scene, objects, obj1, obj2, in.Object)
	if !ok {
		return 0
	}
	to, ok := instance(scene, objects, obj1, obj2, in.Parameter(0).PlainString())
	if !ok {
		return 0
	}
	return math.Hypot(to.X-from.X, to.Y-from.Y)
}

func toString(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) string {
	return strconv.FormatFloat(numberParam(scene, objects, obj1, obj2, in, 0), 'f', -1, 64)
}

func sceneVariableString(scene expression.Scene, _ expression.ObjectsConcerned, _, _ expression.Object, in *expression.Instruction) string {
	s, ok := scene.(*Scene)
	if !ok {
		return ""
	}
	return s.Strings[in.Parameter(0).PlainString()]
}

func caseText(convert func(string) string) expression.TextFunc {
	return func(scene expression.Scene, objects expression.ObjectsConcerned, obj1, obj2 expression.Object, in *expression.Instruction) string {
		return convert(textParam(scene, objects, obj1, obj2, in, 0))
	}
}

func sceneName(scene expression.Scene, _ expression.ObjectsConcerned, _, _ expression.Object, _ *expression.Instruction) string {
	s, ok := scene.(*Scene)
	if !ok {
		return ""
	}
	return s.Name
}
