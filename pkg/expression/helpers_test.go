package expression

type testObject struct {
	name string
	x    float64
}

func (o *testObject) Name() string { return o.name }

type testObjects map[string][]Object

func (o testObjects) Pick(name string) []Object { return o[name] }

type testScene struct {
	fns *Functions
}

func (s *testScene) Functions() FunctionResolver { return s.fns }

func newTestScene() *testScene {
	fns := NewFunctions()
	fns.RegisterObjectNumber("X", func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) float64 {
		if o, ok := obj1.(*testObject); ok && o.name == in.Object {
			return o.x
		}
		for _, picked := range objects.Pick(in.Object) {
			return picked.(*testObject).x
		}
		return 0
	})
	fns.RegisterObjectText("Name", func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) string {
		return in.Object
	})
	fns.RegisterNumber("Twice", func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) float64 {
		v, _ := in.Parameter(0).EvaluateNumber(scene, objects, obj1, obj2)
		return 2 * v
	})
	fns.RegisterText("Upper", func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) string {
		return in.Parameter(0).PlainString()
	})
	return &testScene{fns: fns}
}
