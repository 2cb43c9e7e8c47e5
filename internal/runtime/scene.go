// Package runtime is the minimal scene model expressions are evaluated
// against: objects, picked objects, scene variables and the builtin
// function library.
package runtime

import (
	"math/rand"

	"github.com/ilramdhan/scene-expr/pkg/expression"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

// Object is a game object instance
type Object struct {
	ObjectName string
	ID         objectid.ID
	X          float64
	Y          float64
	Angle      float64
	Variables  map[string]float64
	Strings    map[string]string
}

// Name implements expression.Object
func (o *Object) Name() string {
	return o.ObjectName
}

// Variable returns a numeric object variable, 0 when unset
func (o *Object) Variable(name string) float64 {
	return o.Variables[name]
}

// VariableString returns a text object variable, empty when unset
func (o *Object) VariableString(name string) string {
	return o.Strings[name]
}

// ObjectsConcerned holds the instances picked by an event, by object name
type ObjectsConcerned struct {
	picked map[string][]expression.Object
}

// NewObjectsConcerned creates an empty pick list
func NewObjectsConcerned() *ObjectsConcerned {
	return &ObjectsConcerned{picked: make(map[string][]expression.Object)}
}

// Add picks an instance
func (c *ObjectsConcerned) Add(o *Object) {
	c.picked[o.ObjectName] = append(c.picked[o.ObjectName], o)
}

// Pick implements expression.ObjectsConcerned
func (c *ObjectsConcerned) Pick(name string) []expression.Object {
	return c.picked[name]
}

// Scene is a running scene
type Scene struct {
	Name      string
	TimeDelta float64
	Variables map[string]float64
	Strings   map[string]string

	objects   []*Object
	functions *expression.Functions
	rng       *rand.Rand
}

// NewScene creates a scene using functions for expression calls
func NewScene(name string, functions *expression.Functions, seed int64) *Scene {
	return &Scene{
		Name:      name,
		Variables: make(map[string]float64),
		Strings:   make(map[string]string),
		functions: functions,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Functions implements expression.Scene
func (s *Scene) Functions() expression.FunctionResolver {
	return s.functions
}

// AddObject adds an instance to the scene
func (s *Scene) AddObject(o *Object) {
	s.objects = append(s.objects, o)
}

// Objects returns every instance named name
func (s *Scene) Objects(name string) []*Object {
	var out []*Object
	for _, o := range s.objects {
		if o.ObjectName == name {
			out = append(out, o)
		}
	}
	return out
}

// Find returns the first instance named name
func (s *Scene) Find(name string) (*Object, bool) {
	for _, o := range s.objects {
		if o.ObjectName == name {
			return o, true
		}
	}
	return nil, false
}

// PickAll returns a pick list holding every instance of the scene
func (s *Scene) PickAll() *ObjectsConcerned {
	c := NewObjectsConcerned()
	for _, o := range s.objects {
		c.Add(o)
	}
	return c
}

// Random returns a pseudo random integer in [0, max]
func (s *Scene) Random(max int) int {
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max + 1)
}
