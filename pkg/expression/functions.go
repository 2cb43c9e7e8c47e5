package expression

import "sync"

// NumberFunc computes one numeric parameter of a math expression
type NumberFunc func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) float64

// TextFunc computes one fragment of a text expression
type TextFunc func(scene Scene, objects ObjectsConcerned, obj1, obj2 Object, in *Instruction) string

// Functions is a FunctionResolver backed by maps.
// Free functions are registered by name ("Random"), object functions by
// member name ("X", called as "Player.X()"). A function registered under a
// qualified name ("Player.X") takes precedence over the object function.
type Functions struct {
	mu            sync.RWMutex
	numbers       map[string]NumberFunc
	objectNumbers map[string]NumberFunc
	texts         map[string]TextFunc
	objectTexts   map[string]TextFunc
}

// NewFunctions creates an empty registry
func NewFunctions() *Functions {
	return &Functions{
		numbers:       make(map[string]NumberFunc),
		objectNumbers: make(map[string]NumberFunc),
		texts:         make(map[string]TextFunc),
		objectTexts:   make(map[string]TextFunc),
	}
}

// RegisterNumber registers a free or qualified number function
func (f *Functions) RegisterNumber(name string, fn NumberFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.numbers[name] = fn
}

// RegisterObjectNumber registers a number function callable on any object
func (f *Functions) RegisterObjectNumber(member string, fn NumberFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objectNumbers[member] = fn
}

// RegisterText registers a free or qualified text function
func (f *Functions) RegisterText(name string, fn TextFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[name] = fn
}

// RegisterObjectText registers a text function callable on any object
func (f *Functions) RegisterObjectText(member string, fn TextFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objectTexts[member] = fn
}

// Number implements FunctionResolver
func (f *Functions) Number(object, name string) (NumberFunc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if object == "" {
		fn, ok := f.numbers[name]
		return fn, ok
	}
	if fn, ok := f.numbers[object+"."+name]; ok {
		return fn, true
	}
	fn, ok := f.objectNumbers[name]
	return fn, ok
}

// Text implements FunctionResolver
func (f *Functions) Text(object, name string) (TextFunc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if object == "" {
		fn, ok := f.texts[name]
		return fn, ok
	}
	if fn, ok := f.texts[object+"."+name]; ok {
		return fn, true
	}
	fn, ok := f.objectTexts[name]
	return fn, ok
}
