package expression

import "github.com/ilramdhan/scene-expr/pkg/objectid"

// Object is a game object instance handed to instructions
type Object interface {
	Name() string
}

// ObjectsConcerned holds the object instances picked by the running event
type ObjectsConcerned interface {
	Pick(name string) []Object
}

// Scene is the runtime scene expressions are preprocessed and evaluated against
type Scene interface {
	Functions() FunctionResolver
}

// FunctionResolver looks up the callables instructions are bound to.
// object is empty for free functions.
type FunctionResolver interface {
	Number(object, name string) (NumberFunc, bool)
	Text(object, name string) (TextFunc, bool)
}

// IdentifierRegistry resolves object names to identifiers
type IdentifierRegistry interface {
	Lookup(name string) objectid.ID
}
