package expression

// Instruction is a resolved call inside an expression: the function to run
// and the parameters it was written with. Instructions borrow the scene and
// objects they are evaluated with and never keep them.
type Instruction struct {
	// Object is the object name for calls like "Player.X()", empty otherwise
	Object string
	// Name is the function or member name
	Name string
	// Parameters are the call arguments, each one a nested expression
	Parameters []*Expression

	number NumberFunc
	text   TextFunc
}

// NewNumberInstruction binds a number function to its parameters
func NewNumberInstruction(object, name string, fn NumberFunc, params ...*Expression) *Instruction {
	return &Instruction{Object: object, Name: name, Parameters: params, number: fn}
}

// NewTextInstruction binds a text function to its parameters
func NewTextInstruction(object, name string, fn TextFunc, params ...*Expression) *Instruction {
	return &Instruction{Object: object, Name: name, Parameters: params, text: fn}
}

// Qualified returns the call name as written, without arguments
func (in *Instruction) Qualified() string {
	if in.Object == "" {
		return in.Name
	}
	return in.Object + "." + in.Name
}

// Parameter returns the i-th parameter, or an empty expression when the call
// was written with fewer arguments
func (in *Instruction) Parameter(i int) *Expression {
	if i < 0 || i >= len(in.Parameters) {
		return New("")
	}
	return in.Parameters[i]
}

// Number runs the bound number function
func (in *Instruction) Number(scene Scene, objects ObjectsConcerned, obj1, obj2 Object) float64 {
	if in.number == nil {
		return 0
	}
	return in.number(scene, objects, obj1, obj2, in)
}

// Text runs the bound text function
func (in *Instruction) Text(scene Scene, objects ObjectsConcerned, obj1, obj2 Object) string {
	if in.text == nil {
		return ""
	}
	return in.text(scene, objects, obj1, obj2, in)
}

// resolveInstruction materializes a parsed call against the scene's functions.
// Arguments are preprocessed best-effort: plain names such as object or
// variable names are legitimately neither math nor text.
func resolveInstruction(scene Scene, c call, text bool) (*Instruction, error) {
	resolver := scene.Functions()
	in := &Instruction{Object: c.object, Name: c.name}

	if text {
		fn, ok := resolver.Text(c.object, c.name)
		if !ok {
			return nil, &FunctionError{Name: in.Qualified(), Text: true}
		}
		in.text = fn
	} else {
		fn, ok := resolver.Number(c.object, c.name)
		if !ok {
			return nil, &FunctionError{Name: in.Qualified()}
		}
		in.number = fn
	}

	for _, arg := range c.args {
		param := New(arg)
		_ = param.Preprocess(scene)
		in.Parameters = append(in.Parameters, param)
	}
	return in, nil
}
