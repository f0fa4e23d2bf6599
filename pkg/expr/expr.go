package expr

// Evaluator decides whether a condition holds for the supplied context. The
// field argument names the input the condition is attached to; evaluators may
// use it for error messages.
type Evaluator interface {
	Eval(field, rule string, ctx Context) (bool, error)
}

// Context carries the input snapshot a condition is evaluated against.
type Context struct {
	Values map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(field, rule string, ctx Context) (bool, error) {
	return fn(field, rule, ctx)
}
