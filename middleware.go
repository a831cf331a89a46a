package bdispatch

// Middleware for cross-cutting concerns around operations.
type Middleware func(OperationFunc) OperationFunc

// Wrap takes the operation fn and wraps it with middleware. The order is that of the Gorilla and Chi router. That
// is: the middleware provided first is called first and is the "outer" most wrapping, the middleware provided last
// will be the "inner most" wrapping (closest to the operation).
func Wrap(fn OperationFunc, m ...Middleware) OperationFunc {
	if len(m) < 1 {
		return fn
	}

	wrapped := fn
	for i := len(m) - 1; i >= 0; i-- {
		wrapped = m[i](wrapped)
	}

	return wrapped
}
