package ports

import "context"

// Task is the unit under test: an operation mapping one case's input to an
// output value. The orchestrator treats task failures as opaque; an error
// is converted to a human-readable string on the case result and never
// inspected further. Tasks may block on I/O and should respect context
// cancellation; no timeout is imposed by the harness itself.
//
// Implementations must be safe for concurrent use, as the orchestrator
// invokes one task instance across many cases in parallel.
type Task interface {
	// Run produces the task's output for one case input.
	Run(ctx context.Context, input any) (any, error)
}

// TaskFunc adapts an ordinary function into a Task without requiring a
// named type.
type TaskFunc func(ctx context.Context, input any) (any, error)

// Run implements the Task interface by calling the wrapped function.
func (f TaskFunc) Run(ctx context.Context, input any) (any, error) {
	return f(ctx, input)
}
