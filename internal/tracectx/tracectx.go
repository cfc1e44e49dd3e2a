// Package tracectx correlates diagnostic traces with the case that was
// executing when they were reported. The orchestrator derives a fresh
// collector context per case; helper code arbitrarily deep inside a task
// calls Report with the context it already receives, and the trace lands
// in the buffer of exactly that case. Concurrent cases never observe each
// other's buffers because each carries its own collector.
package tracectx

import (
	"context"
	"sync"

	"github.com/crucible-dev/crucible/internal/domain"
)

// collectorKey is the private context key for the active collector.
type collectorKey struct{}

// Collector is a per-case, append-only trace buffer. It is safe for
// concurrent use: a task may fan out goroutines that share the case
// context and report traces simultaneously.
type Collector struct {
	mu     sync.Mutex
	traces []domain.Trace
}

// append adds a trace to the buffer in report order.
func (c *Collector) append(tr domain.Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traces = append(c.traces, tr)
}

// Traces returns a copy of the collected traces in report order.
func (c *Collector) Traces() []domain.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Trace, len(c.traces))
	copy(out, c.traces)
	return out
}

// WithCollector derives a context carrying a fresh trace collector.
// The orchestrator opens one scope per case around the task invocation
// and drains the collector into the case result when the scope closes.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// Report appends a trace to the collector active on ctx. Outside any
// scope it is a no-op; trace reporting is diagnostic, never load-bearing,
// so a missing scope must not crash the caller.
func Report(ctx context.Context, tr domain.Trace) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	if !ok {
		return
	}
	c.append(tr)
}

// Traces returns the traces collected so far in the scope active on ctx,
// or nil outside any scope.
func Traces(ctx context.Context) []domain.Trace {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	if !ok {
		return nil
	}
	return c.Traces()
}
