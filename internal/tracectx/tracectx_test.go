package tracectx

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-dev/crucible/internal/domain"
)

func TestReportInsideScope(t *testing.T) {
	ctx, collector := WithCollector(context.Background())

	Report(ctx, domain.Trace{ID: "first"})
	Report(ctx, domain.Trace{ID: "second"})

	traces := collector.Traces()
	require.Len(t, traces, 2)
	assert.Equal(t, "first", traces[0].ID)
	assert.Equal(t, "second", traces[1].ID)
}

func TestReportOutsideScopeIsNoop(t *testing.T) {
	// Must not panic and must not leak the trace anywhere observable.
	Report(context.Background(), domain.Trace{ID: "orphan"})
	assert.Nil(t, Traces(context.Background()))
}

func TestNestedScopeShadowsOuter(t *testing.T) {
	outerCtx, outer := WithCollector(context.Background())
	innerCtx, inner := WithCollector(outerCtx)

	Report(innerCtx, domain.Trace{ID: "inner"})

	assert.Empty(t, outer.Traces())
	require.Len(t, inner.Traces(), 1)
}

func TestTracesReturnsCopy(t *testing.T) {
	ctx, collector := WithCollector(context.Background())
	Report(ctx, domain.Trace{ID: "a"})

	snapshot := collector.Traces()
	Report(ctx, domain.Trace{ID: "b"})

	assert.Len(t, snapshot, 1)
	assert.Len(t, collector.Traces(), 2)
}

func TestConcurrentScopesAreIsolated(t *testing.T) {
	const scopes = 50
	const perScope = 20

	collectors := make([]*Collector, scopes)
	var wg sync.WaitGroup
	for i := 0; i < scopes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, c := WithCollector(context.Background())
			collectors[i] = c
			for j := 0; j < perScope; j++ {
				Report(ctx, domain.Trace{ID: fmt.Sprintf("scope-%d", i)})
			}
		}(i)
	}
	wg.Wait()

	for i, c := range collectors {
		traces := c.Traces()
		require.Len(t, traces, perScope)
		for _, tr := range traces {
			assert.Equal(t, fmt.Sprintf("scope-%d", i), tr.ID)
		}
	}
}

func TestConcurrentReportsWithinOneScope(t *testing.T) {
	ctx, collector := WithCollector(context.Background())

	const goroutines = 10
	const perGoroutine = 100
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				Report(ctx, domain.Trace{})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, collector.Traces(), goroutines*perGoroutine)
}
