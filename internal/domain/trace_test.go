package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceBuilderFinish(t *testing.T) {
	usage := &TokenUsage{Input: 10, Output: 5, Total: 15}

	tr := StartTrace().
		ID("trace-1").
		Model("gpt-4o").
		Metadata(map[string]any{"temperature": 0.2}).
		Finish("prompt", "completion", usage)

	assert.Equal(t, "trace-1", tr.ID)
	assert.Equal(t, "gpt-4o", tr.Model)
	assert.Equal(t, "prompt", tr.Input)
	assert.Equal(t, "completion", tr.Output)
	assert.Equal(t, usage, tr.Usage)
	assert.Empty(t, tr.Error)
	assert.False(t, tr.EndedAt.Before(tr.StartedAt))
	assert.GreaterOrEqual(t, tr.DurationMS, int64(0))
}

func TestTraceBuilderFinishWithError(t *testing.T) {
	tr := StartTrace().Model("gpt-4o").FinishWithError("prompt", errors.New("rate limited"))

	assert.Equal(t, "rate limited", tr.Error)
	assert.Equal(t, "prompt", tr.Input)
	assert.Nil(t, tr.Output)
	assert.False(t, tr.EndedAt.Before(tr.StartedAt))
}
