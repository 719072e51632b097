package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected Event
	}{
		{
			name: "error with files",
			raw: map[string]any{
				"type":    "error_encountered",
				"error":   "boom",
				"context": "build",
				"files":   []any{"a.ts", "b.ts"},
			},
			expected: ErrorEncountered{Error: "boom", Context: "build", Files: []string{"a.ts", "b.ts"}},
		},
		{
			name:     "single file weakly typed",
			raw:      map[string]any{"type": "file_modified", "files": "main.go"},
			expected: FileModified{Files: []string{"main.go"}},
		},
		{
			name:     "solution",
			raw:      map[string]any{"type": "solution_applied", "solution": "retry", "relatedError": "timeout"},
			expected: SolutionApplied{Solution: "retry", RelatedError: "timeout"},
		},
		{
			name:     "task start",
			raw:      map[string]any{"type": "task_start", "taskName": "lint", "taskId": 3},
			expected: TaskStart{TaskName: "lint", TaskID: "3"},
		},
		{
			name:     "unknown type",
			raw:      map[string]any{"type": "mystery", "context": "?"},
			expected: UnknownEvent{Type: "mystery", Context: "?"},
		},
		{
			name:     "missing type",
			raw:      map[string]any{"output": "x"},
			expected: UnknownEvent{Output: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ev)
		})
	}
}

func TestDecodeEventTypeMismatch(t *testing.T) {
	ev, err := DecodeEvent(map[string]any{
		"type":     "checkpoint_decision",
		"decision": "use sqlite",
		"context":  "storage",
		"options":  map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, UnknownEvent{Type: "checkpoint_decision", Context: "storage"}, ev)
	assert.Equal(t, KindUnknown, ev.Kind())
}

func TestObserveMalformedEventUsesDefaultScore(t *testing.T) {
	ev, err := DecodeEvent(map[string]any{
		"type":  "error_encountered",
		"error": "boom",
		"files": map[string]any{"a": 1},
	})
	require.NoError(t, err)

	o, store := newObserver(t, DefaultConfig())
	got, err := o.Observe(context.Background(), ev)
	require.NoError(t, err)
	assert.Nil(t, got, "unknown events score below the default minimum")
	assert.Equal(t, 0, store.Count())

	cfg := DefaultConfig()
	cfg.MinRelevance = 0
	o, _ = newObserver(t, cfg)
	got, err = o.Observe(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, DefaultScores()[KindUnknown], got.Relevance)
	assert.Equal(t, "Event: error_encountered", got.Content.Action)
	assert.Equal(t, "boom", got.Content.Result)
}
