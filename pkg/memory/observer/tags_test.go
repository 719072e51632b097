package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTags(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected []string
	}{
		{"typescript files", FileModified{Files: []string{"src/app.ts", "src/view.tsx"}}, []string{"typescript"}},
		{"test directory", FileModified{Files: []string{"pkg/__tests__/util.js"}}, []string{"javascript", "testing"}},
		{"test file name", FileModified{Files: []string{"store_test.go"}}, []string{"go", "testing"}},
		{"unknown extension", FileModified{Files: []string{"Makefile"}}, nil},
		{"null dereference", ErrorEncountered{Error: "Cannot read property 'x' of null"}, []string{"null-check"}},
		{"go nil pointer", ErrorEncountered{Error: "panic: runtime error: invalid memory address or nil pointer dereference"}, []string{"null-check"}},
		{"missing module", TaskFailed{Error: "Error: Cannot find module 'lodash'"}, []string{"dependencies"}},
		{"verification", VerificationFailed{Error: "expected 2 got 3"}, []string{"testing"}},
		{"decision has none", CheckpointDecision{Decision: "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, generateTags(tt.event))
		})
	}
}
