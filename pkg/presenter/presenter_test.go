package presenter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name     string
		noColor  string
		color    string
		expected ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"always", "", "always", ColorAlways},
		{"force", "", "force", ColorAlways},
		{"never", "", "never", ColorNever},
		{"off", "", "off", ColorNever},
		{"unset", "", "", ColorAuto},
		{"invalid", "", "sometimes", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("SKILLKIT_COLOR", tt.color)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestMessages(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Success("learning added")
	p.Warning("no stack file")
	p.Info("plain")
	p.Section("Learnings")
	p.Error(errors.New("boom"), "inject")
	p.Error(nil, "ignored")

	assert.Equal(t, "✓ learning added\nplain\nLearnings\n---------\n", out.String())
	assert.Equal(t, "⚠ no stack file\n[ERROR] inject: boom\n", errOut.String())
}

func TestQuietMode(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("hidden")
	p.Warning("hidden")
	p.Info("hidden")
	p.Separator()
	p.Table([]string{"A"}, [][]string{{"1"}})
	p.Stats(&MemoryStats{})
	p.Raw("<skillkit-memories/>\n")
	p.Error(errors.New("still shown"), "")

	assert.Equal(t, "<skillkit-memories/>\n", out.String())
	assert.Equal(t, "[ERROR] still shown\n", errOut.String())
}

func TestTable(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Table([]string{"ID", "TITLE"}, [][]string{
		{"a1", "Memoize rows"},
		{"b22", "Index foreign keys"},
	})

	assert.Equal(t, "ID   TITLE\na1   Memoize rows\nb22  Index foreign keys\n", out.String())
}

func TestStats(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Stats(nil)
	p.Stats(&MemoryStats{SessionID: "s1", Observations: 4, PendingErrors: 1, ProjectLearning: 3, GlobalLearning: 2})

	assert.Equal(t, "[Memory] Session: s1 | Observations: 4 | Pending errors: 1 | Learnings: 3 project, 2 global\n", out.String())
}
