package injector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

func sampleMemories() []InjectedMemory {
	return []InjectedMemory{
		{
			Learning: memtypes.Learning{
				ID:         "m1",
				Title:      `Use <Suspense> & "quotes"`,
				Content:    "Wrap lazy routes in <Suspense fallback='spinner'>.",
				Scope:      memtypes.ScopeProject,
				Tags:       []string{"react", "typescript"},
				Frameworks: []string{"react"},
			},
			RelevanceScore: 80,
			MatchedBy:      MatchedBy{Frameworks: []string{"react"}, Tags: []string{"react"}},
		},
	}
}

func TestFormattersRenderNothingForEmptySelection(t *testing.T) {
	for _, f := range []Formatter{XMLFormatter{}, MDCFormatter{}, CompactFormatter{}, MarkdownFormatter{}} {
		assert.Empty(t, f.Format(nil, DisclosureFull))
	}
}

func TestXMLFormatterEscapes(t *testing.T) {
	out := XMLFormatter{}.Format(sampleMemories(), DisclosureFull)

	assert.Contains(t, out, `<skillkit-memories count="1">`)
	assert.Contains(t, out, `<memory id="m1" scope="project" relevance="80">`)
	assert.Contains(t, out, "<title>Use &lt;Suspense&gt; &amp; &quot;quotes&quot;</title>")
	assert.Contains(t, out, "<content>Wrap lazy routes in &lt;Suspense fallback=&apos;spinner&apos;&gt;.</content>")
	assert.Contains(t, out, "<matched-by>frameworks: react; tags: react</matched-by>")
	assert.True(t, strings.HasSuffix(out, "</skillkit-memories>\n"))

	summary := XMLFormatter{}.Format(sampleMemories(), DisclosureSummary)
	assert.NotContains(t, summary, "<content>")
}

func TestMDCFormatter(t *testing.T) {
	out := MDCFormatter{}.Format(sampleMemories(), DisclosurePreview)

	assert.True(t, strings.HasPrefix(out, "---\ndescription: "))
	assert.Contains(t, out, "globs: \"**/*.jsx,**/*.ts,**/*.tsx\"\n")

	parts := strings.SplitN(out, "---\n", 3)
	require.Len(t, parts, 3)
	var meta struct {
		Description string `yaml:"description"`
		Globs       string `yaml:"globs"`
		AlwaysApply bool   `yaml:"alwaysApply"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &meta))
	assert.Equal(t, "**/*.jsx,**/*.ts,**/*.tsx", meta.Globs)
	assert.False(t, meta.AlwaysApply)
	assert.Contains(t, out, "alwaysApply: false\n")
	assert.Contains(t, out, "## Use <Suspense> & \"quotes\"")
	assert.Contains(t, out, "Tags: react, typescript")

	plain := sampleMemories()
	plain[0].Learning.Tags = []string{"architecture"}
	plain[0].Learning.Frameworks = nil
	assert.Contains(t, MDCFormatter{}.Format(plain, DisclosureSummary), "globs: \"**/*\"\n")
}

func TestCompactFormatter(t *testing.T) {
	memories := sampleMemories()
	memories[0].Learning.Content = "line one\nline two"

	out := CompactFormatter{}.Format(memories, DisclosureFull)
	assert.True(t, strings.HasPrefix(out, "<!-- skillkit:memories:start -->\n"))
	assert.True(t, strings.HasSuffix(out, "<!-- skillkit:memories:end -->\n"))
	assert.Contains(t, out, "- **Use <Suspense> & \"quotes\"** [react, typescript]: line one line two\n")
}

func TestMarkdownFormatter(t *testing.T) {
	out := MarkdownFormatter{}.Format(sampleMemories(), DisclosureFull)

	assert.Contains(t, out, "## 1. Use <Suspense> & \"quotes\"")
	assert.Contains(t, out, "_Relevance: 80% | Tags: react, typescript | Matched by frameworks: react; tags: react_")
	assert.Contains(t, out, "Wrap lazy routes")
}

type upperFormatter struct{}

func (upperFormatter) Format(memories []InjectedMemory, _ DisclosureLevel) string {
	return strings.ToUpper(memories[0].Learning.Title)
}

func TestFormatterLookup(t *testing.T) {
	inj := New(&fakeSource{learnings: []memtypes.Learning{hooksLearning()}}, nil, WithClock(fixedClock))

	assert.IsType(t, XMLFormatter{}, inj.FormatterFor("claude"))
	assert.IsType(t, XMLFormatter{}, inj.FormatterFor(" Claude-Code "))
	assert.IsType(t, MDCFormatter{}, inj.FormatterFor("cursor"))
	assert.IsType(t, CompactFormatter{}, inj.FormatterFor("github-copilot"))
	assert.IsType(t, CompactFormatter{}, inj.FormatterFor("codex"))
	assert.IsType(t, MarkdownFormatter{}, inj.FormatterFor("unknown-agent"))

	inj.RegisterFormatter("Shouty", upperFormatter{})
	opts := DefaultOptions()
	opts.MinRelevance = 0
	result, err := inj.InjectForAgent(context.Background(), "shouty", opts)
	require.NoError(t, err)
	assert.Equal(t, "CALL HOOKS AT THE TOP LEVEL", result.Formatted)
}
