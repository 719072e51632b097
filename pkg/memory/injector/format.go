package injector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Formatter renders selected memories for one family of agents
type Formatter interface {
	Format(memories []InjectedMemory, level DisclosureLevel) string
}

func defaultFormatters() map[string]Formatter {
	xml := XMLFormatter{}
	mdc := MDCFormatter{}
	compact := CompactFormatter{}
	return map[string]Formatter{
		"claude":         xml,
		"claude-code":    xml,
		"cursor":         mdc,
		"copilot":        compact,
		"github-copilot": compact,
		"codex":          compact,
	}
}

// RegisterFormatter makes agent render through f
func (i *Injector) RegisterFormatter(agent string, f Formatter) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.formatters[strings.ToLower(agent)] = f
}

// FormatterFor returns the formatter registered for agent, or the generic
// Markdown formatter
func (i *Injector) FormatterFor(agent string) Formatter {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if f, ok := i.formatters[strings.ToLower(strings.TrimSpace(agent))]; ok {
		return f
	}
	return i.fallback
}

// body returns the content shown at level
func body(m InjectedMemory, level DisclosureLevel) string {
	switch level {
	case DisclosureFull:
		return strings.TrimSpace(m.Learning.Content)
	case DisclosurePreview:
		return excerpt(m.Learning.Content)
	default:
		return ""
	}
}

func describeMatch(m MatchedBy) string {
	var parts []string
	add := func(label string, values []string) {
		if len(values) > 0 {
			parts = append(parts, label+": "+strings.Join(values, ", "))
		}
	}
	add("frameworks", m.Frameworks)
	add("tags", m.Tags)
	add("keywords", m.Keywords)
	add("patterns", m.Patterns)
	return strings.Join(parts, "; ")
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the five XML special characters
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// XMLFormatter renders an XML block for Claude-style agents
type XMLFormatter struct{}

// Format implements Formatter
func (XMLFormatter) Format(memories []InjectedMemory, level DisclosureLevel) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<skillkit-memories count=\"%d\">\n", len(memories))
	for _, m := range memories {
		fmt.Fprintf(&b, "  <memory id=\"%s\" scope=\"%s\" relevance=\"%d\">\n",
			EscapeXML(m.Learning.ID), EscapeXML(string(m.Learning.Scope)), m.RelevanceScore)
		fmt.Fprintf(&b, "    <title>%s</title>\n", EscapeXML(m.Learning.Title))
		if len(m.Learning.Tags) > 0 {
			fmt.Fprintf(&b, "    <tags>%s</tags>\n", EscapeXML(strings.Join(m.Learning.Tags, ", ")))
		}
		if text := body(m, level); text != "" {
			fmt.Fprintf(&b, "    <content>%s</content>\n", EscapeXML(text))
		}
		if match := describeMatch(m.MatchedBy); match != "" {
			fmt.Fprintf(&b, "    <matched-by>%s</matched-by>\n", EscapeXML(match))
		}
		b.WriteString("  </memory>\n")
	}
	b.WriteString("</skillkit-memories>\n")
	return b.String()
}

var labelGlobs = map[string][]string{
	"typescript": {"**/*.ts", "**/*.tsx"},
	"javascript": {"**/*.js", "**/*.jsx"},
	"react":      {"**/*.tsx", "**/*.jsx"},
	"vue":        {"**/*.vue"},
	"svelte":     {"**/*.svelte"},
	"go":         {"**/*.go"},
	"golang":     {"**/*.go"},
	"python":     {"**/*.py"},
	"rust":       {"**/*.rs"},
	"java":       {"**/*.java"},
	"kotlin":     {"**/*.kt"},
	"ruby":       {"**/*.rb"},
	"css":        {"**/*.css", "**/*.scss"},
	"sql":        {"**/*.sql"},
	"testing":    {"**/*.test.*", "**/*_test.*", "**/*.spec.*"},
}

// globsFor derives Cursor rule globs from the frameworks and tags of the
// memories
func globsFor(memories []InjectedMemory) []string {
	set := make(map[string]struct{})
	for _, m := range memories {
		labels := append(append([]string{}, m.Learning.Frameworks...), m.Learning.Tags...)
		for _, label := range labels {
			for _, g := range labelGlobs[strings.ToLower(label)] {
				if doublestar.ValidatePattern(g) {
					set[g] = struct{}{}
				}
			}
		}
	}
	if len(set) == 0 {
		return []string{"**/*"}
	}

	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// MDCFormatter renders a Cursor rule: Markdown with a frontmatter block
type MDCFormatter struct{}

// Format implements Formatter
func (MDCFormatter) Format(memories []InjectedMemory, level DisclosureLevel) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "description: Project memories (%d learnings from previous sessions)\n", len(memories))
	// Quoted: a bare leading * reads as a YAML alias
	fmt.Fprintf(&b, "globs: %s\n", strconv.Quote(strings.Join(globsFor(memories), ",")))
	b.WriteString("alwaysApply: false\n")
	b.WriteString("---\n\n")
	b.WriteString("# Project Memories\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "\n## %s\n", m.Learning.Title)
		if text := body(m, level); text != "" {
			fmt.Fprintf(&b, "\n%s\n", text)
		}
		if len(m.Learning.Tags) > 0 {
			fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(m.Learning.Tags, ", "))
		}
	}
	return b.String()
}

// CompactFormatter renders compact Markdown wrapped in HTML comments for
// Copilot and Codex style instruction files
type CompactFormatter struct{}

// Format implements Formatter
func (CompactFormatter) Format(memories []InjectedMemory, level DisclosureLevel) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<!-- skillkit:memories:start -->\n")
	b.WriteString("## Relevant Memories\n\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- **%s**", m.Learning.Title)
		if len(m.Learning.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(m.Learning.Tags, ", "))
		}
		if text := body(m, level); text != "" {
			fmt.Fprintf(&b, ": %s", strings.Join(strings.Fields(text), " "))
		}
		b.WriteString("\n")
	}
	b.WriteString("<!-- skillkit:memories:end -->\n")
	return b.String()
}

// MarkdownFormatter is the generic rendering used for unknown agents
type MarkdownFormatter struct{}

// Format implements Formatter
func (MarkdownFormatter) Format(memories []InjectedMemory, level DisclosureLevel) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Relevant Memories\n")
	for idx, m := range memories {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", idx+1, m.Learning.Title)
		meta := []string{fmt.Sprintf("Relevance: %d%%", m.RelevanceScore)}
		if len(m.Learning.Tags) > 0 {
			meta = append(meta, "Tags: "+strings.Join(m.Learning.Tags, ", "))
		}
		if match := describeMatch(m.MatchedBy); match != "" {
			meta = append(meta, "Matched by "+match)
		}
		fmt.Fprintf(&b, "_%s_\n", strings.Join(meta, " | "))
		if text := body(m, level); text != "" {
			fmt.Fprintf(&b, "\n%s\n", text)
		}
	}
	return b.String()
}
