// Package frontmatter splits Markdown documents into their YAML metadata
// block and body. It is shared by SKILL.md discovery and learning import.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Document is a parsed Markdown file
type Document struct {
	Meta map[string]any
	Body string
}

var markdown = goldmark.New(goldmark.WithExtensions(meta.Meta))

// Parse reads the frontmatter of raw. A document without frontmatter has
// an empty Meta and the whole input as Body.
func Parse(raw []byte) (Document, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := markdown.Convert(raw, &buf, parser.WithContext(pctx)); err != nil {
		return Document{}, errors.Wrap(err, "failed to parse markdown")
	}

	m, err := meta.TryGet(pctx)
	if err != nil {
		return Document{}, errors.Wrap(err, "invalid frontmatter")
	}
	if m == nil {
		m = map[string]any{}
	}

	return Document{Meta: m, Body: body(string(raw))}, nil
}

// HasMeta reports whether the document carried a frontmatter block
func (d Document) HasMeta() bool {
	return len(d.Meta) > 0
}

// String returns the string value of key, or ""
func (d Document) String(key string) string {
	s, _ := d.Meta[key].(string)
	return strings.TrimSpace(s)
}

// Int returns the integer value of key
func (d Document) Int(key string) (int, bool) {
	v, ok := d.Meta[key].(int)
	return v, ok
}

// Strings accepts a YAML list or a comma-separated string
func (d Document) Strings(key string) []string {
	switch val := d.Meta[key].(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return val
	case string:
		return strings.Split(val, ",")
	default:
		return nil
	}
}

// FirstHeading returns the text of the first Markdown heading in the body
func (d Document) FirstHeading() string {
	for _, line := range strings.Split(d.Body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// body removes the frontmatter block and leading blank lines
func body(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}
