package observer

import (
	"path/filepath"
	"strings"
)

var extensionToLanguage = map[string]string{
	"go":     "go",
	"py":     "python",
	"js":     "javascript",
	"mjs":    "javascript",
	"cjs":    "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"tsx":    "typescript",
	"java":   "java",
	"kt":     "kotlin",
	"swift":  "swift",
	"rs":     "rust",
	"rb":     "ruby",
	"php":    "php",
	"c":      "c",
	"h":      "c",
	"cpp":    "cpp",
	"cc":     "cpp",
	"hpp":    "cpp",
	"cs":     "csharp",
	"scala":  "scala",
	"ex":     "elixir",
	"exs":    "elixir",
	"dart":   "dart",
	"vue":    "vue",
	"svelte": "svelte",
	"css":    "css",
	"scss":   "scss",
	"sql":    "sql",
	"sh":     "bash",
	"yaml":   "yaml",
	"yml":    "yaml",
	"md":     "markdown",
}

// errorPatterns maps lower-case error substrings to a canonical tag
var errorPatterns = []struct {
	needles []string
	tag     string
}{
	{[]string{"cannot read propert", "undefined", "null", "nil pointer", "nil map"}, "null-check"},
	{[]string{"is not a function", "typeerror"}, "type-error"},
	{[]string{"cannot find module", "module not found", "no required module", "modulenotfounderror"}, "dependencies"},
	{[]string{"syntaxerror", "unexpected token", "syntax error"}, "syntax"},
	{[]string{"timeout", "timed out", "deadline exceeded"}, "timeout"},
	{[]string{"permission denied", "eacces", "eperm"}, "permissions"},
	{[]string{"econnrefused", "connection refused", "network"}, "network"},
	{[]string{"out of memory", "heap out of memory"}, "memory"},
}

// languageForPath returns the language implied by a file extension
func languageForPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return extensionToLanguage[ext]
}

// isTestPath reports whether any path segment looks like a test location
func isTestPath(path string) bool {
	for _, segment := range strings.FieldsFunc(strings.ToLower(path), func(r rune) bool { return r == '/' || r == '\\' }) {
		if strings.Contains(segment, "test") || segment == "__tests__" || strings.Contains(segment, ".spec.") {
			return true
		}
	}
	return false
}

// generateTags derives deduplicated tags from the files and error text of
// an event
func generateTags(ev Event) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, f := range files(ev) {
		add(languageForPath(f))
		if isTestPath(f) {
			add("testing")
		}
	}

	if text := strings.ToLower(errorText(ev)); text != "" {
		for _, p := range errorPatterns {
			for _, needle := range p.needles {
				if strings.Contains(text, needle) {
					add(p.tag)
					break
				}
			}
		}
	}

	switch ev.(type) {
	case VerificationPassed, VerificationFailed:
		add("testing")
	}

	return tags
}
