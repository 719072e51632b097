// Package presenter renders user-facing CLI output with color support and
// a quiet mode. Machine-readable output (JSON, formatted memories) goes
// straight to the output writer and is never colored.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// MemoryStats summarizes the state of the memory stores
type MemoryStats struct {
	SessionID       string
	Observations    int
	PendingErrors   int
	ProjectLearning int
	GlobalLearning  int
}

// Presenter is the CLI output surface
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Table(headers []string, rows [][]string)
	Stats(stats *MemoryStats)
	Raw(text string)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode selects whether output is colored
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal support
	ColorAuto ColorMode = iota
	// ColorAlways forces color
	ColorAlways
	// ColorNever disables color
	ColorNever
)

// New creates a TerminalPresenter writing to stdout and stderr
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom writers
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILLKIT_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error writes err to stderr. Quiet mode does not suppress errors.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
		return
	}
	errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
}

func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning writes to stderr so that piped output stays machine-readable
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.errorOutput, "⚠ %s\n", message)
}

func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, message)
}

// Section writes an underlined header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	header := color.New(color.Bold)
	header.Fprintln(p.output, title)
	header.Fprintln(p.output, strings.Repeat("-", len(title)))
}

// Table writes rows aligned in columns under a bold header row
func (p *TerminalPresenter) Table(headers []string, rows [][]string) {
	if p.quiet {
		return
	}

	w := tabwriter.NewWriter(p.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(strings.Join(headers, "\t")))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// Stats writes a one-line summary of the memory stores
func (p *TerminalPresenter) Stats(stats *MemoryStats) {
	if p.quiet || stats == nil {
		return
	}

	statsColor := color.New(color.FgCyan, color.Bold)
	statsColor.Fprintf(p.output, "[Memory] Session: %s | Observations: %d | Pending errors: %d | Learnings: %d project, %d global\n",
		stats.SessionID, stats.Observations, stats.PendingErrors, stats.ProjectLearning, stats.GlobalLearning)
}

// Raw writes text unchanged, even in quiet mode
func (p *TerminalPresenter) Raw(text string) {
	fmt.Fprint(p.output, text)
}

func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintln(p.output, strings.Repeat("-", 60))
}

func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter Presenter = New()

// Default returns the process-wide presenter
func Default() Presenter {
	return defaultPresenter
}

func Error(err error, context string) { defaultPresenter.Error(err, context) }
func Success(message string) { defaultPresenter.Success(message) }
func Warning(message string) { defaultPresenter.Warning(message) }
func Info(message string) { defaultPresenter.Info(message) }
func Section(title string) { defaultPresenter.Section(title) }
func Table(headers []string, rows [][]string) { defaultPresenter.Table(headers, rows) }
func Stats(stats *MemoryStats) { defaultPresenter.Stats(stats) }
func Raw(text string) { defaultPresenter.Raw(text) }
func Separator() { defaultPresenter.Separator() }
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
func IsQuiet() bool { return defaultPresenter.IsQuiet() }
