// Package output formats command results as text, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// FormatEnv overrides output format detection.
const FormatEnv = "TDASH_OUTPUT_FORMAT"

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value to a Format. "table" is accepted as text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// DetectFormat picks the output format.
// Priority: explicit flag > TDASH_OUTPUT_FORMAT > pipe detection > text.
func DetectFormat(flag string) (Format, error) {
	if flag != "" {
		return ParseFormat(flag)
	}
	if env := os.Getenv(FormatEnv); env != "" {
		if f, err := ParseFormat(env); err == nil {
			return f, nil
		}
	}
	// Piped output is for machines: tdash snapshot | jq .
	if !IsTerminal() {
		return FormatJSON, nil
	}
	return FormatText, nil
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorEnabled reports whether w is a terminal that should receive color.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TDASH_NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalWidth returns the width of stdout, or fallback when unknown.
func TerminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Result is a command result renderable in every format.
type Result interface {
	// Text writes the human-readable form.
	Text(w io.Writer) error
}

// Formatter writes results in one format.
type Formatter struct {
	format Format
	writer io.Writer
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// New creates a Formatter writing text to stdout unless configured otherwise.
func New(opts ...Option) *Formatter {
	f := &Formatter{format: FormatText, writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns the output format.
func (f *Formatter) Format() Format { return f.format }

// Writer returns the output writer.
func (f *Formatter) Writer() io.Writer { return f.writer }

// Output writes r. JSON and YAML serialize r itself.
func (f *Formatter) Output(r Result) error {
	switch f.format {
	case FormatJSON:
		return WriteJSON(f.writer, r, true)
	case FormatYAML:
		return WriteYAML(f.writer, r)
	default:
		return r.Text(f.writer)
	}
}
