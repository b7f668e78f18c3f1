//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package diagnostic

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/program"
)

const _separator = "----------"

// Printer renders diagnostics in the classic compiler layout:
//
//	----------
//	1. ERROR in p/X.java (at line 3)
//		o.toString();
//		^
//	Potential null pointer access: The variable o may be null at this location
//
// Excerpts are printed only when the source text of the file is known.
type Printer struct {
	w       io.Writer
	sources map[string]string
	count   int

	errors, warnings, infos int

	errorColor, warningColor, infoColor, caretColor *color.Color
}

// NewPrinter returns a printer writing to w. Sources maps file names to their text.
func NewPrinter(w io.Writer, sources map[string]string, colorize bool) *Printer {
	p := &Printer{
		w:            w,
		sources:      sources,
		errorColor:   color.New(color.FgRed, color.Bold),
		warningColor: color.New(color.FgYellow, color.Bold),
		infoColor:    color.New(color.FgCyan),
		caretColor:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.errorColor, p.warningColor, p.infoColor, p.caretColor} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print renders the diagnostics; numbering continues across calls.
func (p *Printer) Print(diags []Diagnostic) error {
	for _, d := range diags {
		if err := p.print(d); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) print(d Diagnostic) error {
	p.count++
	var sev *color.Color
	switch d.Severity {
	case SeverityError:
		p.errors++
		sev = p.errorColor
	case SeverityWarning:
		p.warnings++
		sev = p.warningColor
	default:
		p.infos++
		sev = p.infoColor
	}

	var b strings.Builder
	b.WriteString(_separator + "\n")
	fmt.Fprintf(&b, "%d. %s in %s (at line %d)\n", p.count, sev.Sprint(d.Severity), ShortFilename(d.Span.Filename), d.Span.Line)
	if line, caret, ok := excerpt(p.sources[d.Span.Filename], d.Span); ok {
		fmt.Fprintf(&b, "\t%s\n\t%s\n", line, p.caretColor.Sprint(caret))
	}
	b.WriteString(d.Message + "\n")
	for _, n := range d.Notes {
		b.WriteString("Note: " + n + "\n")
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Summary writes the closing separator and the problem counts, e.g., "2 problems (1 error, 1 warning)".
func (p *Printer) Summary() error {
	if p.count == 0 {
		return nil
	}
	var parts []string
	if p.errors > 0 {
		parts = append(parts, plural(p.errors, "error", "errors"))
	}
	if p.warnings > 0 {
		parts = append(parts, plural(p.warnings, "warning", "warnings"))
	}
	if p.infos > 0 {
		parts = append(parts, plural(p.infos, "info", "infos"))
	}
	_, err := fmt.Fprintf(p.w, "%s\n%s (%s)\n", _separator, plural(p.count, "problem", "problems"), strings.Join(parts, ", "))
	return err
}

// Errors returns the number of errors printed so far.
func (p *Printer) Errors() int {
	return p.errors
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// ShortFilename keeps config.DirLevelsToPrint enclosing directories of the file name.
func ShortFilename(name string) string {
	name = filepath.ToSlash(name)
	parts := strings.Split(name, "/")
	if keep := config.DirLevelsToPrint + 1; len(parts) > keep {
		parts = parts[len(parts)-keep:]
	}
	return strings.Join(parts, "/")
}

// excerpt returns the source line of the span with leading white space removed, and a caret
// marker underlining the span within that line.
func excerpt(src string, s program.Span) (string, string, bool) {
	if src == "" || s.Offset < 0 || s.Offset > len(src) {
		return "", "", false
	}
	start := strings.LastIndexByte(src[:s.Offset], '\n') + 1
	end := strings.IndexByte(src[s.Offset:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += s.Offset
	}
	line := strings.TrimRight(src[start:end], "\r")
	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	col := s.Offset - start - indent
	if col < 0 {
		col = 0
	}
	width := min(s.End, start+len(line)) - s.Offset
	if width < 1 {
		width = 1
	}
	return trimmed, strings.Repeat(" ", col) + strings.Repeat("^", width), true
}
