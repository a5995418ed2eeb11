// Package dumpfmt formats warp Show dumps for terminal display: it aligns
// the '=' signs of consecutive assignments and can colorize the structural
// Begin/End lines. Formatting is purely cosmetic; a formatted dump is no
// longer the canonical channel form.
package dumpfmt

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cfg controls formatting.
type Cfg struct {
	// Align pads attribute names within each Begin/End block so the '='
	// signs line up.
	Align bool
	// Color wraps Begin/End lines in ANSI color escapes.
	Color bool
	// Indent replaces the dump's three space indentation unit, when set.
	Indent string
}

const (
	colorStruct = "\x1b[36m"
	colorReset  = "\x1b[0m"

	dumpIndent = "   "
)

// Format renders a native dump for display according to cfg.
func Format(dump string, cfg Cfg) string {
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	if cfg.Align {
		alignBlocks(lines)
	}
	for i, line := range lines {
		if cfg.Indent != "" {
			line = reindent(line, cfg.Indent)
		}
		if cfg.Color && isStructural(line) {
			line = colorStruct + line + colorReset
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n") + "\n"
}

func isStructural(line string) bool {
	t := strings.TrimLeft(line, " ")
	return strings.HasPrefix(t, "Begin ") || strings.HasPrefix(t, "End ")
}

// alignBlocks pads the name side of consecutive assignment lines sharing
// one indentation depth. Display width is measured with runewidth so
// non-ASCII attribute values upstream never skew the padding.
func alignBlocks(lines []string) {
	start := -1
	width := 0
	flush := func(end int) {
		if start < 0 {
			return
		}
		for i := start; i < end; i++ {
			name, rest, _ := strings.Cut(lines[i], "=")
			pad := width - runewidth.StringWidth(strings.TrimRight(name, " "))
			lines[i] = strings.TrimRight(name, " ") + strings.Repeat(" ", pad+1) + "=" + rest
		}
		start = -1
		width = 0
	}
	depth := 0
	for i, line := range lines {
		d := len(line) - len(strings.TrimLeft(line, " "))
		name, _, found := strings.Cut(line, "=")
		if !found || isStructural(line) || (start >= 0 && d != depth) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			depth = d
		}
		if w := runewidth.StringWidth(strings.TrimRight(name, " ")); w > width {
			width = w
		}
	}
	flush(len(lines))
}

func reindent(line, unit string) string {
	trimmed := strings.TrimLeft(line, " ")
	depth := (len(line) - len(trimmed)) / len(dumpIndent)
	return strings.Repeat(unit, depth) + trimmed
}
