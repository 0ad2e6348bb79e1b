package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders one kind of output text: colored on a capable terminal,
// wrapped in plain decorations otherwise.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...interface{}) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// NO_COLOR (https://no-color.org/) wins over fatih/color's terminal detection.
func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
)

// Without color, Code gets backticks, Highlight single quotes and Muted
// parentheses. The rest are left bare.
var (
	Code      = Formatter{yellow, "`", "`"}
	Path      = Formatter{yellow, "", ""}
	Flag      = Formatter{yellow, "", ""}
	Success   = Formatter{green, "", ""}
	Error     = Formatter{red, "", ""}
	Warning   = Formatter{yellow, "", ""}
	Info      = Formatter{cyan, "", ""}
	Highlight = Formatter{cyan, "'", "'"}
	Muted     = Formatter{gray, "(", ")"}
)

// Mark is a check mark, or a cross when failed.
func Mark(failed bool) string {
	if failed {
		return Error.Sprint("✗")
	}
	return Success.Sprint("✓")
}

// Changes renders a remote diff as "+added ~updated -removed", or
// "up to date" when all three are zero.
func Changes(added, updated, removed int) string {
	if added+updated+removed == 0 {
		return "up to date"
	}
	return strings.Join([]string{
		Success.Sprintf("+%d", added),
		Warning.Sprintf("~%d", updated),
		Error.Sprintf("-%d", removed),
	}, " ")
}

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
