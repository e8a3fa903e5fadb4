package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

/*
Console output shared by the feature pipeline, the detector and the CLI.
Every status line is prefixed with a colored tag:
[*] info, [+] success, [!] warning, [-] error, [!!!] alert.
Color is only emitted when the destination is a terminal.
*/

// Printer writes prefixed status lines to an output stream
type Printer struct {
	out     io.Writer
	info    func(a ...interface{}) string
	success func(a ...interface{}) string
	warning func(a ...interface{}) string
	failure func(a ...interface{}) string
	alert   func(a ...interface{}) string
}

// New creates a Printer writing to w. Color is enabled only if w is a terminal.
func New(w io.Writer) *Printer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return newPrinter(w, colored)
}

// Stdout creates a Printer bound to standard output
func Stdout() *Printer {
	return newPrinter(colorable.NewColorableStdout(), !color.NoColor)
}

func newPrinter(w io.Writer, colored bool) *Printer {
	sprint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	return &Printer{
		out:     w,
		info:    sprint(color.FgBlue),
		success: sprint(color.FgGreen),
		warning: sprint(color.FgYellow),
		failure: sprint(color.FgRed),
		alert:   sprint(color.FgRed, color.Bold),
	}
}

// Writer returns the underlying output stream
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.info("[*]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.success("[+]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.warning("[!]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.failure("[-]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Alert(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.alert("[!!!]"), fmt.Sprintf(format, args...))
}

// Println writes an unprefixed line
func (p *Printer) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes unprefixed formatted output
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Tag returns the colored tag for a score, using the same bands as the alert levels.
func (p *Printer) Tag(score float64) string {
	switch {
	case score > 0.8:
		return p.alert("[!!!]")
	case score > 0.5:
		return p.warning("[!]")
	default:
		return p.success("[+]")
	}
}
