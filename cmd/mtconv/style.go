package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// printer writes styled output, falling back to plain text when the
// terminal has no color support.
type printer struct {
	w   io.Writer
	out *termenv.Output
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, out: termenv.NewOutput(w)}
}

func (p *printer) heading(format string, args ...any) {
	fmt.Fprintln(p.w, p.out.String(fmt.Sprintf(format, args...)).Bold().Underline())
}

func (p *printer) field(label string, value any) {
	fmt.Fprintf(p.w, "%s %v\n", p.out.String(fmt.Sprintf("%-10s", label+":")).Faint(), value)
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.out.String(fmt.Sprintf(format, args...)).Foreground(p.out.Color("3")))
}

func (p *printer) ok(format string, args ...any) {
	fmt.Fprintln(p.w, p.out.String(fmt.Sprintf(format, args...)).Foreground(p.out.Color("2")))
}

func (p *printer) blank() {
	fmt.Fprintln(p.w)
}
