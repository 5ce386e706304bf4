package cli

import (
	"fmt"
	"io"
)

// IO is the output side of one command run.
//
// Warnings collected with [IO.Warn] go to stderr twice: before the first
// stdout line and again from [IO.Finish], so they survive head and tail.
// Finish turns them into exit code 1 and clears them, which lets the
// console reuse one IO for every line it runs.
type IO struct {
	out    io.Writer
	errOut io.Writer

	warnings []string
	shown    bool
}

// NewIO returns an IO writing to out and errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records issue with the action that resolves it. Output continues.
func (o *IO) Warn(issue string, action string) {
	o.warnings = append(o.warnings, issue+": "+action)
}

// Println writes a stdout line.
func (o *IO) Println(a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted stdout output.
func (o *IO) Printf(format string, a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes a stderr line.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish repeats the warnings and returns the exit code for them.
func (o *IO) Finish() int {
	o.showWarnings()
	o.printWarnings()

	code := 0
	if len(o.warnings) > 0 {
		code = 1
	}

	o.warnings, o.shown = nil, false

	return code
}

// showWarnings prints pending warnings once, ahead of regular output.
func (o *IO) showWarnings() {
	if o.shown || len(o.warnings) == 0 {
		return
	}

	o.printWarnings()
	o.shown = true
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		o.ErrPrintln("warning:", w)
	}
}
