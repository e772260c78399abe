package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func paint(on bool, code, text string) string {
	if !on {
		return text
	}
	return code + text + colorReset
}

// Pretty renders e for a terminal. Colors are only emitted when color is
// true.
func (e *Error) Pretty(color bool) string {
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	b.WriteString(paint(color, colorRed+colorBold, head))
	b.WriteString(": ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  cause: %v\n", e.Wrapped)
	}
	if e.Detail != "" {
		b.WriteString("  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(paint(color, colorCyan, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	return b.String()
}

// Print writes err to w, using Pretty for structured errors.
func Print(w io.Writer, err error, color bool) {
	if err == nil {
		return
	}
	var e *Error
	if stderrors.As(err, &e) {
		io.WriteString(w, e.Pretty(color))
		return
	}
	fmt.Fprintf(w, "%s: %v\n", paint(color, colorRed+colorBold, "ERROR"), err)
}
