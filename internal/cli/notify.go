package cli

import (
	"fmt"
	"io"
)

// Toast is the terminal notification surface. It satisfies api.Notifier and
// stands in for the toast popups of a graphical client.
type Toast struct {
	out io.Writer
}

func NewToast(out io.Writer) *Toast {
	return &Toast{out: out}
}

func (t *Toast) Error(msg string) {
	fmt.Fprintf(t.out, "error: %s\n", msg)
}

func (t *Toast) Success(msg string) {
	fmt.Fprintf(t.out, "ok: %s\n", msg)
}

func (t *Toast) Info(msg string) {
	fmt.Fprintf(t.out, "info: %s\n", msg)
}
