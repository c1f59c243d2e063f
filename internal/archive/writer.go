package archive

import (
	"fmt"
	"io"
	"sync"
)

const (
	StreamTypeStdout = "stdout"
	StreamTypeStderr = "stderr"
	StreamTypeError  = "error"
)

// ConsoleProgressWriter prints progress notices as plain lines, errors to
// errOut and everything else to out.
type ConsoleProgressWriter struct {
	out    io.Writer
	errOut io.Writer
	mu     sync.Mutex
}

func NewConsoleProgressWriter(out, errOut io.Writer) *ConsoleProgressWriter {
	return &ConsoleProgressWriter{out: out, errOut: errOut}
}

func (w *ConsoleProgressWriter) WriteMessage(msgType string, data string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := w.out
	if msgType == StreamTypeError || msgType == StreamTypeStderr {
		target = w.errOut
	}
	_, _ = fmt.Fprintln(target, data)
}

func (w *ConsoleProgressWriter) WriteError(data string) {
	w.WriteMessage(StreamTypeError, data)
}

func (w *ConsoleProgressWriter) WriteStdout(data string) {
	w.WriteMessage(StreamTypeStdout, data)
}
