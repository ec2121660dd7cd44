// internal/command/writer.go
package command

import (
	"fmt"
	"io"
	"time"
)

// WriteError reports a batch that did not reach the sink completely.
// The first Written commands were accepted by the sink before Err.
type WriteError struct {
	Written int
	Total   int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("wrote %d of %d commands: %v", e.Written, e.Total, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Write appends one line per command, all stamped with at. Each line is a
// single Write call so an append-mode file never interleaves half lines from
// one batch. Writing stops at the first failure. A batch holding an invalid
// command is refused before anything is written.
func Write(w io.Writer, cmds []Command, at time.Time) error {
	for _, cmd := range cmds {
		if err := cmd.Validate(); err != nil {
			return &WriteError{Written: 0, Total: len(cmds), Err: err}
		}
	}

	ts := at.Unix()
	for i, cmd := range cmds {
		line := []byte(cmd.Line(ts))
		n, err := w.Write(line)
		if err == nil && n < len(line) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return &WriteError{Written: i, Total: len(cmds), Err: err}
		}
	}
	return nil
}
