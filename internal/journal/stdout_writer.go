// Writer implementation printing journal events to STDOUT
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutWriter prints journey events as JSON lines.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

// Write outputs a single event row.
func (w *StdoutWriter) Write(row EventRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteBatch outputs multiple event rows.
func (w *StdoutWriter) WriteBatch(rows []EventRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
