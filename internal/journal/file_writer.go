package journal

import (
	"encoding/json"
	"os"
)

// FileWriter appends journey events to a JSONL file.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter at path, truncating any prior log.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single event row.
func (f *FileWriter) Write(row EventRow) error {
	return f.enc.Encode(row)
}

// WriteBatch logs multiple event rows.
func (f *FileWriter) WriteBatch(rows []EventRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
