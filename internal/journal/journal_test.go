package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type collectWriter struct{ rows []EventRow }

func (c *collectWriter) Write(r EventRow) error {
	c.rows = append(c.rows, r)
	return nil
}

type failWriter struct{}

func (failWriter) Write(EventRow) error { return errors.New("boom") }

func sampleRow() EventRow {
	return EventRow{
		RunID:     "r1",
		Tier:      2,
		Type:      EventMove,
		Hex:       "1,-1",
		Detection: 7,
		Detail:    "moved",
		Timestamp: time.Unix(0, 0),
	}
}

func TestStdoutWriterEmitsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf}
	if err := w.Write(sampleRow()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var row EventRow
	if err := json.Unmarshal(buf.Bytes(), &row); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if row.RunID != "r1" || row.Type != EventMove {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestColorWriterFormatsLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorWriter{out: buf}
	if err := w.Write(sampleRow()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "move") || !strings.Contains(out, "1,-1") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rows := []EventRow{sampleRow(), sampleRow()}
	rows[1].Type = EventSalvage
	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestMultiWriterFanOut(t *testing.T) {
	a := &collectWriter{}
	b := &collectWriter{}
	mw := NewMultiWriter(a, b)
	if err := mw.Write(sampleRow()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(a.rows) != 1 || len(b.rows) != 1 {
		t.Fatalf("fan-out failed: %d/%d", len(a.rows), len(b.rows))
	}
}

func TestMultiWriterPropagatesError(t *testing.T) {
	mw := NewMultiWriter(&collectWriter{}, failWriter{})
	if err := mw.Write(sampleRow()); err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestReplay(t *testing.T) {
	rows := []EventRow{
		{RunID: "r1", Type: EventRunStarted, Timestamp: time.Unix(0, 0)},
		{RunID: "r1", Type: EventMove, Hex: "0,1", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := Replay(&buf, cw, 0); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(cw.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cw.rows))
	}
	if cw.rows[1].Type != EventMove {
		t.Fatalf("row order lost: %+v", cw.rows)
	}
}

func TestReplayFileMissing(t *testing.T) {
	if err := ReplayFile(filepath.Join(t.TempDir(), "nope.jsonl"), &collectWriter{}, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
