package main

import (
	"os"

	"golang.org/x/term"

	"eremos-run/internal/journal"
)

// newWriters sets up the journal pipeline from flags and env vars. It
// returns the writer and a cleanup function to close any resources.
func newWriters(jsonOnly bool, logFile string) (journal.Writer, func(), error) {
	cleanup := func() {}

	writers := []journal.Writer{baseWriter(jsonOnly)}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		gw, err := journal.NewGreptimeWriter(endpoint,
			envOr("GREPTIMEDB_DATABASE", "public"),
			os.Getenv("GREPTIMEDB_TABLE"))
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if logFile != "" {
		fw, err := journal.NewFileWriter(logFile)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fw)
		cleanup = func() { fw.Close() }
	}

	if len(writers) == 1 {
		return writers[0], cleanup, nil
	}
	return journal.NewMultiWriter(writers...), cleanup, nil
}

// baseWriter picks colorized output on a terminal, JSON lines otherwise.
func baseWriter(jsonOnly bool) journal.Writer {
	if jsonOnly || !term.IsTerminal(int(os.Stdout.Fd())) {
		return journal.NewStdoutWriter()
	}
	return journal.NewColorWriter()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
