package journal

import (
	"context"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeWriter ships journey events to GreptimeDB via the ingester
// client, for dashboards over many runs.
type GreptimeWriter struct {
	client *greptime.Client
	table  string
}

// NewGreptimeWriter creates a GreptimeDB writer and auto-creates the
// events table if needed.
func NewGreptimeWriter(endpoint, database, tableName string) (*GreptimeWriter, error) {
	if tableName == "" {
		tableName = "journey_events"
	}
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeWriter{client: client, table: tableName}, nil
}

// Write inserts a single event row.
func (w *GreptimeWriter) Write(row EventRow) error {
	return w.WriteBatch([]EventRow{row})
}

// WriteBatch inserts multiple event rows.
func (w *GreptimeWriter) WriteBatch(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("tier", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("type", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("hex", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("detection", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("detail", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, int64(r.Tier), string(r.Type), r.Hex,
			r.Detection, r.Detail, r.Timestamp); err != nil {
			return err
		}
	}

	_, err = w.client.Write(context.Background(), tbl)
	return err
}
