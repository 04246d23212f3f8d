package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Batch describes one completed export run.
type Batch struct {
	ID          string         `json:"id"`
	ExportedAt  time.Time      `json:"exported_at"`
	Directory   string         `json:"directory"`
	TableCounts map[string]int `json:"table_counts"`
}

// Exporter dumps campaign data to JSON files for offline analysis.
type Exporter struct {
	DB *sql.DB
}

func NewExporter(db *sql.DB) *Exporter {
	return &Exporter{DB: db}
}

// tables lists what an export run covers, in dump order.
var tables = []string{
	"users",
	"campaigns",
	"lab_tests",
	"drugs",
	"campaign_lab_tests",
	"campaign_drugs",
	"patients",
	"vitals",
	"consultations",
	"lab_orders",
	"prescriptions",
	"lab_results",
	"worksheets",
	"worksheet_orders",
	"audit_log",
}

// Run dumps every table to <outDir>/<batch>/<table>.json and writes a
// summary.json with the row counts. Column names come from the result set
// so the dump follows the schema without a per-table mapping.
func (e *Exporter) Run(outDir string) (*Batch, error) {
	batch := &Batch{
		ID:          uuid.NewString(),
		ExportedAt:  time.Now(),
		TableCounts: map[string]int{},
	}
	batch.Directory = filepath.Join(outDir, batch.ID)
	if err := os.MkdirAll(batch.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %v", err)
	}

	for _, table := range tables {
		count, err := e.dumpTable(table, batch.Directory)
		if err != nil {
			return nil, fmt.Errorf("export %s: %v", table, err)
		}
		batch.TableCounts[table] = count
	}

	summary, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(batch.Directory, "summary.json"), summary, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write summary: %v", err)
	}
	return batch, nil
}

func (e *Exporter) dumpTable(table, dir string) (int, error) {
	rows, err := e.DB.Query("SELECT * FROM " + table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	var records []map[string]interface{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return 0, err
		}
		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			switch v := values[i].(type) {
			case []byte:
				record[column] = string(v)
			default:
				record[column] = v
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(dir, table+".json"), payload, 0o644); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Files returns the paths of a batch's dump files, summary included.
func (b *Batch) Files() []string {
	files := make([]string, 0, len(tables)+1)
	for _, table := range tables {
		files = append(files, filepath.Join(b.Directory, table+".json"))
	}
	return append(files, filepath.Join(b.Directory, "summary.json"))
}
