// Package export writes data tables to downloadable files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/openclerk/contractsense/engine"
)

// Format selects the file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Manager writes export files into a directory served under a public
// URL prefix. It satisfies the pipeline's Exporter interface.
type Manager struct {
	dir       string
	urlPrefix string
	format    Format
}

// NewManager creates a manager. urlPrefix is the public path exports
// are served under, e.g. "/exports".
func NewManager(dir, urlPrefix string, format Format) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("export directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "unable to create export directory %s", dir)
	}
	if format == "" {
		format = FormatCSV
	}
	return &Manager{dir: dir, urlPrefix: urlPrefix, format: format}, nil
}

// Dir returns the directory export files are written to.
func (m *Manager) Dir() string {
	return m.dir
}

// DetectAndExport writes the table and returns its download URL.
func (m *Manager) DetectAndExport(ctx context.Context, table *engine.DataTable) (string, error) {
	if table == nil || len(table.Headers) == 0 {
		return "", errors.New("nothing to export")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := "contract-data-" + shortuuid.New() + "." + string(m.format)
	path := filepath.Join(m.dir, name)

	var err error
	switch m.format {
	case FormatJSON:
		err = writeJSON(path, table)
	default:
		err = writeCSV(path, table)
	}
	if err != nil {
		return "", err
	}
	return m.urlPrefix + "/" + name, nil
}

func writeCSV(path string, table *engine.DataTable) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create export file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush csv")
	}
	return f.Close()
}

func writeJSON(path string, table *engine.DataTable) error {
	// Rows become objects keyed by header so consumers do not need the
	// column order.
	records := make([]map[string]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(map[string]string, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(row) {
				record[h] = row[i]
			}
		}
		records = append(records, record)
	}

	payload := struct {
		Title   string              `json:"title"`
		Records []map[string]string `json:"records"`
	}{Title: table.Title, Records: records}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal export")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o640), "failed to write export file")
}
