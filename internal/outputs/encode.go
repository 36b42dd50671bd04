// Package outputs encodes aggregated row instances into the artifact formats
// a finished run publishes.
package outputs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tanjoen/forenaide/internal/schema"
)

// EncodeJSON renders the canonical artifact: {"instances":[...]}.
func EncodeJSON(rows []schema.RowInstance) ([]byte, error) {
	if rows == nil {
		rows = []schema.RowInstance{}
	}
	doc := struct {
		Instances []schema.RowInstance `json:"instances"`
	}{Instances: rows}
	return json.Marshal(doc)
}

// EncodeCSV renders a comma-separated document: header row from the schema's
// declared field order (the validator guarantees every instance carries
// exactly those keys), one row per instance. An empty instance list yields
// empty bytes.
func EncodeCSV(cfg *schema.Config, rows []schema.RowInstance) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	header := make([]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		header[i] = f.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, name := range header {
			cell, err := formatCell(row[name])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			record[i] = cell
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// formatCell flattens a row value into a CSV cell. Arrays are JSON-encoded
// in place, the way the reference exporter flattened nested values.
func formatCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
