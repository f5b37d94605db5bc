// internal/ingest/decode.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/demand-insight/backend-go/internal/domain"
)

// DecodeRecords converts an uploaded JSON array (already unmarshalled into
// generic maps) into validated observation records. Unknown keys are ignored;
// missing required fields fail the whole upload.
func DecodeRecords(rows []map[string]any) ([]domain.ObservationRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty record set", domain.ErrInvalidRequest)
	}

	records := make([]domain.ObservationRecord, 0, len(rows))
	for i, row := range rows {
		normalized := make(map[string]string, len(row))
		for k, v := range row {
			normalized[NormalizeColumn(k)] = stringify(v)
		}

		var rec domain.ObservationRecord
		for _, spec := range Schema {
			raw, ok := normalized[spec.Name]
			if !ok || raw == "" {
				if spec.Required {
					return nil, fmt.Errorf("%w: record %d missing field %s", domain.ErrInvalidRequest, i, spec.Name)
				}
				continue
			}
			if err := decodeField(spec, raw, &rec); err != nil {
				return nil, fmt.Errorf("%w: record %d: %v", domain.ErrInvalidRequest, i, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCSV loads observation records from a retail inventory CSV export.
func ReadCSV(path string) ([]domain.ObservationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colSpec := make(map[int]FieldSpec)
	seen := make(map[string]bool)
	for idx, col := range header {
		name := NormalizeColumn(col)
		for _, spec := range Schema {
			if spec.Name == name {
				colSpec[idx] = spec
				seen[name] = true
			}
		}
	}
	for _, spec := range Schema {
		if spec.Required && !seen[spec.Name] {
			return nil, fmt.Errorf("%w: csv missing required column %s", domain.ErrInvalidRequest, spec.Name)
		}
	}

	var records []domain.ObservationRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		line++

		var rec domain.ObservationRecord
		ok := true
		for idx, spec := range colSpec {
			if idx >= len(row) {
				continue
			}
			if err := decodeField(spec, row[idx], &rec); err != nil {
				// A single malformed row is skipped, not fatal
				ok = false
				break
			}
		}
		if ok && rec.ProductID != "" && rec.StoreID != "" {
			records = append(records, rec)
		}
	}
	return records, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
