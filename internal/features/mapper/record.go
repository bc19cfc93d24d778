package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"notisync/internal/features/notion"

	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02 15:04:05"

// ConvertRecord flattens one remote record into an upsert-ready row keyed by
// sanitized column name. A property that fails to convert degrades to null
// with a warning; it never aborts the record.
func ConvertRecord(rec notion.Record, cols []MappedColumn, logger *zap.Logger) map[string]any {
	row := map[string]any{
		PrimaryKeyColumn: rec.ID,
	}

	for _, col := range cols {
		if col.Type == TypeKey {
			continue
		}

		prop, ok := rec.Properties[col.Source]
		if !ok {
			row[col.Name] = nil
			continue
		}

		value, err := convertProperty(prop)
		if err != nil {
			logger.Warn("failed to convert property, storing null",
				zap.String("record", rec.ID),
				zap.String("property", col.Source),
				zap.Error(err))
			value = nil
		}
		row[col.Name] = value
	}

	return row
}

// convertProperty extracts the flat value of one typed property object.
func convertProperty(prop map[string]any) (any, error) {
	typeTag, _ := prop["type"].(string)
	if typeTag == "" {
		return nil, fmt.Errorf("property object has no type tag")
	}

	inner := prop[typeTag]

	switch typeTag {
	case "title", "rich_text":
		return plainTextOf(inner)

	case "number":
		if inner == nil {
			return nil, nil
		}
		n, ok := inner.(float64)
		if !ok {
			return nil, fmt.Errorf("number value is %T", inner)
		}
		return n, nil

	case "select", "status":
		return optionName(inner)

	case "multi_select":
		options, ok := inner.([]any)
		if !ok || len(options) == 0 {
			return nil, nil
		}
		joined := ""
		for i, o := range options {
			name, err := optionName(o)
			if err != nil {
				return nil, err
			}
			if i > 0 {
				joined += ", "
			}
			if s, ok := name.(string); ok {
				joined += s
			}
		}
		return nullIfEmpty(joined), nil

	case "date":
		m, ok := inner.(map[string]any)
		if !ok || m == nil {
			return nil, nil
		}
		start, _ := m["start"].(string)
		if start == "" {
			return nil, nil
		}
		return normalizeTimestamp(start), nil

	case "checkbox":
		b, ok := inner.(bool)
		if !ok {
			return nil, fmt.Errorf("checkbox value is %T", inner)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil

	case "created_time", "last_edited_time":
		s, _ := inner.(string)
		if s == "" {
			return nil, nil
		}
		return normalizeTimestamp(s), nil

	case "created_by", "last_edited_by":
		m, ok := inner.(map[string]any)
		if !ok || m == nil {
			return nil, nil
		}
		if name, _ := m["name"].(string); name != "" {
			return name, nil
		}
		if id, _ := m["id"].(string); id != "" {
			return id, nil
		}
		return nil, nil

	case "email", "url", "phone_number":
		s, _ := inner.(string)
		return nullIfEmpty(s), nil

	default:
		// relation, rollup, formula, people, files, unique_id, verification
		// and anything newer: keep the raw value as compact JSON.
		return compactJSON(inner)
	}
}

func plainTextOf(inner any) (any, error) {
	runs, ok := inner.([]any)
	if !ok || len(runs) == 0 {
		return nil, nil
	}
	text := ""
	for _, r := range runs {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("text run is %T", r)
		}
		s, _ := m["plain_text"].(string)
		text += s
	}
	return nullIfEmpty(text), nil
}

func optionName(inner any) (any, error) {
	if inner == nil {
		return nil, nil
	}
	m, ok := inner.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("option value is %T", inner)
	}
	name, _ := m["name"].(string)
	return nullIfEmpty(name), nil
}

func compactJSON(inner any) (any, error) {
	if isEmpty(inner) {
		return nil, nil
	}
	data, err := json.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value: %w", err)
	}
	return string(data), nil
}

// normalizeTimestamp converts a remote timestamp to UTC "YYYY-MM-DD HH:MM:SS",
// truncating sub-second precision. Unparseable input passes through unchanged
// rather than failing the record.
func normalizeTimestamp(s string) string {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(timestampLayout)
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC().Format(timestampLayout)
	}
	return s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
