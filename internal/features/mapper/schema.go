package mapper

import (
	"fmt"
	"sort"

	"notisync/pkg/utils"
)

// ColumnType is the destination-side type of a mapped column. The mirror
// layer translates these into dialect-specific DDL.
type ColumnType string

const (
	TypeKey      ColumnType = "key"       // remote record id, primary key
	TypeFloat    ColumnType = "float"     // number
	TypeBoolean  ColumnType = "boolean"   // checkbox
	TypeDateTime ColumnType = "datetime"  // date, created_time, last_edited_time
	TypeText     ColumnType = "text"      // short text: select, status, email, url, phone, person names
	TypeLongText ColumnType = "long_text" // title, rich_text, multi_select, unknown fallback
	TypeJSON     ColumnType = "json"      // structured payloads serialized as JSON
)

// PrimaryKeyColumn is the name of the id column every mirror table leads with.
const PrimaryKeyColumn = "notion_id"

// MappedColumn is one projected destination column.
type MappedColumn struct {
	Name     string     `json:"name"`   // sanitized, collision-safe
	Source   string     `json:"source"` // original remote property name
	Remote   string     `json:"remote"` // remote property type tag
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// typeTable is the total projection from remote property type to destination
// column type. Anything absent falls back to long text.
var typeTable = map[string]ColumnType{
	"title":            TypeLongText,
	"rich_text":        TypeLongText,
	"number":           TypeFloat,
	"checkbox":         TypeBoolean,
	"date":             TypeDateTime,
	"created_time":     TypeDateTime,
	"last_edited_time": TypeDateTime,
	"select":           TypeText,
	"status":           TypeText,
	"email":            TypeText,
	"url":              TypeText,
	"phone_number":     TypeText,
	"created_by":       TypeText,
	"last_edited_by":   TypeText,
	"multi_select":     TypeLongText,
	"relation":         TypeJSON,
	"rollup":           TypeJSON,
	"formula":          TypeJSON,
	"people":           TypeJSON,
	"files":            TypeJSON,
	"unique_id":        TypeJSON,
	"verification":     TypeJSON,
}

// ProjectType maps one remote property type to its destination type. Total:
// unrecognized tags fall back to long text instead of erroring.
func ProjectType(remoteType string) ColumnType {
	if t, ok := typeTable[remoteType]; ok {
		return t
	}
	return TypeLongText
}

// MapSchema projects a remote property-type map into an ordered column list.
// The record id column is always first; property columns follow in sorted
// property-name order so repeated runs produce identical layouts. Name
// collisions are disambiguated with _1, _2, ... in encounter order.
func MapSchema(props map[string]string) []MappedColumn {
	cols := []MappedColumn{{
		Name:     PrimaryKeyColumn,
		Source:   "",
		Remote:   "id",
		Type:     TypeKey,
		Nullable: false,
	}}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	taken := map[string]bool{PrimaryKeyColumn: true}
	for _, name := range names {
		remoteType := props[name]
		sanitized := utils.SanitizeIdentifier(name)
		if sanitized == "" {
			sanitized = fmt.Sprintf("field_%s", ProjectType(remoteType))
		}

		unique := sanitized
		for i := 1; taken[unique]; i++ {
			unique = fmt.Sprintf("%s_%d", sanitized, i)
		}
		taken[unique] = true

		cols = append(cols, MappedColumn{
			Name:     unique,
			Source:   name,
			Remote:   remoteType,
			Type:     ProjectType(remoteType),
			Nullable: true,
		})
	}

	return cols
}
