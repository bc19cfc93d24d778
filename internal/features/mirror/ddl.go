package mirror

import (
	"fmt"
	"strings"

	"notisync/internal/database"
	"notisync/internal/features/mapper"
)

// SyncedAtColumn trails every mirror table and refreshes on each upsert.
const SyncedAtColumn = "synced_at"

var mysqlTypes = map[mapper.ColumnType]string{
	mapper.TypeKey:      "VARCHAR(64) NOT NULL",
	mapper.TypeFloat:    "DOUBLE",
	mapper.TypeBoolean:  "TINYINT(1)",
	mapper.TypeDateTime: "DATETIME",
	mapper.TypeText:     "VARCHAR(255)",
	mapper.TypeLongText: "TEXT",
	mapper.TypeJSON:     "JSON",
}

var postgresTypes = map[mapper.ColumnType]string{
	mapper.TypeKey:      "VARCHAR(64) NOT NULL",
	mapper.TypeFloat:    "DOUBLE PRECISION",
	mapper.TypeBoolean:  "SMALLINT",
	mapper.TypeDateTime: "TIMESTAMP",
	mapper.TypeText:     "VARCHAR(255)",
	mapper.TypeLongText: "TEXT",
	mapper.TypeJSON:     "JSONB",
}

func quoteIdent(dialect database.Dialect, name string) string {
	if dialect == database.DialectPostgres {
		return `"` + name + `"`
	}
	return "`" + name + "`"
}

func columnDDL(dialect database.Dialect, col mapper.MappedColumn) string {
	types := mysqlTypes
	if dialect == database.DialectPostgres {
		types = postgresTypes
	}
	return fmt.Sprintf("%s %s", quoteIdent(dialect, col.Name), types[col.Type])
}

func syncedAtDDL(dialect database.Dialect) string {
	if dialect == database.DialectPostgres {
		return fmt.Sprintf("%s TIMESTAMPTZ NOT NULL DEFAULT now()", quoteIdent(dialect, SyncedAtColumn))
	}
	return fmt.Sprintf("%s TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP", quoteIdent(dialect, SyncedAtColumn))
}

// createTableSQL builds the full mirror table DDL: primary key first, mapped
// columns in order, trailing synced_at.
func createTableSQL(dialect database.Dialect, table string, cols []mapper.MappedColumn) string {
	parts := make([]string, 0, len(cols)+2)
	for _, col := range cols {
		parts = append(parts, columnDDL(dialect, col))
	}
	parts = append(parts, syncedAtDDL(dialect))
	parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdent(dialect, mapper.PrimaryKeyColumn)))

	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(dialect, table), strings.Join(parts, ", "))
}

func addColumnSQL(dialect database.Dialect, table string, col mapper.MappedColumn) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(dialect, table), columnDDL(dialect, col))
}

func dropTableSQL(dialect database.Dialect, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(dialect, table))
}

// currentSchemaExpr scopes information_schema lookups to the connected
// database, so a same-named table elsewhere on the server is not mistaken
// for ours.
func currentSchemaExpr(dialect database.Dialect) string {
	if dialect == database.DialectPostgres {
		return "current_schema()"
	}
	return "DATABASE()"
}

func tableExistsSQL(dest *database.Destination) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = %s AND table_schema = %s",
		dest.Placeholder(1), currentSchemaExpr(dest.Dialect),
	)
}

func existingColumnsSQL(dest *database.Destination) string {
	return fmt.Sprintf(
		"SELECT column_name FROM information_schema.columns WHERE table_name = %s AND table_schema = %s ORDER BY ordinal_position",
		dest.Placeholder(1), currentSchemaExpr(dest.Dialect),
	)
}

// missingColumns returns the mapped columns absent from the destination, in
// mapping order. Destination columns with no mapped counterpart are left
// untouched: incremental sync is additive only.
func missingColumns(mapped []mapper.MappedColumn, existing []string) []mapper.MappedColumn {
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var missing []mapper.MappedColumn
	for _, col := range mapped {
		if !have[col.Name] {
			missing = append(missing, col)
		}
	}
	return missing
}
