package mirror

import (
	"context"
	"fmt"
	"strings"

	"notisync/internal/database"
	"notisync/internal/features/mapper"
)

// Counts summarizes one batch of upserts.
type Counts struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

func (c *Counts) Add(other Counts) {
	c.Total += other.Total
	c.Inserted += other.Inserted
	c.Updated += other.Updated
	c.Skipped += other.Skipped
}

// Writer upserts converted rows into mirror tables, keyed by the record id.
// Last write wins on conflicting columns.
type Writer interface {
	UpsertBatch(ctx context.Context, table string, cols []mapper.MappedColumn, rows []map[string]any) (Counts, error)
}

type WriterImpl struct {
	Dest *database.Destination
}

func NewWriter(dest *database.Destination) Writer {
	return &WriterImpl{Dest: dest}
}

func (w *WriterImpl) UpsertBatch(ctx context.Context, table string, cols []mapper.MappedColumn, rows []map[string]any) (Counts, error) {
	var counts Counts
	if len(rows) == 0 {
		return counts, nil
	}

	query := buildUpsertSQL(w.Dest.Dialect, table, cols)

	for _, row := range rows {
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			args = append(args, row[col.Name])
		}

		counts.Total++

		if w.Dest.Dialect == database.DialectPostgres {
			var inserted bool
			if err := w.Dest.DB.QueryRowContext(ctx, query, args...).Scan(&inserted); err != nil {
				return counts, fmt.Errorf("failed to upsert into %s: %w", table, err)
			}
			if inserted {
				counts.Inserted++
			} else {
				counts.Updated++
			}
			continue
		}

		res, err := w.Dest.DB.ExecContext(ctx, query, args...)
		if err != nil {
			return counts, fmt.Errorf("failed to upsert into %s: %w", table, err)
		}

		// MySQL reports 1 for an insert, 2 for an update, 0 for a no-op.
		switch affected, _ := res.RowsAffected(); affected {
		case 1:
			counts.Inserted++
		case 2:
			counts.Updated++
		default:
			counts.Skipped++
		}
	}

	return counts, nil
}

func buildUpsertSQL(dialect database.Dialect, table string, cols []mapper.MappedColumn) string {
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	updates := make([]string, 0, len(cols))

	for i, col := range cols {
		quoted := quoteIdent(dialect, col.Name)
		names = append(names, quoted)

		if dialect == database.DialectPostgres {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		} else {
			placeholders = append(placeholders, "?")
		}

		if col.Type == mapper.TypeKey {
			continue
		}
		if dialect == database.DialectPostgres {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		} else {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", quoted, quoted))
		}
	}

	if dialect == database.DialectPostgres {
		updates = append(updates, fmt.Sprintf("%s = now()", quoteIdent(dialect, SyncedAtColumn)))
		// xmax is zero for freshly inserted tuples, so this distinguishes
		// inserts from updates without a second round trip.
		return fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING (xmax = 0)",
			quoteIdent(dialect, table),
			strings.Join(names, ", "),
			strings.Join(placeholders, ", "),
			quoteIdent(dialect, mapper.PrimaryKeyColumn),
			strings.Join(updates, ", "),
		)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		quoteIdent(dialect, table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}
