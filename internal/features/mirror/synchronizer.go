package mirror

import (
	"context"
	"fmt"
	"sync"

	"notisync/internal/database"
	"notisync/internal/features/mapper"

	"go.uber.org/zap"
)

// Synchronizer reconciles mapped columns against destination tables.
// Incremental sync is non-destructive; Recreate is explicit and drops data.
type Synchronizer interface {
	EnsureTable(ctx context.Context, table string, cols []mapper.MappedColumn) error
	RecreateTable(ctx context.Context, table string, cols []mapper.MappedColumn) error
}

type SynchronizerImpl struct {
	Dest   *database.Destination
	Logger *zap.Logger

	mu     sync.Mutex
	tables map[string]*sync.Mutex
}

func NewSynchronizer(dest *database.Destination, logger *zap.Logger) Synchronizer {
	return &SynchronizerImpl{
		Dest:   dest,
		Logger: logger,
		tables: make(map[string]*sync.Mutex),
	}
}

// tableLock serializes schema mutation per table name. Two concurrent syncs
// of the same target must not race on CREATE/ALTER.
func (s *SynchronizerImpl) tableLock(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.tables[table]
	if !ok {
		lock = &sync.Mutex{}
		s.tables[table] = lock
	}
	return lock
}

func (s *SynchronizerImpl) EnsureTable(ctx context.Context, table string, cols []mapper.MappedColumn) error {
	lock := s.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", table, err)
	}

	if !exists {
		ddl := createTableSQL(s.Dest.Dialect, table, cols)
		if _, err := s.Dest.DB.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		s.Logger.Info("created mirror table",
			zap.String("table", table),
			zap.Int("columns", len(cols)))
		return nil
	}

	existing, err := s.existingColumns(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	for _, col := range missingColumns(cols, existing) {
		if _, err := s.Dest.DB.ExecContext(ctx, addColumnSQL(s.Dest.Dialect, table, col)); err != nil {
			return fmt.Errorf("failed to add column %s to %s: %w", col.Name, table, err)
		}
		s.Logger.Info("added mirror column",
			zap.String("table", table),
			zap.String("column", col.Name),
			zap.String("type", string(col.Type)))
	}

	return nil
}

// RecreateTable drops the mirror table and rebuilds it from the latest
// mapping. Destroys destination data; callers gate this behind an explicit
// permission.
func (s *SynchronizerImpl) RecreateTable(ctx context.Context, table string, cols []mapper.MappedColumn) error {
	lock := s.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.Dest.DB.ExecContext(ctx, dropTableSQL(s.Dest.Dialect, table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}

	ddl := createTableSQL(s.Dest.Dialect, table, cols)
	if _, err := s.Dest.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to recreate table %s: %w", table, err)
	}

	s.Logger.Warn("recreated mirror table, previous rows dropped",
		zap.String("table", table))
	return nil
}

func (s *SynchronizerImpl) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	if err := s.Dest.DB.QueryRowContext(ctx, tableExistsSQL(s.Dest), table).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SynchronizerImpl) existingColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.Dest.DB.QueryContext(ctx, existingColumnsSQL(s.Dest), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
