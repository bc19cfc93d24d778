package content

import (
	"context"
	"fmt"

	"notisync/internal/database"
)

const tableName = "notion_page_blocks"

type Repository interface {
	EnsureTable(ctx context.Context) error
	ReplacePage(ctx context.Context, pageID string, blocks []ContentBlock) error
	ListByPage(ctx context.Context, pageID string) ([]ContentBlock, error)
}

type RepositoryImpl struct {
	Dest *database.Destination
}

func NewRepository(dest *database.Destination) Repository {
	return &RepositoryImpl{Dest: dest}
}

func (r *RepositoryImpl) EnsureTable(ctx context.Context) error {
	var ddl string
	if r.Dest.Dialect == database.DialectPostgres {
		ddl = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			id BIGSERIAL PRIMARY KEY,
			page_id VARCHAR(64) NOT NULL,
			block_id VARCHAR(64) NOT NULL,
			type VARCHAR(64),
			content JSONB,
			parent_id VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	} else {
		ddl = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			page_id VARCHAR(64) NOT NULL,
			block_id VARCHAR(64) NOT NULL,
			type VARCHAR(64),
			content JSON,
			parent_id VARCHAR(64),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_page_blocks_page (page_id)
		)`
	}

	if _, err := r.Dest.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure content table: %w", err)
	}

	if r.Dest.Dialect == database.DialectPostgres {
		index := `CREATE INDEX IF NOT EXISTS idx_page_blocks_page ON ` + tableName + ` (page_id)`
		if _, err := r.Dest.DB.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to ensure content index: %w", err)
		}
	}

	return nil
}

// ReplacePage swaps a page's rows wholesale. Full-replace semantics: never a
// partial diff.
func (r *RepositoryImpl) ReplacePage(ctx context.Context, pageID string, blocks []ContentBlock) error {
	tx, err := r.Dest.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin content transaction: %w", err)
	}
	defer tx.Rollback()

	del := fmt.Sprintf("DELETE FROM %s WHERE page_id = %s", tableName, r.Dest.Placeholder(1))
	if _, err := tx.ExecContext(ctx, del, pageID); err != nil {
		return fmt.Errorf("failed to clear page blocks: %w", err)
	}

	ins := fmt.Sprintf(
		"INSERT INTO %s (page_id, block_id, type, content, parent_id) VALUES (%s, %s, %s, %s, %s)",
		tableName,
		r.Dest.Placeholder(1), r.Dest.Placeholder(2), r.Dest.Placeholder(3),
		r.Dest.Placeholder(4), r.Dest.Placeholder(5),
	)
	for _, b := range blocks {
		if _, err := tx.ExecContext(ctx, ins, b.PageID, b.BlockID, b.Type, b.Content, b.ParentID); err != nil {
			return fmt.Errorf("failed to insert block %s: %w", b.BlockID, err)
		}
	}

	return tx.Commit()
}

func (r *RepositoryImpl) ListByPage(ctx context.Context, pageID string) ([]ContentBlock, error) {
	query := fmt.Sprintf(
		"SELECT id, page_id, block_id, type, content, parent_id, created_at FROM %s WHERE page_id = %s ORDER BY id",
		tableName, r.Dest.Placeholder(1),
	)

	rows, err := r.Dest.DB.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ContentBlock
	for rows.Next() {
		var b ContentBlock
		if err := rows.Scan(&b.ID, &b.PageID, &b.BlockID, &b.Type, &b.Content, &b.ParentID, &b.CreatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
