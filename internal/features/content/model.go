package content

import "time"

// ContentBlock is one flattened node of a page's block tree. ParentID is the
// page id for top-level blocks and the parent block id otherwise.
type ContentBlock struct {
	ID        int64     `json:"id"`
	PageID    string    `json:"page_id"`
	BlockID   string    `json:"block_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"` // block JSON minus its children
	ParentID  string    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockNode is one node of a rebuilt tree. Children is computed from the
// flat rows, never stored.
type BlockNode struct {
	BlockID  string         `json:"block_id"`
	Type     string         `json:"type"`
	Content  map[string]any `json:"content"`
	Children []*BlockNode   `json:"children"`
}
