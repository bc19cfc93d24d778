package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"notisync/internal/features/account"
	"notisync/internal/features/notion"

	"go.uber.org/zap"
)

// breadcrumbMaxDepth bounds the ancestor walk. Not a cycle detector, just a
// guard against runaway parent chains.
const breadcrumbMaxDepth = 5

// Service mirrors page block trees into the flat content table and rebuilds
// them for reads.
type Service interface {
	SyncPage(ctx context.Context, ownerID, pageID string) (int, error)
	Tree(ctx context.Context, pageID string) ([]*BlockNode, error)
	Breadcrumb(ctx context.Context, pageID, objectID string) ([]string, error)
}

type ServiceImpl struct {
	Client   notion.Client
	Accounts account.Service
	Repo     Repository
	Logger   *zap.Logger
}

func NewService(client notion.Client, accounts account.Service, repo Repository, logger *zap.Logger) Service {
	return &ServiceImpl{
		Client:   client,
		Accounts: accounts,
		Repo:     repo,
		Logger:   logger,
	}
}

// fetchedBlock is one remote block plus its recursively fetched children.
type fetchedBlock struct {
	block    notion.Block
	children []fetchedBlock
}

// SyncPage fetches the page's full block tree, flattens it, and replaces the
// page's rows in the content table. Returns the number of stored blocks.
func (s *ServiceImpl) SyncPage(ctx context.Context, ownerID, pageID string) (int, error) {
	cred, err := s.Accounts.Credential(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	// Confirm the page exists before touching stored rows; a typo'd id must
	// not wipe a previously synced page.
	if _, err := s.Client.GetPage(ctx, cred, pageID); err != nil {
		return 0, fmt.Errorf("page %s is not accessible: %w", pageID, err)
	}

	if err := s.Repo.EnsureTable(ctx); err != nil {
		return 0, err
	}

	tree, err := s.fetchTree(ctx, cred, pageID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch block tree for page %s: %w", pageID, err)
	}

	rows := flatten(pageID, pageID, tree)
	if err := s.Repo.ReplacePage(ctx, pageID, rows); err != nil {
		return 0, fmt.Errorf("failed to persist blocks for page %s: %w", pageID, err)
	}

	s.Logger.Info("synced page content",
		zap.String("page", pageID),
		zap.Int("blocks", len(rows)))
	return len(rows), nil
}

func (s *ServiceImpl) fetchTree(ctx context.Context, cred notion.Credential, blockID string) ([]fetchedBlock, error) {
	blocks, err := s.Client.GetBlockChildren(ctx, cred, blockID)
	if err != nil {
		return nil, err
	}

	out := make([]fetchedBlock, 0, len(blocks))
	for _, b := range blocks {
		node := fetchedBlock{block: b}
		if b.HasChildren {
			children, err := s.fetchTree(ctx, cred, b.ID)
			if err != nil {
				return nil, err
			}
			node.children = children
		}
		out = append(out, node)
	}
	return out, nil
}

// flatten walks the tree depth-first, emitting one row per block. Children
// are not embedded in the payload; the parent_id column carries the shape.
func flatten(pageID, parentID string, blocks []fetchedBlock) []ContentBlock {
	var rows []ContentBlock
	for _, node := range blocks {
		payload, err := json.Marshal(node.block.Raw)
		if err != nil {
			payload = []byte("{}")
		}

		rows = append(rows, ContentBlock{
			PageID:   pageID,
			BlockID:  node.block.ID,
			Type:     node.block.Type,
			Content:  string(payload),
			ParentID: parentID,
		})
		rows = append(rows, flatten(pageID, node.block.ID, node.children)...)
	}
	return rows
}

// Tree rebuilds the page's block tree from its flat rows. A parent-to-children
// index is built once; materialization is a single linear pass over it.
func (s *ServiceImpl) Tree(ctx context.Context, pageID string) ([]*BlockNode, error) {
	rows, err := s.Repo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	children := make(map[string][]ContentBlock, len(rows))
	for _, row := range rows {
		key := normalizeID(row.ParentID)
		children[key] = append(children[key], row)
	}

	return buildNodes(children, normalizeID(pageID)), nil
}

func buildNodes(children map[string][]ContentBlock, parentKey string) []*BlockNode {
	rows, ok := children[parentKey]
	if !ok {
		return nil
	}

	nodes := make([]*BlockNode, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if err := json.Unmarshal([]byte(row.Content), &payload); err != nil {
			payload = map[string]any{}
		}

		nodes = append(nodes, &BlockNode{
			BlockID:  row.BlockID,
			Type:     row.Type,
			Content:  payload,
			Children: buildNodes(children, normalizeID(row.BlockID)),
		})
	}
	return nodes
}

// Breadcrumb walks cached parent references upward from objectID, returning
// the ancestor path root-first (ending with objectID itself). The walk stops
// when no parent is known or after breadcrumbMaxDepth hops.
func (s *ServiceImpl) Breadcrumb(ctx context.Context, pageID, objectID string) ([]string, error) {
	rows, err := s.Repo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	parents := make(map[string]string, len(rows))
	ids := make(map[string]string, len(rows))
	for _, row := range rows {
		parents[normalizeID(row.BlockID)] = row.ParentID
		ids[normalizeID(row.BlockID)] = row.BlockID
	}
	ids[normalizeID(pageID)] = pageID

	path := []string{}
	current := normalizeID(objectID)
	for i := 0; i < breadcrumbMaxDepth; i++ {
		id, known := ids[current]
		if !known {
			break
		}
		path = append([]string{id}, path...)

		parent, ok := parents[current]
		if !ok {
			break
		}
		current = normalizeID(parent)
	}

	if len(path) == 0 {
		return nil, fmt.Errorf("object %s not found under page %s", objectID, pageID)
	}
	return path, nil
}

// normalizeID strips separators and case-folds so ids compare equal whether
// the remote rendered them with dashes or not.
func normalizeID(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
