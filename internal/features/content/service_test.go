package content

import (
	"context"
	"fmt"
	"testing"

	"notisync/internal/features/account"
	"notisync/internal/features/notion"

	"go.uber.org/zap"
)

type fakeClient struct {
	children map[string][]notion.Block
	calls    int
}

func (f *fakeClient) GetBlockChildren(ctx context.Context, cred notion.Credential, blockID string) ([]notion.Block, error) {
	f.calls++
	return f.children[blockID], nil
}

func (f *fakeClient) GetDatabase(ctx context.Context, cred notion.Credential, databaseID string) (*notion.Database, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) GetDataSource(ctx context.Context, cred notion.Credential, dataSourceID string) (*notion.DataSource, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) QueryDataSource(ctx context.Context, cred notion.Credential, dataSourceID, cursor string, pageSize int) (*notion.QueryResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) GetPage(ctx context.Context, cred notion.Credential, pageID string) (*notion.Record, error) {
	return &notion.Record{ID: pageID}, nil
}

func (f *fakeClient) Search(ctx context.Context, cred notion.Credential, cursor string) (*notion.SearchResult, error) {
	return nil, fmt.Errorf("not implemented")
}

type memRepo struct {
	pages map[string][]ContentBlock
}

func newMemRepo() *memRepo {
	return &memRepo{pages: map[string][]ContentBlock{}}
}

func (m *memRepo) EnsureTable(ctx context.Context) error { return nil }

func (m *memRepo) ReplacePage(ctx context.Context, pageID string, blocks []ContentBlock) error {
	stored := make([]ContentBlock, len(blocks))
	copy(stored, blocks)
	for i := range stored {
		stored[i].ID = int64(i + 1)
	}
	m.pages[pageID] = stored
	return nil
}

func (m *memRepo) ListByPage(ctx context.Context, pageID string) ([]ContentBlock, error) {
	return m.pages[pageID], nil
}

func block(id, blockType string) notion.Block {
	return notion.Block{
		ID:   id,
		Type: blockType,
		Raw: map[string]any{
			"id":   id,
			"type": blockType,
		},
	}
}

func withChildren(b notion.Block) notion.Block {
	b.HasChildren = true
	return b
}

func newTestService(client *fakeClient, repo Repository) Service {
	return &ServiceImpl{
		Client:   client,
		Accounts: accountStub{},
		Repo:     repo,
		Logger:   zap.NewNop(),
	}
}

// accountStub satisfies account.Service without a Mongo round trip.
type accountStub struct{}

func (accountStub) Credential(ctx context.Context, ownerID string) (notion.Credential, error) {
	return notion.Credential{OwnerID: ownerID, Token: "secret"}, nil
}

func (accountStub) HasCapability(ctx context.Context, ownerID, capability string) (bool, error) {
	return true, nil
}

func (accountStub) Save(ctx context.Context, acc *account.Account) error { return nil }

func TestSyncPageRoundTrip(t *testing.T) {
	// Page with three levels: two roots, one root has a child, that child has
	// two children of its own. Five blocks total.
	client := &fakeClient{
		children: map[string][]notion.Block{
			"page-1": {
				withChildren(block("blk-a", "heading_1")),
				block("blk-b", "paragraph"),
			},
			"blk-a": {
				withChildren(block("blk-a1", "toggle")),
			},
			"blk-a1": {
				block("blk-a1x", "bulleted_list_item"),
				block("blk-a1y", "bulleted_list_item"),
			},
		},
	}
	repo := newMemRepo()
	svc := newTestService(client, repo)

	count, err := svc.SyncPage(context.Background(), "owner-1", "page-1")
	if err != nil {
		t.Fatalf("SyncPage failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 stored blocks, got %d", count)
	}

	tree, err := svc.Tree(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	if len(tree) != 2 {
		t.Fatalf("expected 2 root nodes, got %d", len(tree))
	}
	if tree[0].BlockID != "blk-a" || tree[1].BlockID != "blk-b" {
		t.Errorf("root order wrong: %s, %s", tree[0].BlockID, tree[1].BlockID)
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].BlockID != "blk-a1" {
		t.Fatalf("expected blk-a1 under blk-a, got %+v", tree[0].Children)
	}

	grandchildren := tree[0].Children[0].Children
	if len(grandchildren) != 2 {
		t.Fatalf("expected 2 nodes under blk-a1, got %d", len(grandchildren))
	}
	if grandchildren[0].BlockID != "blk-a1x" || grandchildren[1].BlockID != "blk-a1y" {
		t.Errorf("grandchild order wrong: %s, %s", grandchildren[0].BlockID, grandchildren[1].BlockID)
	}

	// Payload survives the round trip.
	if got := tree[0].Content["type"]; got != "heading_1" {
		t.Errorf("expected payload type heading_1, got %v", got)
	}
	if len(tree[1].Children) != 0 {
		t.Errorf("leaf block should have no children, got %d", len(tree[1].Children))
	}
}

func TestSyncPageReplacesOldRows(t *testing.T) {
	client := &fakeClient{
		children: map[string][]notion.Block{
			"page-1": {block("blk-old", "paragraph")},
		},
	}
	repo := newMemRepo()
	svc := newTestService(client, repo)

	if _, err := svc.SyncPage(context.Background(), "owner-1", "page-1"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	client.children["page-1"] = []notion.Block{block("blk-new", "paragraph")}
	count, err := svc.SyncPage(context.Background(), "owner-1", "page-1")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 block after resync, got %d", count)
	}

	tree, err := svc.Tree(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if len(tree) != 1 || tree[0].BlockID != "blk-new" {
		t.Errorf("expected only blk-new after resync, got %+v", tree)
	}
}

func TestTreeMatchesDashedAndUndashedIDs(t *testing.T) {
	repo := newMemRepo()
	repo.pages["page1"] = []ContentBlock{
		{ID: 1, PageID: "page1", BlockID: "AAAA-BBBB", Type: "toggle", Content: "{}", ParentID: "page1"},
		{ID: 2, PageID: "page1", BlockID: "cccc-dddd", Type: "paragraph", Content: "{}", ParentID: "aaaabbbb"},
	}
	svc := newTestService(&fakeClient{}, repo)

	tree, err := svc.Tree(context.Background(), "page1")
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("expected 1 root, got %d", len(tree))
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].BlockID != "cccc-dddd" {
		t.Errorf("undashed parent id should still attach the child, got %+v", tree[0].Children)
	}
}

func TestBreadcrumb(t *testing.T) {
	repo := newMemRepo()
	repo.pages["page-1"] = []ContentBlock{
		{ID: 1, BlockID: "blk-a", ParentID: "page-1", Content: "{}"},
		{ID: 2, BlockID: "blk-a1", ParentID: "blk-a", Content: "{}"},
		{ID: 3, BlockID: "blk-a1x", ParentID: "blk-a1", Content: "{}"},
	}
	svc := newTestService(&fakeClient{}, repo)

	path, err := svc.Breadcrumb(context.Background(), "page-1", "blk-a1x")
	if err != nil {
		t.Fatalf("Breadcrumb failed: %v", err)
	}

	want := []string{"page-1", "blk-a", "blk-a1", "blk-a1x"}
	if len(path) != len(want) {
		t.Fatalf("expected path %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, path[i], want[i])
		}
	}
}

func TestBreadcrumbDepthCap(t *testing.T) {
	// Seven-deep chain; the walk must stop after five hops.
	repo := newMemRepo()
	rows := []ContentBlock{}
	parent := "page-1"
	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("blk-%d", i)
		rows = append(rows, ContentBlock{ID: int64(i), BlockID: id, ParentID: parent, Content: "{}"})
		parent = id
	}
	repo.pages["page-1"] = rows
	svc := newTestService(&fakeClient{}, repo)

	path, err := svc.Breadcrumb(context.Background(), "page-1", "blk-7")
	if err != nil {
		t.Fatalf("Breadcrumb failed: %v", err)
	}
	if len(path) != 5 {
		t.Fatalf("expected path capped at 5 entries, got %d: %v", len(path), path)
	}
	if path[len(path)-1] != "blk-7" {
		t.Errorf("path should end at the requested object, got %v", path)
	}
}

func TestBreadcrumbUnknownObject(t *testing.T) {
	repo := newMemRepo()
	repo.pages["page-1"] = []ContentBlock{
		{ID: 1, BlockID: "blk-a", ParentID: "page-1", Content: "{}"},
	}
	svc := newTestService(&fakeClient{}, repo)

	if _, err := svc.Breadcrumb(context.Background(), "page-1", "blk-missing"); err == nil {
		t.Fatal("expected error for unknown object")
	}
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AAAA-BBBB", "aaaabbbb"},
		{"aaaabbbb", "aaaabbbb"},
		{"12f3-ab", "12f3ab"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeID(tc.in); got != tc.want {
			t.Errorf("normalizeID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
