package syncer

import (
	"context"
	"fmt"
	"testing"

	"notisync/internal/features/account"
	"notisync/internal/features/mapper"
	"notisync/internal/features/mirror"
	"notisync/internal/features/notion"
	"notisync/internal/features/target"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeClient serves canned pages per data source and records the cursor of
// every query.
type fakeClient struct {
	databases   map[string]*notion.Database
	dataSources map[string]*notion.DataSource
	pages       map[string][]notion.QueryResult
	failDB      map[string]error

	queries     []string
	pageIndexes map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		databases:   map[string]*notion.Database{},
		dataSources: map[string]*notion.DataSource{},
		pages:       map[string][]notion.QueryResult{},
		failDB:      map[string]error{},
		pageIndexes: map[string]int{},
	}
}

func (f *fakeClient) GetDatabase(ctx context.Context, cred notion.Credential, databaseID string) (*notion.Database, error) {
	if err := f.failDB[databaseID]; err != nil {
		return nil, err
	}
	db, ok := f.databases[databaseID]
	if !ok {
		return nil, fmt.Errorf("database %s not found", databaseID)
	}
	return db, nil
}

func (f *fakeClient) GetDataSource(ctx context.Context, cred notion.Credential, dataSourceID string) (*notion.DataSource, error) {
	ds, ok := f.dataSources[dataSourceID]
	if !ok {
		return nil, fmt.Errorf("data source %s not found", dataSourceID)
	}
	return ds, nil
}

func (f *fakeClient) QueryDataSource(ctx context.Context, cred notion.Credential, dataSourceID, cursor string, pageSize int) (*notion.QueryResult, error) {
	f.queries = append(f.queries, cursor)

	idx := f.pageIndexes[dataSourceID]
	pages := f.pages[dataSourceID]
	if idx >= len(pages) {
		return &notion.QueryResult{}, nil
	}
	f.pageIndexes[dataSourceID] = idx + 1
	page := pages[idx]
	return &page, nil
}

func (f *fakeClient) GetPage(ctx context.Context, cred notion.Credential, pageID string) (*notion.Record, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) GetBlockChildren(ctx context.Context, cred notion.Credential, blockID string) ([]notion.Block, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeClient) Search(ctx context.Context, cred notion.Credential, cursor string) (*notion.SearchResult, error) {
	return nil, fmt.Errorf("not implemented")
}

// fakeWriter counts every row as an insert and keeps what it saw.
type fakeWriter struct {
	tables []string
	rows   []map[string]any
}

func (w *fakeWriter) UpsertBatch(ctx context.Context, table string, cols []mapper.MappedColumn, rows []map[string]any) (mirror.Counts, error) {
	w.tables = append(w.tables, table)
	w.rows = append(w.rows, rows...)
	return mirror.Counts{Total: len(rows), Inserted: len(rows)}, nil
}

// fakeDataSourceRepo keeps refs in memory and records cursor checkpoints.
type fakeDataSourceRepo struct {
	refs         map[primitive.ObjectID][]target.DataSourceRef
	savedCursors []string
}

func newFakeDataSourceRepo() *fakeDataSourceRepo {
	return &fakeDataSourceRepo{refs: map[primitive.ObjectID][]target.DataSourceRef{}}
}

func (r *fakeDataSourceRepo) ReplaceForTarget(ctx context.Context, targetID primitive.ObjectID, refs []target.DataSourceRef) error {
	for i := range refs {
		if refs[i].ID.IsZero() {
			refs[i].ID = primitive.NewObjectID()
		}
		refs[i].TargetID = targetID
	}
	r.refs[targetID] = refs
	return nil
}

func (r *fakeDataSourceRepo) ListByTarget(ctx context.Context, targetID primitive.ObjectID) ([]target.DataSourceRef, error) {
	return r.refs[targetID], nil
}

func (r *fakeDataSourceRepo) SaveCursor(ctx context.Context, id primitive.ObjectID, cursor string) error {
	r.savedCursors = append(r.savedCursors, cursor)
	return nil
}

func (r *fakeDataSourceRepo) DeleteByTarget(ctx context.Context, targetID primitive.ObjectID) error {
	delete(r.refs, targetID)
	return nil
}

// accountStub grants the given capabilities to every owner.
type accountStub struct {
	capabilities []string
}

func (s accountStub) Credential(ctx context.Context, ownerID string) (notion.Credential, error) {
	return notion.Credential{OwnerID: ownerID, Token: "secret"}, nil
}

func (s accountStub) HasCapability(ctx context.Context, ownerID, capability string) (bool, error) {
	for _, c := range s.capabilities {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

func (s accountStub) Save(ctx context.Context, acc *account.Account) error { return nil }

func record(id, title string) notion.Record {
	return notion.Record{
		ID: id,
		Properties: map[string]map[string]any{
			"Name": {
				"type":  "title",
				"title": []any{map[string]any{"plain_text": title}},
			},
		},
	}
}

func titleColumns() []mapper.MappedColumn {
	return mapper.MapSchema(map[string]string{"Name": "title"})
}

func TestDriveWalksEveryPage(t *testing.T) {
	client := newFakeClient()
	client.pages["ds-1"] = []notion.QueryResult{
		{Records: []notion.Record{record("r1", "one"), record("r2", "two")}, HasMore: true, NextCursor: "c1"},
		{Records: []notion.Record{record("r3", "three")}, HasMore: true, NextCursor: "c2"},
		{Records: []notion.Record{record("r4", "four")}},
	}

	writer := &fakeWriter{}
	dsRepo := newFakeDataSourceRepo()
	driver := NewDriver(client, writer, dsRepo, zap.NewNop())

	ref := target.DataSourceRef{ID: primitive.NewObjectID(), DataSourceID: "ds-1"}
	counts, err := driver.Drive(context.Background(), notion.Credential{}, ref, "notion_t", titleColumns(), nil)
	if err != nil {
		t.Fatalf("Drive failed: %v", err)
	}

	if counts.Total != 4 || counts.Inserted != 4 {
		t.Errorf("expected 4 inserted rows, got %+v", counts)
	}

	// One fetch per page, each resuming from the previous page's cursor.
	wantQueries := []string{"", "c1", "c2"}
	if len(client.queries) != len(wantQueries) {
		t.Fatalf("expected %d fetches, got %d", len(wantQueries), len(client.queries))
	}
	for i, want := range wantQueries {
		if client.queries[i] != want {
			t.Errorf("fetch %d used cursor %q, want %q", i, client.queries[i], want)
		}
	}

	// Checkpoints after each intermediate page, then a final clear.
	wantSaves := []string{"c1", "c2", ""}
	if len(dsRepo.savedCursors) != len(wantSaves) {
		t.Fatalf("expected cursor saves %v, got %v", wantSaves, dsRepo.savedCursors)
	}
	for i, want := range wantSaves {
		if dsRepo.savedCursors[i] != want {
			t.Errorf("save %d = %q, want %q", i, dsRepo.savedCursors[i], want)
		}
	}

	// Rows arrive in page order.
	if writer.rows[0]["notion_id"] != "r1" || writer.rows[3]["notion_id"] != "r4" {
		t.Errorf("row order wrong: first %v, last %v", writer.rows[0]["notion_id"], writer.rows[3]["notion_id"])
	}
}

func TestDriveSinglePage(t *testing.T) {
	client := newFakeClient()
	client.pages["ds-1"] = []notion.QueryResult{
		{Records: []notion.Record{record("r1", "only")}},
	}

	writer := &fakeWriter{}
	dsRepo := newFakeDataSourceRepo()
	driver := NewDriver(client, writer, dsRepo, zap.NewNop())

	ref := target.DataSourceRef{ID: primitive.NewObjectID(), DataSourceID: "ds-1"}
	counts, err := driver.Drive(context.Background(), notion.Credential{}, ref, "notion_t", titleColumns(), nil)
	if err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	if counts.Total != 1 {
		t.Errorf("expected 1 row, got %d", counts.Total)
	}
	if len(client.queries) != 1 {
		t.Errorf("expected exactly 1 fetch, got %d", len(client.queries))
	}
	// Only the final clear is checkpointed.
	if len(dsRepo.savedCursors) != 1 || dsRepo.savedCursors[0] != "" {
		t.Errorf("expected a single empty checkpoint, got %v", dsRepo.savedCursors)
	}
}

func TestDriveAppliesTransform(t *testing.T) {
	client := newFakeClient()
	client.pages["ds-1"] = []notion.QueryResult{
		{Records: []notion.Record{record("r1", "widget")}},
	}

	writer := &fakeWriter{}
	dsRepo := newFakeDataSourceRepo()
	driver := NewDriver(client, writer, dsRepo, zap.NewNop())

	tr, err := mapper.NewTransform(`text := import("text")
row.name = text.to_upper(row.name)`)
	if err != nil {
		t.Fatalf("failed to build transform: %v", err)
	}

	ref := target.DataSourceRef{ID: primitive.NewObjectID(), DataSourceID: "ds-1"}
	if _, err := driver.Drive(context.Background(), notion.Credential{}, ref, "notion_t", titleColumns(), tr); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}

	if got := writer.rows[0]["name"]; got != "WIDGET" {
		t.Errorf("transform not applied, name = %v", got)
	}
}

func TestDriveDegradesFailingTransform(t *testing.T) {
	client := newFakeClient()
	client.pages["ds-1"] = []notion.QueryResult{
		{Records: []notion.Record{record("r1", "widget")}},
	}

	writer := &fakeWriter{}
	dsRepo := newFakeDataSourceRepo()
	driver := NewDriver(client, writer, dsRepo, zap.NewNop())

	// Compiles fine, blows up at runtime: name holds a string, not a callable.
	tr, err := mapper.NewTransform(`row.name()`)
	if err != nil {
		t.Fatalf("failed to build transform: %v", err)
	}

	ref := target.DataSourceRef{ID: primitive.NewObjectID(), DataSourceID: "ds-1"}
	counts, err := driver.Drive(context.Background(), notion.Credential{}, ref, "notion_t", titleColumns(), tr)
	if err != nil {
		t.Fatalf("runtime transform failure must not abort the drive: %v", err)
	}

	// The untransformed row still lands.
	if counts.Total != 1 || counts.Inserted != 1 {
		t.Errorf("expected the row to be upserted anyway, got %+v", counts)
	}
	if len(writer.rows) != 1 || writer.rows[0]["name"] != "widget" {
		t.Errorf("expected untransformed row, got %+v", writer.rows)
	}
}
