package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"notisync/internal/features/audit"

	"go.uber.org/zap"
)

type captureAudit struct {
	mu   sync.Mutex
	logs []audit.CallLog
}

func (a *captureAudit) RecordCall(ctx context.Context, log audit.CallLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
}

func (a *captureAudit) ListCalls(ctx context.Context, ownerID string, limit int64) ([]audit.CallLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logs, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *captureAudit, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	auditSvc := &captureAudit{}
	return NewClient(server.URL, auditSvc, zap.NewNop()), auditSvc, server
}

func TestGetDataSourceSetsHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		json.NewEncoder(w).Encode(DataSource{ID: "ds-1", Name: "Tasks"})
	})

	cred := Credential{OwnerID: "owner-1", Token: "secret-token"}
	ds, err := client.GetDataSource(context.Background(), cred, "ds-1")
	if err != nil {
		t.Fatalf("GetDataSource failed: %v", err)
	}

	if ds.Name != "Tasks" {
		t.Errorf("decoded name = %q, want Tasks", ds.Name)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotVersion != defaultVersion {
		t.Errorf("Notion-Version = %q, want default %q", gotVersion, defaultVersion)
	}
}

func TestCredentialVersionOverridesDefault(t *testing.T) {
	var gotVersion string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("Notion-Version")
		json.NewEncoder(w).Encode(Database{ID: "db-1"})
	})

	cred := Credential{Token: "tok", Version: "2024-01-01"}
	if _, err := client.GetDatabase(context.Background(), cred, "db-1"); err != nil {
		t.Fatalf("GetDatabase failed: %v", err)
	}
	if gotVersion != "2024-01-01" {
		t.Errorf("Notion-Version = %q, want override", gotVersion)
	}
}

func TestQueryDataSourceSendsCursor(t *testing.T) {
	var bodies []map[string]any
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		json.NewEncoder(w).Encode(QueryResult{})
	})

	cred := Credential{Token: "tok"}
	if _, err := client.QueryDataSource(context.Background(), cred, "ds-1", "", 100); err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if _, err := client.QueryDataSource(context.Background(), cred, "ds-1", "cursor-a", 100); err != nil {
		t.Fatalf("second query failed: %v", err)
	}

	if _, present := bodies[0]["start_cursor"]; present {
		t.Error("empty cursor must not be sent")
	}
	if bodies[1]["start_cursor"] != "cursor-a" {
		t.Errorf("cursor not forwarded: %v", bodies[1])
	}
	if bodies[0]["page_size"] != float64(100) {
		t.Errorf("page_size = %v, want 100", bodies[0]["page_size"])
	}
}

func TestGetBlockChildrenPaginates(t *testing.T) {
	calls := 0
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.Contains(r.URL.RawQuery, "start_cursor=c1") {
			fmt.Fprint(w, `{"results":[{"id":"blk-2","type":"paragraph"}],"has_more":false}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"blk-1","type":"heading_1"}],"has_more":true,"next_cursor":"c1"}`)
	})

	blocks, err := client.GetBlockChildren(context.Background(), Credential{Token: "tok"}, "page-1")
	if err != nil {
		t.Fatalf("GetBlockChildren failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
	if len(blocks) != 2 || blocks[0].ID != "blk-1" || blocks[1].ID != "blk-2" {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
	if blocks[0].Raw["type"] != "heading_1" {
		t.Errorf("raw payload not preserved: %v", blocks[0].Raw)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	client, auditSvc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"rate limited"}`)
	})

	_, err := client.GetDatabase(context.Background(), Credential{OwnerID: "owner-1", Token: "tok"}, "db-1")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body snippet: %v", err)
	}

	// The failed call is still audited.
	if len(auditSvc.logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditSvc.logs))
	}
	entry := auditSvc.logs[0]
	if entry.Success || entry.Status != http.StatusTooManyRequests || entry.OwnerID != "owner-1" {
		t.Errorf("audit entry wrong: %+v", entry)
	}
}

func TestSuccessfulCallIsAudited(t *testing.T) {
	client, auditSvc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Database{ID: "db-1"})
	})

	if _, err := client.GetDatabase(context.Background(), Credential{OwnerID: "owner-1", Token: "tok"}, "db-1"); err != nil {
		t.Fatalf("GetDatabase failed: %v", err)
	}

	if len(auditSvc.logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditSvc.logs))
	}
	entry := auditSvc.logs[0]
	if !entry.Success || entry.Status != http.StatusOK || entry.Method != http.MethodGet {
		t.Errorf("audit entry wrong: %+v", entry)
	}
}

func TestPlainText(t *testing.T) {
	runs := []RichText{{PlainText: "Hello "}, {PlainText: "world"}}
	if got := PlainText(runs); got != "Hello world" {
		t.Errorf("PlainText = %q", got)
	}
	if got := PlainText(nil); got != "" {
		t.Errorf("PlainText(nil) = %q", got)
	}
}
