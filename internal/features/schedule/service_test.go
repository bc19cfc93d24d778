package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memScheduleRepo struct {
	mu      sync.Mutex
	entries map[string]ScheduleEntry
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{entries: map[string]ScheduleEntry{}}
}

func (r *memScheduleRepo) Upsert(ctx context.Context, ownerID, expression string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[ownerID]
	if !ok {
		entry = ScheduleEntry{OwnerID: ownerID, CreatedAt: time.Now()}
	}
	entry.Expression = expression
	entry.UpdatedAt = time.Now()
	r.entries[ownerID] = entry
	return nil
}

func (r *memScheduleRepo) GetByOwner(ctx context.Context, ownerID string) (*ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[ownerID]
	if !ok {
		return nil, fmt.Errorf("no schedule for owner %s", ownerID)
	}
	return &entry, nil
}

func (r *memScheduleRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, ownerID)
	return nil
}

func (r *memScheduleRepo) List(ctx context.Context) ([]ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScheduleEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	return out, nil
}

type nopRunner struct{}

func (nopRunner) RunAll(ctx context.Context, ownerID string) error { return nil }

func newTestService(repo Repository) *ServiceImpl {
	return NewService(repo, nopRunner{}, zap.NewNop()).(*ServiceImpl)
}

func TestScheduleReplacesPreviousEntry(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo)

	if err := svc.Schedule(context.Background(), "owner-1", "0 * * * *"); err != nil {
		t.Fatalf("first schedule failed: %v", err)
	}
	if err := svc.Schedule(context.Background(), "owner-1", "*/5 * * * *"); err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}

	// Exactly one cron entry for the owner survives the replacement.
	if got := len(svc.cron.Entries()); got != 1 {
		t.Fatalf("expected 1 cron entry, got %d", got)
	}
	if got := len(svc.entries); got != 1 {
		t.Fatalf("expected 1 tracked entry, got %d", got)
	}

	entry, err := repo.GetByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("GetByOwner failed: %v", err)
	}
	if entry.Expression != "*/5 * * * *" {
		t.Errorf("persisted expression = %q, want the replacement", entry.Expression)
	}
}

func TestScheduleSeparateOwners(t *testing.T) {
	svc := newTestService(newMemScheduleRepo())

	if err := svc.Schedule(context.Background(), "owner-1", "0 * * * *"); err != nil {
		t.Fatalf("schedule owner-1 failed: %v", err)
	}
	if err := svc.Schedule(context.Background(), "owner-2", "0 * * * *"); err != nil {
		t.Fatalf("schedule owner-2 failed: %v", err)
	}

	if got := len(svc.cron.Entries()); got != 2 {
		t.Errorf("expected 2 cron entries, got %d", got)
	}
}

func TestScheduleRejectsInvalidExpression(t *testing.T) {
	svc := newTestService(newMemScheduleRepo())

	if err := svc.Schedule(context.Background(), "owner-1", "not a cron"); err == nil {
		t.Fatal("expected error for invalid expression")
	}
	if got := len(svc.cron.Entries()); got != 0 {
		t.Errorf("invalid expression must not install an entry, got %d", got)
	}
}

func TestScheduleEmptyExpressionUnschedules(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo)

	if err := svc.Schedule(context.Background(), "owner-1", "0 * * * *"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if err := svc.Schedule(context.Background(), "owner-1", ""); err != nil {
		t.Fatalf("empty-expression schedule failed: %v", err)
	}

	if got := len(svc.cron.Entries()); got != 0 {
		t.Errorf("expected no cron entries, got %d", got)
	}
	if _, err := repo.GetByOwner(context.Background(), "owner-1"); err == nil {
		t.Error("persisted schedule should be gone")
	}
}

func TestUnscheduleUnknownOwnerIsNoOp(t *testing.T) {
	svc := newTestService(newMemScheduleRepo())

	if err := svc.Unschedule(context.Background(), "owner-unknown"); err != nil {
		t.Fatalf("unschedule of unknown owner should be a no-op, got %v", err)
	}
}

func TestInitializeLoadsPersistedSchedules(t *testing.T) {
	repo := newMemScheduleRepo()
	repo.entries["owner-1"] = ScheduleEntry{OwnerID: "owner-1", Expression: "0 * * * *"}
	repo.entries["owner-2"] = ScheduleEntry{OwnerID: "owner-2", Expression: "broken"}
	repo.entries["owner-3"] = ScheduleEntry{OwnerID: "owner-3", Expression: "*/10 * * * *"}

	svc := newTestService(repo)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer svc.Stop()

	// The invalid persisted entry is skipped, not fatal.
	if got := len(svc.cron.Entries()); got != 2 {
		t.Errorf("expected 2 installed entries, got %d", got)
	}
}
