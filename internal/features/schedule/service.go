package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner triggers one owner's full sync. The orchestrator satisfies this via
// a small adapter so this package stays decoupled from the sync core.
type Runner interface {
	RunAll(ctx context.Context, ownerID string) error
}

// Service owns the in-process cron and keeps it consistent with the
// persisted schedules. At most one cron entry exists per owner at any time.
type Service interface {
	Schedule(ctx context.Context, ownerID, expression string) error
	Unschedule(ctx context.Context, ownerID string) error
	Get(ctx context.Context, ownerID string) (*ScheduleEntry, error)
	List(ctx context.Context) ([]ScheduleEntry, error)
	Initialize(ctx context.Context) error
	Stop()
}

type ServiceImpl struct {
	Repo   Repository
	Runner Runner
	Logger *zap.Logger

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewService(repo Repository, runner Runner, logger *zap.Logger) Service {
	return &ServiceImpl{
		Repo:    repo,
		Runner:  runner,
		Logger:  logger,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule installs or replaces the owner's recurring sync. An empty
// expression unschedules instead.
func (s *ServiceImpl) Schedule(ctx context.Context, ownerID, expression string) error {
	if ownerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if expression == "" {
		return s.Unschedule(ctx, ownerID)
	}

	if _, err := cron.ParseStandard(expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	if err := s.Repo.Upsert(ctx, ownerID, expression); err != nil {
		return err
	}

	return s.install(ownerID, expression)
}

// install swaps the owner's cron entry under the lock so no window exists
// where two entries fire for the same owner.
func (s *ServiceImpl) install(ownerID, expression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[ownerID]; ok {
		s.cron.Remove(old)
		delete(s.entries, ownerID)
	}

	id, err := s.cron.AddFunc(expression, func() {
		s.Logger.Info("scheduled sync firing", zap.String("owner", ownerID))
		if err := s.Runner.RunAll(context.Background(), ownerID); err != nil {
			s.Logger.Error("scheduled sync failed",
				zap.String("owner", ownerID),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to install schedule for owner %s: %w", ownerID, err)
	}

	s.entries[ownerID] = id
	return nil
}

// Unschedule removes the owner's schedule. Unscheduling an owner with no
// schedule is a no-op.
func (s *ServiceImpl) Unschedule(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	if id, ok := s.entries[ownerID]; ok {
		s.cron.Remove(id)
		delete(s.entries, ownerID)
	}
	s.mu.Unlock()

	return s.Repo.DeleteByOwner(ctx, ownerID)
}

func (s *ServiceImpl) Get(ctx context.Context, ownerID string) (*ScheduleEntry, error) {
	return s.Repo.GetByOwner(ctx, ownerID)
}

func (s *ServiceImpl) List(ctx context.Context) ([]ScheduleEntry, error) {
	return s.Repo.List(ctx)
}

// Initialize loads persisted schedules into the cron and starts it. Entries
// whose expression no longer parses are skipped with a warning instead of
// blocking startup.
func (s *ServiceImpl) Initialize(ctx context.Context) error {
	entries, err := s.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, entry := range entries {
		if _, err := cron.ParseStandard(entry.Expression); err != nil {
			s.Logger.Warn("skipping persisted schedule with invalid expression",
				zap.String("owner", entry.OwnerID),
				zap.String("expression", entry.Expression),
				zap.Error(err))
			continue
		}
		if err := s.install(entry.OwnerID, entry.Expression); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.Logger.Info("schedule service started", zap.Int("schedules", len(s.entries)))
	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *ServiceImpl) Stop() {
	<-s.cron.Stop().Done()
}
