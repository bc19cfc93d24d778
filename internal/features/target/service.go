package target

import (
	"context"
	"errors"
	"time"

	"notisync/internal/features/mapper"
)

type Service interface {
	Register(ctx context.Context, target *SyncTarget) error
	Get(ctx context.Context, id string) (*SyncTarget, error)
	List(ctx context.Context, ownerID string) ([]SyncTarget, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	SetTransform(ctx context.Context, id string, script string) error
	StampSynced(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type ServiceImpl struct {
	Repo Repository
}

func NewService(repo Repository) Service {
	return &ServiceImpl{Repo: repo}
}

func (s *ServiceImpl) Register(ctx context.Context, target *SyncTarget) error {
	if target.OwnerID == "" || target.DatabaseID == "" {
		return errors.New("owner id and database id are required")
	}
	if target.Name == "" {
		target.Name = target.DatabaseID
	}
	if target.Transform != "" {
		if _, err := mapper.NewTransform(target.Transform); err != nil {
			return err
		}
	}
	target.Enabled = true
	return s.Repo.Create(ctx, target)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (*SyncTarget, error) {
	return s.Repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, ownerID string) ([]SyncTarget, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

func (s *ServiceImpl) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.Repo.Update(ctx, id, map[string]interface{}{"enabled": enabled})
}

func (s *ServiceImpl) SetTransform(ctx context.Context, id string, script string) error {
	if script != "" {
		if _, err := mapper.NewTransform(script); err != nil {
			return err
		}
	}
	return s.Repo.Update(ctx, id, map[string]interface{}{"transform": script})
}

func (s *ServiceImpl) StampSynced(ctx context.Context, id string, at time.Time) error {
	return s.Repo.Update(ctx, id, map[string]interface{}{"last_sync_at": at})
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
