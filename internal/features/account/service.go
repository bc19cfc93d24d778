package account

import (
	"context"
	"fmt"
	"slices"

	"notisync/internal/features/notion"
)

// Service resolves owner credentials and capability checks for the sync core.
type Service interface {
	Credential(ctx context.Context, ownerID string) (notion.Credential, error)
	HasCapability(ctx context.Context, ownerID, capability string) (bool, error)
	Save(ctx context.Context, account *Account) error
}

type ServiceImpl struct {
	Repo Repository
}

func NewService(repo Repository) Service {
	return &ServiceImpl{Repo: repo}
}

// Credential fails fast with a descriptive error when the owner has no
// stored remote credential; the orchestrator surfaces this before touching
// the network or the destination.
func (s *ServiceImpl) Credential(ctx context.Context, ownerID string) (notion.Credential, error) {
	account, err := s.Repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return notion.Credential{}, fmt.Errorf("no account configured for owner %s: %w", ownerID, err)
	}
	if account.NotionToken == "" {
		return notion.Credential{}, fmt.Errorf("owner %s has no remote API token configured", ownerID)
	}

	return notion.Credential{
		OwnerID: ownerID,
		Token:   account.NotionToken,
		Version: account.NotionVersion,
	}, nil
}

func (s *ServiceImpl) HasCapability(ctx context.Context, ownerID, capability string) (bool, error) {
	account, err := s.Repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("no account configured for owner %s: %w", ownerID, err)
	}
	return slices.Contains(account.Capabilities, capability), nil
}

func (s *ServiceImpl) Save(ctx context.Context, account *Account) error {
	if account.OwnerID == "" {
		return fmt.Errorf("owner id is required")
	}
	return s.Repo.Upsert(ctx, account)
}
