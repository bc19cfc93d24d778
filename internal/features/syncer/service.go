package syncer

import (
	"context"
	"fmt"
	"time"

	"notisync/internal/features/account"
	"notisync/internal/features/mapper"
	"notisync/internal/features/mirror"
	"notisync/internal/features/notion"
	"notisync/internal/features/target"

	"go.uber.org/zap"
)

const (
	CapabilityRun   = "sync:run"
	CapabilityAdmin = "sync:admin"
)

// Orchestrator runs syncs end to end: credential resolution, data source
// discovery, schema reconciliation, then the page walk. Targets are processed
// sequentially and one target's failure never aborts the others.
type Orchestrator interface {
	Run(ctx context.Context, ownerID, targetID string) (*AggregateResult, error)
	Recreate(ctx context.Context, ownerID, targetID string) error
	History(ctx context.Context, ownerID, targetID string, limit int64) ([]SyncRun, error)
	Discover(ctx context.Context, ownerID, cursor string) (*notion.SearchResult, error)
}

type OrchestratorImpl struct {
	Accounts    account.Service
	Targets     target.Repository
	DataSources target.DataSourceRepository
	Client      notion.Client
	Schema      mirror.Synchronizer
	Naming      mirror.TableNamingPolicy
	Driver      *Driver
	Runs        Repository
	Logger      *zap.Logger
}

func NewOrchestrator(
	accounts account.Service,
	targets target.Repository,
	dataSources target.DataSourceRepository,
	client notion.Client,
	schema mirror.Synchronizer,
	naming mirror.TableNamingPolicy,
	driver *Driver,
	runs Repository,
	logger *zap.Logger,
) Orchestrator {
	return &OrchestratorImpl{
		Accounts:    accounts,
		Targets:     targets,
		DataSources: dataSources,
		Client:      client,
		Schema:      schema,
		Naming:      naming,
		Driver:      driver,
		Runs:        runs,
		Logger:      logger,
	}
}

// Run syncs one target by id, or every enabled target of the owner when
// targetID is empty.
func (o *OrchestratorImpl) Run(ctx context.Context, ownerID, targetID string) (*AggregateResult, error) {
	allowed, err := o.Accounts.HasCapability(ctx, ownerID, CapabilityRun)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("owner %s is not allowed to run syncs", ownerID)
	}

	cred, err := o.Accounts.Credential(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	targets, err := o.resolveTargets(ctx, ownerID, targetID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return &AggregateResult{}, nil
	}

	result := &AggregateResult{}
	for _, t := range targets {
		run := SyncRun{
			OwnerID:    ownerID,
			TargetID:   t.ID,
			TargetName: t.Name,
			StartedAt:  time.Now(),
		}

		counts, tables, syncErr := o.syncTarget(ctx, cred, &t)
		run.FinishedAt = time.Now()
		run.Counts = counts
		run.Tables = tables

		outcome := TargetResult{
			TargetID:   t.ID.Hex(),
			TargetName: t.Name,
			Counts:     counts,
		}

		if syncErr != nil {
			run.Error = syncErr.Error()
			outcome.Error = syncErr.Error()
			result.Failed++
			o.Logger.Error("target sync failed",
				zap.String("target", t.ID.Hex()),
				zap.String("name", t.Name),
				zap.Error(syncErr))
		} else {
			run.Success = true
			outcome.Success = true
			result.Succeeded++
			if err := o.Targets.Update(ctx, t.ID.Hex(), map[string]interface{}{"last_sync_at": run.FinishedAt}); err != nil {
				o.Logger.Warn("failed to stamp target sync time",
					zap.String("target", t.ID.Hex()),
					zap.Error(err))
			}
		}

		if err := o.Runs.Create(ctx, &run); err != nil {
			o.Logger.Warn("failed to record sync run",
				zap.String("target", t.ID.Hex()),
				zap.Error(err))
		}

		result.Targets = append(result.Targets, outcome)
	}

	return result, nil
}

func (o *OrchestratorImpl) resolveTargets(ctx context.Context, ownerID, targetID string) ([]target.SyncTarget, error) {
	if targetID == "" {
		return o.Targets.ListEnabled(ctx, ownerID)
	}

	t, err := o.Targets.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("sync target %s not found: %w", targetID, err)
	}
	if t.OwnerID != ownerID {
		return nil, fmt.Errorf("sync target %s does not belong to owner %s", targetID, ownerID)
	}
	if !t.Enabled {
		return nil, fmt.Errorf("sync target %s is disabled", targetID)
	}
	return []target.SyncTarget{*t}, nil
}

// syncTarget discovers the target's data sources, reconciles each mirror
// table, and drives the page walk. Returns the touched table names.
func (o *OrchestratorImpl) syncTarget(ctx context.Context, cred notion.Credential, t *target.SyncTarget) (mirror.Counts, []string, error) {
	var counts mirror.Counts

	refs, err := o.discover(ctx, cred, t)
	if err != nil {
		return counts, nil, err
	}
	if len(refs) == 0 {
		return counts, nil, fmt.Errorf("database %s exposes no data sources", t.DatabaseID)
	}

	var tr *mapper.Transform
	if t.Transform != "" {
		tr, err = mapper.NewTransform(t.Transform)
		if err != nil {
			return counts, nil, err
		}
	}

	var tables []string
	for _, ref := range refs {
		ds, err := o.Client.GetDataSource(ctx, cred, ref.DataSourceID)
		if err != nil {
			return counts, tables, err
		}

		cols := mapper.MapSchema(propertyTypes(ds))

		name := ref.Name
		if name == "" {
			name = t.Name
		}
		table := o.Naming.TableName(t.OwnerID, name)

		if err := o.Schema.EnsureTable(ctx, table, cols); err != nil {
			return counts, tables, err
		}
		tables = append(tables, table)

		dsCounts, err := o.Driver.Drive(ctx, cred, ref, table, cols, tr)
		counts.Add(dsCounts)
		if err != nil {
			return counts, tables, err
		}
	}

	return counts, tables, nil
}

// discover refreshes the target's data source refs from the remote database
// object and returns them with persisted cursors intact.
func (o *OrchestratorImpl) discover(ctx context.Context, cred notion.Credential, t *target.SyncTarget) ([]target.DataSourceRef, error) {
	db, err := o.Client.GetDatabase(ctx, cred, t.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch database %s: %w", t.DatabaseID, err)
	}

	refs := make([]target.DataSourceRef, 0, len(db.DataSources))
	for _, ds := range db.DataSources {
		refs = append(refs, target.DataSourceRef{
			OwnerID:      t.OwnerID,
			DatabaseID:   t.DatabaseID,
			DataSourceID: ds.ID,
			Name:         ds.Name,
		})
	}

	if err := o.DataSources.ReplaceForTarget(ctx, t.ID, refs); err != nil {
		return nil, err
	}
	return o.DataSources.ListByTarget(ctx, t.ID)
}

// Recreate drops and rebuilds the target's mirror tables from the latest
// remote schema. Destructive; requires the admin capability.
func (o *OrchestratorImpl) Recreate(ctx context.Context, ownerID, targetID string) error {
	allowed, err := o.Accounts.HasCapability(ctx, ownerID, CapabilityAdmin)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("owner %s is not allowed to recreate mirror tables", ownerID)
	}

	cred, err := o.Accounts.Credential(ctx, ownerID)
	if err != nil {
		return err
	}

	t, err := o.Targets.Get(ctx, targetID)
	if err != nil {
		return fmt.Errorf("sync target %s not found: %w", targetID, err)
	}
	if t.OwnerID != ownerID {
		return fmt.Errorf("sync target %s does not belong to owner %s", targetID, ownerID)
	}

	refs, err := o.discover(ctx, cred, t)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		ds, err := o.Client.GetDataSource(ctx, cred, ref.DataSourceID)
		if err != nil {
			return err
		}

		cols := mapper.MapSchema(propertyTypes(ds))

		name := ref.Name
		if name == "" {
			name = t.Name
		}
		table := o.Naming.TableName(t.OwnerID, name)

		if err := o.Schema.RecreateTable(ctx, table, cols); err != nil {
			return err
		}
	}

	return nil
}

// History lists recent runs, optionally narrowed to one of the owner's
// targets.
func (o *OrchestratorImpl) History(ctx context.Context, ownerID, targetID string, limit int64) ([]SyncRun, error) {
	if targetID == "" {
		return o.Runs.ListByOwner(ctx, ownerID, limit)
	}

	t, err := o.Targets.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("sync target %s not found: %w", targetID, err)
	}
	if t.OwnerID != ownerID {
		return nil, fmt.Errorf("sync target %s does not belong to owner %s", targetID, ownerID)
	}
	return o.Runs.ListByTarget(ctx, t.ID, limit)
}

// Discover pages the owner's workspace search, used to find collection ids
// worth registering as targets.
func (o *OrchestratorImpl) Discover(ctx context.Context, ownerID, cursor string) (*notion.SearchResult, error) {
	cred, err := o.Accounts.Credential(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return o.Client.Search(ctx, cred, cursor)
}

func propertyTypes(ds *notion.DataSource) map[string]string {
	props := make(map[string]string, len(ds.Properties))
	for name, schema := range ds.Properties {
		props[name] = schema.Type
	}
	return props
}
