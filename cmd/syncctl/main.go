package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"notisync/internal/config"
	"notisync/internal/database"
	"notisync/internal/features/account"
	"notisync/internal/features/audit"
	"notisync/internal/features/mirror"
	"notisync/internal/features/notion"
	"notisync/internal/features/schedule"
	"notisync/internal/features/syncer"
	"notisync/internal/features/target"
	"notisync/pkg/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// env bundles the hand-wired dependencies the commands share. The CLI builds
// connections directly instead of going through the fx container.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	mongo  *mongo.Client
	db     *database.MongodbDB
	dest   *database.Destination
}

func newEnv() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to registry: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping registry: %w", err)
	}

	dialect := database.Dialect(cfg.DestDriver)
	destDB, err := sql.Open(string(dialect), cfg.DestDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination: %w", err)
	}
	if err := destDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping destination: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		mongo:  client,
		db:     &database.MongodbDB{DB: client.Database(cfg.DBName)},
		dest:   &database.Destination{DB: destDB, Dialect: dialect},
	}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.dest.DB.Close()
	e.mongo.Disconnect(ctx)
	e.logger.Sync()
}

func (e *env) orchestrator() syncer.Orchestrator {
	auditSvc := audit.NewService(audit.NewCallLogRepository(e.db), e.logger)
	accounts := account.NewService(account.NewRepository(e.db))
	client := notion.NewClient(e.cfg.NotionURL, auditSvc, e.logger)

	dataSources := target.NewDataSourceRepository(e.db)
	targets := target.NewRepository(e.db, dataSources)

	writer := mirror.NewWriter(e.dest)
	driver := syncer.NewDriver(client, writer, dataSources, e.logger)

	return syncer.NewOrchestrator(
		accounts,
		targets,
		dataSources,
		client,
		mirror.NewSynchronizer(e.dest, e.logger),
		mirror.NewTableNamingPolicy(),
		driver,
		syncer.NewRepository(e.db),
		e.logger,
	)
}

func newRunCmd() *cobra.Command {
	var ownerID, targetID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sync for one target or every enabled target of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.orchestrator().Run(cmd.Context(), ownerID, targetID)
			if err != nil {
				return err
			}

			for _, t := range result.Targets {
				status := "ok"
				if !t.Success {
					status = "FAILED: " + t.Error
				}
				fmt.Printf("%-24s total=%d inserted=%d updated=%d skipped=%d %s\n",
					t.TargetName, t.Counts.Total, t.Counts.Inserted, t.Counts.Updated, t.Counts.Skipped, status)
			}
			fmt.Printf("%d succeeded, %d failed\n", result.Succeeded, result.Failed)

			if result.Failed > 0 {
				return fmt.Errorf("%d target(s) failed", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&targetID, "target", "", "sync target id (default: all enabled)")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	var ownerID, expression string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Persist a recurring sync schedule for an owner",
		Long:  "Persists the cron expression in the registry. A running server picks it up on its next start.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cron.ParseStandard(expression); err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", expression, err)
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := schedule.NewRepository(e.db).Upsert(cmd.Context(), ownerID, expression); err != nil {
				return err
			}
			fmt.Printf("scheduled owner %s: %s\n", ownerID, expression)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&expression, "expr", "", "cron expression (required)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("expr")
	return cmd
}

func newUnscheduleCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "unschedule",
		Short: "Remove an owner's recurring sync schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := schedule.NewRepository(e.db).DeleteByOwner(cmd.Context(), ownerID); err != nil {
				return err
			}
			fmt.Printf("unscheduled owner %s\n", ownerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var ownerID, caps string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			utils.SetSecret(cfg.JWTSecret)

			capabilities := []string{}
			if caps != "" {
				capabilities = strings.Split(caps, ",")
			}

			token, err := utils.GenerateToken(ownerID, capabilities, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&caps, "caps", "sync:run", "comma-separated capabilities")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "syncctl",
		Short: "Operational tooling for the mirror sync service",
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newUnscheduleCmd())
	root.AddCommand(newTokenCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
