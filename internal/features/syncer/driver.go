package syncer

import (
	"context"
	"fmt"

	"notisync/internal/features/mapper"
	"notisync/internal/features/mirror"
	"notisync/internal/features/notion"
	"notisync/internal/features/target"

	"go.uber.org/zap"
)

// pageSize is the query page size. The remote caps pages at 100 records.
const pageSize = 100

// Driver walks one data source page by page, converting and upserting each
// page before requesting the next. Every run starts from an empty cursor;
// upserts make replaying already-seen records harmless.
type Driver struct {
	Client      notion.Client
	Writer      mirror.Writer
	DataSources target.DataSourceRepository
	Logger      *zap.Logger
}

func NewDriver(client notion.Client, writer mirror.Writer, dataSources target.DataSourceRepository, logger *zap.Logger) *Driver {
	return &Driver{
		Client:      client,
		Writer:      writer,
		DataSources: dataSources,
		Logger:      logger,
	}
}

// Drive pages through ref's data source and upserts every record into table.
// The cursor is checkpointed after each page so an interrupted run leaves a
// visible high-water mark, and cleared once the walk completes.
func (d *Driver) Drive(ctx context.Context, cred notion.Credential, ref target.DataSourceRef, table string, cols []mapper.MappedColumn, tr *mapper.Transform) (mirror.Counts, error) {
	var counts mirror.Counts
	cursor := ""

	for {
		page, err := d.Client.QueryDataSource(ctx, cred, ref.DataSourceID, cursor, pageSize)
		if err != nil {
			return counts, fmt.Errorf("failed to query data source %s: %w", ref.DataSourceID, err)
		}

		rows := make([]map[string]any, 0, len(page.Records))
		for _, rec := range page.Records {
			row := mapper.ConvertRecord(rec, cols, d.Logger)
			if tr != nil {
				// A transform that fails at runtime degrades to the
				// untransformed row; one bad record never aborts the target.
				transformed, err := tr.Apply(row)
				if err != nil {
					d.Logger.Warn("transform failed, storing untransformed row",
						zap.String("record", rec.ID),
						zap.Error(err))
				} else {
					row = transformed
				}
			}
			rows = append(rows, row)
		}

		pageCounts, err := d.Writer.UpsertBatch(ctx, table, cols, rows)
		counts.Add(pageCounts)
		if err != nil {
			return counts, err
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor

		if err := d.DataSources.SaveCursor(ctx, ref.ID, cursor); err != nil {
			d.Logger.Warn("failed to checkpoint cursor",
				zap.String("data_source", ref.DataSourceID),
				zap.Error(err))
		}
	}

	if err := d.DataSources.SaveCursor(ctx, ref.ID, ""); err != nil {
		d.Logger.Warn("failed to clear cursor",
			zap.String("data_source", ref.DataSourceID),
			zap.Error(err))
	}

	d.Logger.Info("drove data source",
		zap.String("data_source", ref.DataSourceID),
		zap.String("table", table),
		zap.Int("total", counts.Total),
		zap.Int("inserted", counts.Inserted),
		zap.Int("updated", counts.Updated))
	return counts, nil
}
