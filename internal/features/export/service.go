package export

import (
	"context"
	"database/sql"
	"fmt"

	"notisync/internal/database"
	"notisync/internal/features/mirror"
	"notisync/internal/features/target"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// sheetNameLimit is the spreadsheet format's hard cap on sheet name length.
const sheetNameLimit = 31

// Service renders a target's mirror tables as a spreadsheet, one sheet per
// data source.
type Service interface {
	Export(ctx context.Context, ownerID, targetID string) (*excelize.File, string, error)
}

type ServiceImpl struct {
	Targets     target.Repository
	DataSources target.DataSourceRepository
	Naming      mirror.TableNamingPolicy
	Dest        *database.Destination
	Logger      *zap.Logger
}

func NewService(
	targets target.Repository,
	dataSources target.DataSourceRepository,
	naming mirror.TableNamingPolicy,
	dest *database.Destination,
	logger *zap.Logger,
) Service {
	return &ServiceImpl{
		Targets:     targets,
		DataSources: dataSources,
		Naming:      naming,
		Dest:        dest,
		Logger:      logger,
	}
}

// Export builds the workbook and returns it with a suggested filename.
func (s *ServiceImpl) Export(ctx context.Context, ownerID, targetID string) (*excelize.File, string, error) {
	t, err := s.Targets.Get(ctx, targetID)
	if err != nil {
		return nil, "", fmt.Errorf("sync target %s not found: %w", targetID, err)
	}
	if t.OwnerID != ownerID {
		return nil, "", fmt.Errorf("sync target %s does not belong to owner %s", targetID, ownerID)
	}

	refs, err := s.DataSources.ListByTarget(ctx, t.ID)
	if err != nil {
		return nil, "", err
	}
	if len(refs) == 0 {
		return nil, "", fmt.Errorf("target %s has no synced data sources yet", targetID)
	}

	file := excelize.NewFile()
	for i, ref := range refs {
		name := ref.Name
		if name == "" {
			name = t.Name
		}
		table := s.Naming.TableName(t.OwnerID, name)
		sheet := sheetName(name, i)

		if i == 0 {
			if err := file.SetSheetName("Sheet1", sheet); err != nil {
				return nil, "", err
			}
		} else {
			if _, err := file.NewSheet(sheet); err != nil {
				return nil, "", err
			}
		}

		if err := s.writeSheet(ctx, file, sheet, table); err != nil {
			return nil, "", err
		}
	}

	filename := fmt.Sprintf("%s.xlsx", s.Naming.TableName(t.OwnerID, t.Name))
	return file, filename, nil
}

// writeSheet copies one mirror table into one sheet, header row first.
func (s *ServiceImpl) writeSheet(ctx context.Context, file *excelize.File, sheet, table string) error {
	rows, err := s.Dest.DB.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	values := make([]sql.RawBytes, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	rowIndex := 2
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}

		cells := make([]interface{}, len(columns))
		for i, v := range values {
			if v == nil {
				cells[i] = nil
			} else {
				cells[i] = string(v)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		rowIndex++
	}

	s.Logger.Info("exported mirror table",
		zap.String("table", table),
		zap.String("sheet", sheet),
		zap.Int("rows", rowIndex-2))
	return rows.Err()
}

// sheetName fits a data source name into the sheet name limit, keeping names
// unique across the workbook via the index suffix.
func sheetName(name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}

	suffix := ""
	if index > 0 {
		suffix = fmt.Sprintf(" (%d)", index+1)
	}

	limit := sheetNameLimit - len(suffix)
	if len(name) > limit {
		name = name[:limit]
	}
	return name + suffix
}
