package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/infrastructure/postgres/generated"
)

// ImportRecordRepository implements usecase.ImportRecordRepository.
type ImportRecordRepository struct {
	queries *generated.Queries
}

// NewImportRecordRepository creates a new ImportRecordRepository.
func NewImportRecordRepository(pool *pgxpool.Pool) *ImportRecordRepository {
	return &ImportRecordRepository{queries: generated.New(pool)}
}

// Create saves one import history entry.
func (r *ImportRecordRepository) Create(ctx context.Context, rec *domain.ImportRecord) error {
	return r.queries.CreateImport(ctx, generated.CreateImportParams{
		ID:           rec.ID,
		AccountID:    rec.AccountID,
		Provider:     string(rec.Provider),
		Filename:     rec.Filename,
		FileSize:     rec.FileSize,
		Status:       string(rec.Status),
		Processed:    int32(rec.Processed),
		Imported:     int32(rec.Imported),
		Duplicates:   int32(rec.Duplicates),
		Malformed:    int32(rec.Malformed),
		Flagged:      int32(rec.Flagged),
		ErrorMessage: rec.ErrorMessage,
		ArchiveUri:   rec.ArchiveURI,
		StartedAt:    timeToPgTimestamptz(rec.StartedAt),
		CompletedAt:  timeToPgTimestamptz(rec.CompletedAt),
	})
}

// ListByAccount lists an account's imports, newest first.
func (r *ImportRecordRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.ImportRecord, error) {
	rows, err := r.queries.ListImportsByAccount(ctx, generated.ListImportsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	records := make([]*domain.ImportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &domain.ImportRecord{
			ID:           row.ID,
			AccountID:    row.AccountID,
			Provider:     domain.Provider(row.Provider),
			Filename:     row.Filename,
			FileSize:     row.FileSize,
			Status:       domain.ImportStatus(row.Status),
			Processed:    int(row.Processed),
			Imported:     int(row.Imported),
			Duplicates:   int(row.Duplicates),
			Malformed:    int(row.Malformed),
			Flagged:      int(row.Flagged),
			ErrorMessage: row.ErrorMessage,
			ArchiveURI:   row.ArchiveUri,
			StartedAt:    row.StartedAt.Time,
			CompletedAt:  row.CompletedAt.Time,
		})
	}
	return records, nil
}
