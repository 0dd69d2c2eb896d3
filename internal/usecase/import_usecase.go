package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/domain"
)

// ImportUseCase runs CSV imports: parse, normalize, deduplicate, append.
type ImportUseCase struct {
	writer     *ledgerWriter
	accounts   AccountRepository
	importRepo ImportRecordRepository
	providers  ProviderRegistry
	decoder    RowDecoder
	locker     AccountLocker
	idGen      IDGenerator
	archiver   Archiver
	recorder   ImportRecorder
	logger     zerolog.Logger
}

// ImportUseCaseConfig carries the collaborators of ImportUseCase.
// Archiver and Recorder are optional.
type ImportUseCaseConfig struct {
	TxManager       TransactionManager
	AccountRepo     AccountRepository
	TransactionRepo TransactionRepository
	ImportRepo      ImportRecordRepository
	OutboxRepo      OutboxRepository
	Providers       ProviderRegistry
	Decoder         RowDecoder
	Locker          AccountLocker
	Retrier         Retrier
	IDGen           IDGenerator
	Archiver        Archiver
	Recorder        ImportRecorder
	Logger          zerolog.Logger
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(cfg ImportUseCaseConfig) *ImportUseCase {
	return &ImportUseCase{
		writer: &ledgerWriter{
			txManager:   cfg.TxManager,
			accountRepo: cfg.AccountRepo,
			txRepo:      cfg.TransactionRepo,
			outboxRepo:  cfg.OutboxRepo,
			retrier:     cfg.Retrier,
		},
		accounts:   cfg.AccountRepo,
		importRepo: cfg.ImportRepo,
		providers:  cfg.Providers,
		decoder:    cfg.Decoder,
		locker:     cfg.Locker,
		idGen:      cfg.IDGen,
		archiver:   cfg.Archiver,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
	}
}

// ImportCSVInput represents one uploaded file.
type ImportCSVInput struct {
	AccountID string
	// Provider overrides the account's provider when set.
	Provider domain.Provider
	// Mapping is required for the generic provider.
	Mapping  *domain.ColumnMapping
	Filename string
	Size     int64
	Content  io.Reader
}

// ImportCSV imports one file into an account's ledger. The returned summary
// is never nil, also when err is set: row level problems are reported in it,
// batch level failures additionally come back as err with nothing persisted.
func (uc *ImportUseCase) ImportCSV(ctx context.Context, input ImportCSVInput) (*domain.ImportSummary, error) {
	started := time.Now().UTC()
	summary := &domain.ImportSummary{
		ImportID:  uc.idGen.Generate(),
		AccountID: input.AccountID,
		Provider:  input.Provider,
	}

	unlock, err := uc.locker.Lock(ctx, input.AccountID)
	if err != nil {
		return summary, err
	}
	defer unlock()

	account, err := uc.accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		return summary, err
	}

	var raw []byte
	if uc.archiver != nil && input.Content != nil {
		raw, err = io.ReadAll(input.Content)
		if err != nil {
			return summary, fmt.Errorf("reading upload: %w", err)
		}
		input.Content = bytes.NewReader(raw)
		if input.Size == 0 {
			input.Size = int64(len(raw))
		}
	}

	err = uc.run(ctx, account, input, summary)
	uc.finish(ctx, input, summary, raw, started, err)

	return summary, err
}

func (uc *ImportUseCase) run(ctx context.Context, account *domain.Account, input ImportCSVInput, summary *domain.ImportSummary) error {
	if err := account.AcceptsImports(); err != nil {
		return err
	}

	name := input.Provider
	if name == "" {
		name = account.Provider
	}
	summary.Provider = name

	provider, err := uc.providers.Resolve(name, input.Mapping)
	if err != nil {
		return err
	}

	candidates, lines, err := uc.parse(ctx, account.ID, provider, input.Content, summary)
	if err != nil {
		return err
	}

	res, err := uc.writer.write(ctx, account.ID, candidates, func(res batchResult) *domain.OutboxEvent {
		return &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeImportCompleted,
			Payload: domain.ImportCompletedEvent{
				ImportID:   summary.ImportID,
				AccountID:  account.ID,
				Provider:   string(summary.Provider),
				Imported:   len(res.accepted),
				Duplicates: res.duplicates,
				Malformed:  summary.Malformed,
				Flagged:    res.flagged(),
			}.ToPayload(),
			CreatedAt: time.Now().UTC(),
		}
	})
	if err != nil {
		return err
	}

	summary.Imported = len(res.accepted)
	summary.Duplicates = res.duplicates
	for _, t := range res.accepted {
		if t.SignMismatch {
			summary.AddWarning(lines[t], fmt.Sprintf("amount %s has the wrong sign for %s", t.Amount, t.TransCode))
		}
	}
	return nil
}

// parse reads every row, in file order, into sealed transactions and the
// line each came from. Row level failures are recorded in summary and skipped.
func (uc *ImportUseCase) parse(
	ctx context.Context,
	accountID string,
	provider Provider,
	content io.Reader,
	summary *domain.ImportSummary,
) ([]*domain.Transaction, map[*domain.Transaction]int, error) {
	rows, err := uc.decoder.Open(content, provider.Schema())
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	var candidates []*domain.Transaction
	lines := make(map[*domain.Transaction]int)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var rowErr *domain.RowError
		if errors.As(err, &rowErr) {
			summary.Processed++
			summary.AddError(rowErr.Line, rowErr.Err.Error(), rowErr.Raw)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv: %w", err)
		}

		summary.Processed++

		t, err := provider.Normalize(row)
		if errors.Is(err, domain.ErrSkipRow) {
			summary.Skipped++
			continue
		}
		if err != nil {
			summary.AddError(row.Line, err.Error(), row.Raw)
			continue
		}

		t.ID = uc.idGen.Generate()
		t.AccountID = accountID
		t.ImportID = summary.ImportID
		t.Source = domain.ImportSourceCSV
		t.CreatedAt = now
		t.Seal()

		lines[t] = row.Line
		candidates = append(candidates, t)
	}

	return candidates, lines, nil
}

// finish persists the history record and reports the outcome. It runs on
// a context detached from cancellation so aborted imports are recorded too.
func (uc *ImportUseCase) finish(
	ctx context.Context,
	input ImportCSVInput,
	summary *domain.ImportSummary,
	raw []byte,
	started time.Time,
	importErr error,
) {
	ctx = context.WithoutCancel(ctx)
	rec := domain.NewImportRecord(summary, input.Filename, input.Size, started, importErr)

	if uc.archiver != nil && raw != nil {
		key := path.Join(summary.AccountID, summary.ImportID, path.Base("/"+input.Filename))
		uri, err := uc.archiver.Archive(ctx, key, bytes.NewReader(raw))
		if err != nil {
			uc.logger.Warn().Err(err).Str("import_id", summary.ImportID).Msg("failed to archive upload")
		} else {
			rec.ArchiveURI = uri
		}
	}

	if err := uc.importRepo.Create(ctx, rec); err != nil {
		uc.logger.Error().Err(err).Str("import_id", summary.ImportID).Msg("failed to save import record")
	}

	duration := time.Since(started)
	if uc.recorder != nil {
		uc.recorder.RecordImport(string(summary.Provider), rec.Status, summary, duration)
	}

	event := uc.logger.Info()
	if importErr != nil {
		event = uc.logger.Warn().Err(importErr)
	}
	event.
		Str("account_id", summary.AccountID).
		Str("import_id", summary.ImportID).
		Str("provider", string(summary.Provider)).
		Int("processed", summary.Processed).
		Int("imported", summary.Imported).
		Int("duplicates", summary.Duplicates).
		Int("malformed", summary.Malformed).
		Int("flagged", summary.Flagged).
		Int("skipped", summary.Skipped).
		Dur("duration", duration).
		Msg("import finished")
}

// ListImportsInput represents input for listing import history.
type ListImportsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListImports returns an account's import history, newest first.
func (uc *ImportUseCase) ListImports(ctx context.Context, input ListImportsInput) ([]*domain.ImportRecord, error) {
	if _, err := uc.accounts.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}
	limit, offset := domain.NormalizePage(input.Limit, input.Offset, domain.MaxPageSize)
	return uc.importRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
