package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rosehollow/cookbook/backend/internal/recipes"
	"github.com/rosehollow/cookbook/backend/internal/store"
	"go.uber.org/zap"
)

const (
	defaultBatchSize  = 5
	defaultBatchPause = 200 * time.Millisecond
	clearPauseEvery   = 10
	clearPause        = 100 * time.Millisecond
)

var (
	errMissingRepository = errors.New("backup: repository is required")
	errMissingStore      = errors.New("backup: backup store client is required")

	// ErrBackupInProgress indicates another full backup is still running.
	ErrBackupInProgress = errors.New("backup: full backup already in progress")
	// ErrNoRecipes indicates there was nothing to back up.
	ErrNoRecipes = errors.New("backup: no recipes loaded to back up")
	// ErrBackupFailed indicates no batch succeeded at all.
	ErrBackupFailed = errors.New("backup: no recipes were successfully backed up")
	// ErrNoBackupRecords indicates the backup store holds no records to restore.
	ErrNoBackupRecords = errors.New("backup: no backup records found")
	// ErrRestoreDeclined indicates the operator did not explicitly confirm.
	ErrRestoreDeclined = errors.New("backup: restore not confirmed")
	// ErrRestoreFailed indicates no record could be restored.
	ErrRestoreFailed = errors.New("backup: no recipes were successfully restored")
)

// ConfirmFunc is asked before any restore write happens. A nil func or a
// false answer aborts the restore; silence is never treated as consent.
type ConfirmFunc func(recordCount int) bool

// Result reports the outcome of an aggregate operation. Partial failure is a
// count the caller inspects, not an exception: the operation is considered
// successful when Succeeded is above zero.
type Result struct {
	Attempted int
	Succeeded int
	Failures  []error
}

// ConnectionStatus reports backup store reachability for the UI.
type ConnectionStatus struct {
	Reachable   bool   `json:"reachable"`
	RecordCount int    `json:"record_count"`
	Detail      string `json:"detail"`
}

// SaveOutcome carries a successful primary write together with an optional
// backup warning. A failed backup never fails the primary operation.
type SaveOutcome struct {
	Recipe    recipes.Recipe
	BackupErr error
}

// SynchronizerConfig describes the synchronizer dependencies.
type SynchronizerConfig struct {
	Repository *recipes.Repository
	Store      *store.Client
	BatchSize  int
	BatchPause time.Duration
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Synchronizer copies recipes between the primary store (via the repository)
// and the backup store. Each operation is one-shot; the only cross-call state
// is the guard against overlapping full backups.
type Synchronizer struct {
	repo       *recipes.Repository
	store      *store.Client
	batchSize  int
	batchPause time.Duration
	clock      func() time.Time
	logger     *zap.Logger

	running atomic.Bool
}

// NewSynchronizer constructs a synchronizer with validated configuration.
func NewSynchronizer(cfg SynchronizerConfig) (*Synchronizer, error) {
	if cfg.Repository == nil {
		return nil, errMissingRepository
	}
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	batchPause := cfg.BatchPause
	if batchPause < 0 {
		batchPause = defaultBatchPause
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		repo:       cfg.Repository,
		store:      cfg.Store,
		batchSize:  batchSize,
		batchPause: batchPause,
		clock:      clock,
		logger:     logger,
	}, nil
}

// FullBackup wipes the backup store and re-creates a copy of every recipe
// currently held by the repository. Batches insert sequentially; a failed
// batch is logged and skipped so later batches still run. The operation fails
// only when not a single record made it across.
func (s *Synchronizer) FullBackup(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, ErrBackupInProgress
	}
	defer s.running.Store(false)

	snapshot := s.repo.Snapshot()
	if len(snapshot) == 0 {
		return Result{}, ErrNoRecipes
	}

	if err := s.clearStore(ctx); err != nil {
		return Result{}, err
	}

	now := s.clock()
	records := make([]Record, 0, len(snapshot))
	for _, recipe := range snapshot {
		records = append(records, EncodeRecord(recipe, now))
	}

	result := Result{Attempted: len(records)}
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		rows, err := s.store.Insert(ctx, batch)
		if err != nil {
			s.logger.Error("backup batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_len", len(batch)),
				zap.Error(err))
			result.Failures = append(result.Failures, err)
		} else {
			result.Succeeded += len(rows)
			s.logger.Info("backup batch written", zap.Int("records", len(rows)))
		}

		if end < len(records) {
			if err := sleep(ctx, s.batchPause); err != nil {
				result.Failures = append(result.Failures, err)
				break
			}
		}
	}

	if result.Succeeded == 0 {
		return result, fmt.Errorf("%w: %d batch failures", ErrBackupFailed, len(result.Failures))
	}
	s.logger.Info("full backup completed",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("attempted", result.Attempted))
	return result, nil
}

// BackupOne copies a single recipe into the backup store.
func (s *Synchronizer) BackupOne(ctx context.Context, recipe recipes.Recipe) error {
	record := EncodeRecord(recipe, s.clock())
	rows, err := s.store.Insert(ctx, []Record{record})
	if err != nil {
		return fmt.Errorf("backup: backup %q: %w", recipe.Title, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("backup: backup %q: store returned no row", recipe.Title)
	}
	return nil
}

// RestoreAll reads the backup store in backup-creation order, asks for
// explicit confirmation, and re-creates each record in the primary store via
// the repository. Per-record failures are skipped; after any success the
// repository is reloaded so in-memory ids match the primary store. Existing
// recipes are not checked against: restoring may duplicate them.
func (s *Synchronizer) RestoreAll(ctx context.Context, confirm ConfirmFunc) (Result, error) {
	rows, err := s.store.List(ctx, "?order=backup_created_at.asc")
	if err != nil {
		return Result{}, fmt.Errorf("backup: read backup store: %w", err)
	}

	restored := make([]recipes.Recipe, 0, len(rows))
	for index, row := range rows {
		recipe, decodeErr := DecodeRecord(row)
		if decodeErr != nil {
			s.logger.Warn("skipping undecodable backup record",
				zap.Int("index", index),
				zap.Error(decodeErr))
			continue
		}
		restored = append(restored, recipe)
	}
	if len(restored) == 0 {
		return Result{}, ErrNoBackupRecords
	}

	if confirm == nil || !confirm(len(restored)) {
		return Result{}, ErrRestoreDeclined
	}

	result := Result{Attempted: len(restored)}
	for _, recipe := range restored {
		if _, err := s.repo.Create(ctx, recipe); err != nil {
			s.logger.Error("failed to restore recipe",
				zap.String("title", recipe.Title),
				zap.Error(err))
			result.Failures = append(result.Failures, err)
			continue
		}
		result.Succeeded++
	}

	if result.Succeeded == 0 {
		return result, fmt.Errorf("%w: %d failures", ErrRestoreFailed, len(result.Failures))
	}

	if _, err := s.repo.LoadAll(ctx); err != nil {
		s.logger.Warn("reload after restore failed", zap.Error(err))
	}
	s.logger.Info("restore completed",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("attempted", result.Attempted))
	return result, nil
}

// TestConnection performs a bounded read against the backup store and reports
// reachability with a cause the UI can show directly.
func (s *Synchronizer) TestConnection(ctx context.Context) (ConnectionStatus, error) {
	rows, err := s.store.List(ctx, "?limit=5&order=backup_created_at.desc")
	if err != nil {
		status := ConnectionStatus{Detail: store.Describe(err)}
		s.logger.Warn("backup connection test failed", zap.String("detail", status.Detail), zap.Error(err))
		return status, err
	}
	return ConnectionStatus{
		Reachable:   true,
		RecordCount: len(rows),
		Detail:      "backup store reachable",
	}, nil
}

// SaveWithBackup creates the recipe in the primary store and then copies the
// id-bearing result into the backup store. A backup failure is reported as a
// soft warning on the outcome; the operation still succeeds.
func (s *Synchronizer) SaveWithBackup(ctx context.Context, recipe recipes.Recipe) (SaveOutcome, error) {
	created, err := s.repo.Create(ctx, recipe)
	if err != nil {
		return SaveOutcome{}, err
	}

	outcome := SaveOutcome{Recipe: created}
	if backupErr := s.BackupOne(ctx, created); backupErr != nil {
		s.logger.Warn("recipe saved but backup failed",
			zap.Int64("id", created.ID),
			zap.Error(backupErr))
		outcome.BackupErr = backupErr
	}
	return outcome, nil
}

// UpdateWithBackup patches the primary store and refreshes the matching
// backup copy: the backup row joined on original_id is overwritten when
// present, otherwise a fresh copy is inserted. Backup failures are soft.
func (s *Synchronizer) UpdateWithBackup(ctx context.Context, id int64, recipe recipes.Recipe) (SaveOutcome, error) {
	updated, err := s.repo.Update(ctx, id, recipe)
	if err != nil {
		return SaveOutcome{}, err
	}

	outcome := SaveOutcome{Recipe: updated}
	if backupErr := s.refreshBackup(ctx, updated); backupErr != nil {
		s.logger.Warn("recipe updated but backup refresh failed",
			zap.Int64("id", updated.ID),
			zap.Error(backupErr))
		outcome.BackupErr = backupErr
	}
	return outcome, nil
}

func (s *Synchronizer) refreshBackup(ctx context.Context, recipe recipes.Recipe) error {
	rows, err := s.store.List(ctx, fmt.Sprintf("?original_id=eq.%d", recipe.ID))
	if err != nil {
		return fmt.Errorf("backup: find backup copy: %w", err)
	}
	if len(rows) == 0 {
		return s.BackupOne(ctx, recipe)
	}

	var existing struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rows[0], &existing); err != nil {
		return fmt.Errorf("backup: decode backup copy: %w", err)
	}

	record := EncodeRecord(recipe, s.clock())
	if _, err := s.store.Update(ctx, fmt.Sprintf("?id=eq.%d", existing.ID), record); err != nil {
		return fmt.Errorf("backup: refresh backup copy: %w", err)
	}
	return nil
}

// clearStore empties the backup table before a full backup. The single bulk
// delete relies on ids being positive; when the store rejects it, records are
// deleted one by one, continuing past individual failures.
func (s *Synchronizer) clearStore(ctx context.Context) error {
	rows, err := s.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("backup: read backup store before clear: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.store.Delete(ctx, "?id=gt.0"); err != nil {
		s.logger.Warn("bulk delete failed, deleting records individually", zap.Error(err))
	} else {
		s.logger.Info("backup store cleared", zap.Int("records", len(rows)))
		return nil
	}

	deleted := 0
	for index, row := range rows {
		var record struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(row, &record); err != nil {
			s.logger.Warn("skipping backup record with unreadable id", zap.Error(err))
			continue
		}
		if err := s.store.Delete(ctx, fmt.Sprintf("?id=eq.%d", record.ID)); err != nil {
			s.logger.Warn("failed to delete backup record",
				zap.Int64("id", record.ID),
				zap.Error(err))
			continue
		}
		deleted++

		if (index+1)%clearPauseEvery == 0 && index+1 < len(rows) {
			if err := sleep(ctx, clearPause); err != nil {
				return err
			}
		}
	}
	s.logger.Info("backup store cleared record by record",
		zap.Int("deleted", deleted),
		zap.Int("total", len(rows)))
	return nil
}

func sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
