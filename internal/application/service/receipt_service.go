package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/clock"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/infrastructure/logger"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/pagination"
	"github.com/sangkips/receipts-api/pkg/utils"
)

// Sync outcomes reported to the observer
const (
	SyncOutcomeCreated = "created"
	SyncOutcomeUpdated = "updated"
	SyncOutcomeError   = "error"
)

// SyncObserver receives bulk sync measurements
type SyncObserver interface {
	ObserveSyncRecord(outcome string)
	ObserveSyncBatch(elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveSyncRecord(string)       {}
func (noopObserver) ObserveSyncBatch(time.Duration) {}

// ReceiptService handles receipt operations and the offline sync protocol
type ReceiptService struct {
	receipts   repository.ReceiptRepository
	businesses repository.BusinessRepository
	tx         repository.Transactor
	validator  *ReceiptValidator
	clock      clock.Clock
	observer   SyncObserver
}

// NewReceiptService creates a new receipt service. A nil observer discards
// sync measurements.
func NewReceiptService(
	receipts repository.ReceiptRepository,
	businesses repository.BusinessRepository,
	templates repository.TemplateRepository,
	tx repository.Transactor,
	clk clock.Clock,
	observer SyncObserver,
) *ReceiptService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ReceiptService{
		receipts:   receipts,
		businesses: businesses,
		tx:         tx,
		validator:  NewReceiptValidator(receipts, templates),
		clock:      clk,
		observer:   observer,
	}
}

// SyncRecord is one entry of a bulk sync batch. Err carries a decoding
// failure so the record is reported instead of processed.
type SyncRecord struct {
	ID    uuid.UUID
	Patch entity.ReceiptPatch
	Err   error
}

// SyncError describes a record that bulk sync could not apply
type SyncError struct {
	ID     *string              `json:"id"`
	Error  string               `json:"error"`
	Type   string               `json:"type"`
	Fields []apperror.FieldError `json:"fields,omitempty"`
}

// SyncReport is the outcome of a bulk sync batch
type SyncReport struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []SyncError `json:"errors"`
}

// SyncSummary counts the caller's receipts per sync status
type SyncSummary struct {
	TotalSynced int64      `json:"total_synced"`
	PendingSync int64      `json:"pending_sync"`
	Errors      int64      `json:"errors"`
	Deleted     int64      `json:"deleted"`
	LastUpload  *time.Time `json:"last_upload"`
}

// Create stores a receipt submitted directly by the client. The receipt is
// acknowledged as synced.
func (s *ReceiptService) Create(ctx context.Context, p Principal, id uuid.UUID, patch entity.ReceiptPatch) (*entity.Receipt, error) {
	business, err := s.requireBusiness(ctx, p)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	err = retryOnIDRace(func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			existing, err := s.receipts.FindForBusiness(ctx, business.ID, id)
			if err != nil {
				return apperror.NewPersistenceError(err)
			}
			if existing != nil {
				return errReceiptIDTaken
			}
			taken, err := s.receipts.ExistsByID(ctx, id)
			if err != nil {
				return apperror.NewPersistenceError(err)
			}
			if taken {
				return apperror.NewNotFoundError("Receipt")
			}
			return s.create(ctx, p, business, id, patch)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, p, id)
}

// Update applies a partial edit. A synced receipt whose tracked fields
// change is demoted to pending.
func (s *ReceiptService) Update(ctx context.Context, p Principal, id uuid.UUID, patch entity.ReceiptPatch) (*entity.Receipt, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.receipts.FindByID(ctx, p.writeScope(), id)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if existing == nil {
			return apperror.NewNotFoundError("Receipt")
		}

		draft := entity.MergeReceipt(existing, id, existing.BusinessID, patch)
		if err := s.validator.Validate(ctx, p.UserID, draft); err != nil {
			return err
		}
		next := draft.Build(s.clock.Now()).DemoteIfEdited(*existing)
		return s.save(ctx, &next, patch.Items != nil)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, p, id)
}

// BulkSync upserts every record by its client id. Each record commits or
// rolls back on its own; failures are collected in the report and never
// abort the batch.
func (s *ReceiptService) BulkSync(ctx context.Context, p Principal, records []SyncRecord) (*SyncReport, error) {
	business, err := s.requireBusiness(ctx, p)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	started := time.Now()
	report := &SyncReport{Errors: []SyncError{}}

	for _, rec := range records {
		outcome, err := s.syncRecord(ctx, p, business, rec)
		if err != nil {
			appErr := apperror.GetAppError(err)
			if appErr.Type == apperror.TypePersistence || appErr.Type == apperror.TypeInternal {
				log.Error("sync record failed", zap.String("receipt_id", rec.ID.String()), zap.Error(err))
			} else {
				log.Warn("sync record rejected",
					zap.String("receipt_id", rec.ID.String()),
					zap.String("type", appErr.Type),
					zap.String("reason", appErr.Message),
				)
			}
			report.Errors = append(report.Errors, newSyncError(rec.ID, appErr))
			s.observer.ObserveSyncRecord(SyncOutcomeError)
			continue
		}

		switch outcome {
		case SyncOutcomeCreated:
			report.Created++
		case SyncOutcomeUpdated:
			report.Updated++
		}
		s.observer.ObserveSyncRecord(outcome)
	}

	s.observer.ObserveSyncBatch(time.Since(started))
	log.Info("bulk sync completed",
		zap.String("business_id", business.ID.String()),
		zap.Int("records", len(records)),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (s *ReceiptService) syncRecord(ctx context.Context, p Principal, business *entity.Business, rec SyncRecord) (string, error) {
	if rec.Err != nil {
		return "", rec.Err
	}
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	patch := rec.Patch
	if patch.Items == nil {
		patch.Items = &[]entity.ReceiptItemInput{}
	}

	var outcome string
	err := retryOnIDRace(func() error {
		return s.syncOnce(ctx, p, business, id, patch, &outcome)
	})
	return outcome, err
}

// syncOnce upserts one record in its own transaction
func (s *ReceiptService) syncOnce(ctx context.Context, p Principal, business *entity.Business, id uuid.UUID, patch entity.ReceiptPatch, outcome *string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.receipts.FindForBusiness(ctx, business.ID, id)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}

		if existing == nil {
			taken, err := s.receipts.ExistsByID(ctx, id)
			if err != nil {
				return apperror.NewPersistenceError(err)
			}
			if taken {
				return apperror.NewNotFoundError("Receipt")
			}
			*outcome = SyncOutcomeCreated
			return s.create(ctx, p, business, id, patch)
		}

		if existing.IsDeleted() {
			return apperror.NewValidationError("Receipt is deleted", apperror.FieldError{
				Field:   "sync_status",
				Message: "deleted receipts cannot be synced",
			})
		}
		draft := entity.MergeReceipt(existing, id, business.ID, patch)
		if err := s.validator.Validate(ctx, p.UserID, draft); err != nil {
			return err
		}
		next, err := draft.Build(s.clock.Now()).Acknowledge()
		if err != nil {
			return err
		}
		*outcome = SyncOutcomeUpdated
		return s.save(ctx, &next, true)
	})
}

// create validates and inserts a new acknowledged receipt with its items
func (s *ReceiptService) create(ctx context.Context, p Principal, business *entity.Business, id uuid.UUID, patch entity.ReceiptPatch) error {
	draft := entity.MergeReceipt(nil, id, business.ID, patch)
	if err := s.validator.Validate(ctx, p.UserID, draft); err != nil {
		return err
	}
	receipt, err := draft.Build(s.clock.Now()).Acknowledge()
	if err != nil {
		return err
	}
	items := receipt.Items
	if err := s.receipts.Create(ctx, &receipt); err != nil {
		return writeError(err, receipt.ReceiptNumber)
	}
	if err := s.receipts.ReplaceItems(ctx, receipt.ID, items); err != nil {
		return apperror.NewPersistenceError(err)
	}
	return nil
}

// save updates the receipt fields and optionally replaces its items
func (s *ReceiptService) save(ctx context.Context, receipt *entity.Receipt, replaceItems bool) error {
	items := receipt.Items
	if err := s.receipts.Update(ctx, receipt); err != nil {
		return writeError(err, receipt.ReceiptNumber)
	}
	if !replaceItems {
		return nil
	}
	if err := s.receipts.ReplaceItems(ctx, receipt.ID, items); err != nil {
		return apperror.NewPersistenceError(err)
	}
	return nil
}

// Get returns a receipt with its items
func (s *ReceiptService) Get(ctx context.Context, p Principal, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receipts.FindByID(ctx, p.readScope(), id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// List returns a page of receipts, newest first
func (s *ReceiptService) List(ctx context.Context, p Principal, params pagination.CursorParams) ([]entity.Receipt, *pagination.CursorPagination, error) {
	params.Validate()
	cursor, err := params.DecodeCursor()
	if err != nil {
		return nil, nil, apperror.NewBadRequestError("Invalid cursor")
	}

	receipts, err := s.receipts.ListByOwner(ctx, p.readScope(), cursor, params.Limit)
	if err != nil {
		return nil, nil, apperror.NewPersistenceError(err)
	}

	page, receipts := pagination.NewCursorPagination(receipts, params.Limit,
		func(r entity.Receipt) string { return r.ID.String() },
		func(r entity.Receipt) time.Time { return r.CreatedAt },
	)
	return receipts, page, nil
}

// SoftDelete marks the receipt deleted so the deletion reaches other devices
func (s *ReceiptService) SoftDelete(ctx context.Context, p Principal, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.receipts.FindByID(ctx, p.writeScope(), id)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if existing == nil {
			return apperror.NewNotFoundError("Receipt")
		}
		next, err := existing.SoftDelete(s.clock.Now())
		if err != nil {
			return err
		}
		return s.save(ctx, &next, false)
	})
}

// MarkPaid flags the receipt as paid now
func (s *ReceiptService) MarkPaid(ctx context.Context, p Principal, id uuid.UUID) (*entity.Receipt, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.receipts.FindByID(ctx, p.writeScope(), id)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if existing == nil {
			return apperror.NewNotFoundError("Receipt")
		}
		next := existing.MarkAsPaid(s.clock.Now())
		return s.save(ctx, &next, false)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, p, id)
}

// TransitionSyncStatus moves the receipt along the sync state machine.
// Entering deleted soft-deletes the receipt.
func (s *ReceiptService) TransitionSyncStatus(ctx context.Context, p Principal, id uuid.UUID, status enum.SyncStatus, serverID *int64) (*entity.Receipt, error) {
	var deleted bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.receipts.FindByID(ctx, p.writeScope(), id)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if existing == nil {
			return apperror.NewNotFoundError("Receipt")
		}

		next, err := existing.TransitionTo(status, serverID)
		if err != nil {
			return err
		}
		if status == enum.SyncStatusDeleted {
			deleted = true
			next, err = existing.SoftDelete(s.clock.Now())
			if err != nil {
				return err
			}
		}
		return s.save(ctx, &next, false)
	})
	if err != nil {
		return nil, err
	}
	if deleted {
		return s.findForOwner(ctx, p, id)
	}
	return s.reload(ctx, p, id)
}

// Changes returns the caller's receipts updated after since, deleted included
func (s *ReceiptService) Changes(ctx context.Context, p Principal, since *time.Time) ([]entity.Receipt, error) {
	if since == nil {
		return nil, apperror.NewMissingWatermarkError()
	}
	receipts, err := s.receipts.ListSince(ctx, p.UserID, *since)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return receipts, nil
}

// Summary counts the caller's receipts per sync status
func (s *ReceiptService) Summary(ctx context.Context, p Principal) (*SyncSummary, error) {
	counts, err := s.receipts.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	last, err := s.receipts.LastUpdatedAt(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return &SyncSummary{
		TotalSynced: counts[enum.SyncStatusSynced],
		PendingSync: counts[enum.SyncStatusPending],
		Errors:      counts[enum.SyncStatusError],
		Deleted:     counts[enum.SyncStatusDeleted],
		LastUpload:  last,
	}, nil
}

// NextNumber suggests the receipt number following the business's latest one
func (s *ReceiptService) NextNumber(ctx context.Context, p Principal) (string, error) {
	business, err := s.requireBusiness(ctx, p)
	if err != nil {
		return "", err
	}
	last, err := s.receipts.LatestNumber(ctx, business.ID)
	if err != nil {
		return "", apperror.NewPersistenceError(err)
	}
	return utils.NextReceiptNumber(last), nil
}

func (s *ReceiptService) requireBusiness(ctx context.Context, p Principal) (*entity.Business, error) {
	business, err := s.businesses.GetByOwner(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if business == nil {
		return nil, apperror.NewValidationError("Create a business profile first", required("business"))
	}
	return business, nil
}

func (s *ReceiptService) reload(ctx context.Context, p Principal, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receipts.FindByID(ctx, p.writeScope(), id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// findForOwner reloads a receipt the caller owns, soft-deleted included
func (s *ReceiptService) findForOwner(ctx context.Context, p Principal, id uuid.UUID) (*entity.Receipt, error) {
	scope := p.writeScope()
	scope.IncludeDeleted = true
	receipt, err := s.receipts.FindByID(ctx, scope, id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// errReceiptIDTaken reports a create for an id the caller already stored
var errReceiptIDTaken = apperror.NewConflictError("A receipt with this id already exists")

// retryOnIDRace runs fn a second time when the store rejected its write on a
// unique index, which happens when a concurrent writer of the same client id
// committed first. The second pass sees the stored row and takes the update,
// not-found or duplicate-number path instead.
func retryOnIDRace(fn func() error) error {
	err := fn()
	if errors.Is(err, repository.ErrDuplicateKey) || errors.Is(err, repository.ErrDuplicateReceiptNumber) {
		err = fn()
	}
	return err
}

// writeError maps storage failures of a receipt write onto the error taxonomy
func writeError(err error, receiptNumber string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateReceiptNumber):
		return apperror.NewDuplicateReceiptNumberError(receiptNumber).WithCause(err)
	case errors.Is(err, repository.ErrDuplicateID):
		return errReceiptIDTaken.WithCause(err)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperror.NewConflictError("Server id is already assigned to another record").WithCause(err)
	default:
		return apperror.NewPersistenceError(err)
	}
}

func newSyncError(id uuid.UUID, appErr *apperror.AppError) SyncError {
	entry := SyncError{
		Error:  appErr.Message,
		Type:   appErr.Type,
		Fields: appErr.Errors,
	}
	if id != uuid.Nil {
		s := id.String()
		entry.ID = &s
	}
	return entry
}
