package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/testutil"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestTransactor_RollsBackWhenItemInsertFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReceiptRepository(db)
	tx := NewTransactor(db)
	receiptID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "receipt_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "receipt_items"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return repo.ReplaceItems(ctx, receiptID, []entity.ReceiptItem{
			{Description: "Widget", Quantity: testutil.Dec("1"), UnitPrice: testutil.Dec("1.00"), Total: testutil.Dec("1.00")},
		})
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_NestedCallsJoin(t *testing.T) {
	db, mock := newMockDB(t)
	tx := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "postgres receipt number",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "idx_receipts_business_receipt_number"},
			want: domainRepo.ErrDuplicateReceiptNumber,
		},
		{
			name: "postgres primary key",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "receipts_pkey"},
			want: domainRepo.ErrDuplicateID,
		},
		{
			name: "postgres other unique",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "idx_receipts_server_id"},
			want: domainRepo.ErrDuplicateKey,
		},
		{
			name: "sqlite primary key",
			err:  errors.New("constraint failed: UNIQUE constraint failed: receipts.id (1555)"),
			want: domainRepo.ErrDuplicateID,
		},
		{
			name: "sqlite receipt number",
			err:  errors.New("constraint failed: UNIQUE constraint failed: receipts.business_id, receipts.receipt_number (2067)"),
			want: domainRepo.ErrDuplicateReceiptNumber,
		},
		{
			name: "gorm duplicated key",
			err:  gorm.ErrDuplicatedKey,
			want: domainRepo.ErrDuplicateKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateWriteError(tt.err), tt.want)
		})
	}

	serverID := translateWriteError(errors.New("UNIQUE constraint failed: receipts.server_id"))
	assert.ErrorIs(t, serverID, domainRepo.ErrDuplicateKey)
	assert.NotErrorIs(t, serverID, domainRepo.ErrDuplicateID)

	other := &pgconn.PgError{Code: "40001"}
	assert.Same(t, error(other), translateWriteError(other))
	assert.NoError(t, translateWriteError(nil))
}
