package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strp(s string) *string {
	return &s
}

func syncedReceipt() Receipt {
	serverID := int64(42)
	return Receipt{
		ID:            uuid.New(),
		BusinessID:    uuid.New(),
		ReceiptNumber: "#001",
		ReceiptDate:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		CustomerName:  "Ada",
		Subtotal:      dec("25.00"),
		TaxRate:       dec("0.1000"),
		TaxAmount:     dec("2.50"),
		Discount:      dec("0.00"),
		GrandTotal:    dec("27.50"),
		SyncStatus:    enum.SyncStatusSynced,
		ServerID:      &serverID,
		Items: []ReceiptItem{
			{Description: "Widget", Quantity: dec("2"), UnitPrice: dec("10.00"), Total: dec("20.00"), Order: 0},
			{Description: "Gadget", Quantity: dec("1"), UnitPrice: dec("5.00"), Total: dec("5.00"), Order: 1},
		},
	}
}

func TestReceipt_MarkAsPaid(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	r := syncedReceipt()

	paid := r.MarkAsPaid(now)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, now, *paid.PaidAt)
	assert.Equal(t, now, paid.UpdatedAt)
	assert.False(t, r.IsPaid, "original value must not change")
	assert.Nil(t, r.PaidAt)
}

func TestReceipt_SoftDelete(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	r := syncedReceipt()

	deleted, err := r.SoftDelete(now)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, enum.SyncStatusDeleted, deleted.SyncStatus)
	assert.Equal(t, now, deleted.UpdatedAt)
	assert.False(t, r.IsDeleted())

	_, err = deleted.SoftDelete(now)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestReceipt_TransitionTo(t *testing.T) {
	pending := syncedReceipt()
	pending.SyncStatus = enum.SyncStatusPending
	pending.ServerID = nil

	_, err := pending.TransitionTo(enum.SyncStatusSynced, nil)
	assert.ErrorIs(t, err, apperror.ErrMissingServerID)

	serverID := int64(7)
	synced, err := pending.TransitionTo(enum.SyncStatusSynced, &serverID)
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusSynced, synced.SyncStatus)
	assert.Equal(t, int64(7), *synced.ServerID)

	errored, err := synced.TransitionTo(enum.SyncStatusError, nil)
	require.NoError(t, err)
	resynced, err := errored.TransitionTo(enum.SyncStatusSynced, nil)
	require.NoError(t, err, "stored server id satisfies the synced requirement")
	assert.Equal(t, enum.SyncStatusSynced, resynced.SyncStatus)

	_, err = pending.TransitionTo(enum.SyncStatusDeleted, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	deleted := synced
	deleted.SyncStatus = enum.SyncStatusDeleted
	_, err = deleted.TransitionTo(enum.SyncStatusPending, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestReceipt_Acknowledge(t *testing.T) {
	r := syncedReceipt()
	r.SyncStatus = enum.SyncStatusError
	r.ServerID = nil

	acked, err := r.Acknowledge()
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusSynced, acked.SyncStatus)

	deleted, err := r.SoftDelete(time.Now())
	require.NoError(t, err)
	_, err = deleted.Acknowledge()
	assert.Error(t, err)
}

func TestReceipt_DemoteIfEdited(t *testing.T) {
	prev := syncedReceipt()

	edited := prev
	edited.TaxRate = dec("0.1600")
	assert.Equal(t, enum.SyncStatusPending, edited.DemoteIfEdited(prev).SyncStatus)

	notesOnly := prev
	notesOnly.Notes = "thanks"
	assert.Equal(t, enum.SyncStatusSynced, notesOnly.DemoteIfEdited(prev).SyncStatus)

	sameValue := prev
	sameValue.TaxRate = dec("0.1")
	assert.Equal(t, enum.SyncStatusSynced, sameValue.DemoteIfEdited(prev).SyncStatus)

	prevPending := prev
	prevPending.SyncStatus = enum.SyncStatusPending
	edited.SyncStatus = enum.SyncStatusPending
	assert.Equal(t, enum.SyncStatusPending, edited.DemoteIfEdited(prevPending).SyncStatus)
}

func TestMergeReceipt_OverlaysSubmittedFields(t *testing.T) {
	existing := syncedReceipt()

	draft := MergeReceipt(&existing, uuid.New(), uuid.New(), ReceiptPatch{
		CustomerName: strp("Grace"),
		TaxRate:      decp("0.16"),
	})

	assert.Equal(t, existing.ID, draft.ID, "stored id wins")
	assert.Equal(t, existing.BusinessID, draft.BusinessID, "business is immutable")
	assert.Equal(t, "Grace", draft.CustomerName)
	assert.Equal(t, "#001", draft.ReceiptNumber)
	assert.True(t, draft.TaxRate.Equal(dec("0.16")))
	assert.True(t, draft.Subtotal.Equal(dec("25.00")))
	require.Len(t, draft.Items, 2, "items absent from the patch are kept")
	assert.Equal(t, "Widget", draft.Items[0].Description)
}

func TestMergeReceipt_TaxAmountFollowsItsInputs(t *testing.T) {
	existing := syncedReceipt()

	notes := MergeReceipt(&existing, existing.ID, existing.BusinessID, ReceiptPatch{Notes: strp("n")})
	require.NotNil(t, notes.TaxAmount)
	assert.Equal(t, "2.50", notes.TaxAmount.StringFixed(2), "stored tax kept when its inputs are untouched")

	rate := MergeReceipt(&existing, existing.ID, existing.BusinessID, ReceiptPatch{TaxRate: decp("0.20")})
	assert.Nil(t, rate.TaxAmount)
	assert.Equal(t, "5.00", rate.Build(time.Now()).TaxAmount.StringFixed(2))

	submitted := MergeReceipt(&existing, existing.ID, existing.BusinessID, ReceiptPatch{TaxRate: decp("0.20"), TaxAmount: decp("5.00")})
	assert.Equal(t, "5.00", submitted.TaxAmount.StringFixed(2))
}

func TestMergeReceipt_ReplacesItems(t *testing.T) {
	existing := syncedReceipt()
	items := []ReceiptItemInput{{Description: "Only", Quantity: dec("1"), UnitPrice: dec("3.00")}}

	draft := MergeReceipt(&existing, existing.ID, existing.BusinessID, ReceiptPatch{Items: &items})

	require.Len(t, draft.Items, 1)
	assert.Equal(t, "Only", draft.Items[0].Description)
}

func TestMergeReceipt_Create(t *testing.T) {
	id := uuid.New()
	businessID := uuid.New()

	draft := MergeReceipt(nil, id, businessID, ReceiptPatch{ReceiptNumber: strp("#005")})

	assert.Equal(t, id, draft.ID)
	assert.Equal(t, businessID, draft.BusinessID)
	assert.Nil(t, draft.Existing)
	assert.Nil(t, draft.Subtotal)
	assert.Nil(t, draft.ReceiptDate)
}

func TestReceiptDraft_Build(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	date := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	paid := true
	items := []ReceiptItemInput{
		{Description: "Widget", Quantity: dec("2"), UnitPrice: dec("10.00")},
		{Description: "Gadget", Quantity: dec("1"), UnitPrice: dec("5.00"), Total: decp("4.50")},
	}

	draft := MergeReceipt(nil, uuid.New(), uuid.New(), ReceiptPatch{
		ReceiptNumber: strp("#010"),
		ReceiptDate:   &date,
		CustomerName:  strp("Ada"),
		Subtotal:      decp("25.00"),
		TaxRate:       decp("0.10"),
		GrandTotal:    decp("27.50"),
		IsPaid:        &paid,
		Items:         &items,
	})
	r := draft.Build(now)

	assert.Equal(t, enum.SyncStatusPending, r.SyncStatus)
	assert.Equal(t, "2.50", r.TaxAmount.StringFixed(2), "tax computed when not submitted")
	assert.True(t, r.Discount.IsZero())
	require.NotNil(t, r.PaidAt)
	assert.Equal(t, now, *r.PaidAt)
	require.Len(t, r.Items, 2)
	assert.Equal(t, r.ID, r.Items[0].ReceiptID)
	assert.Equal(t, "20.00", r.Items[0].Total.StringFixed(2))
	assert.Equal(t, "4.50", r.Items[1].Total.StringFixed(2), "supplied total is kept")
	assert.Equal(t, 0, r.Items[0].Order)
	assert.Equal(t, 1, r.Items[1].Order)
}

func TestReceiptDraft_BuildKeepsStoredMetadata(t *testing.T) {
	existing := syncedReceipt()
	existing.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r := MergeReceipt(&existing, existing.ID, existing.BusinessID, ReceiptPatch{Notes: strp("n")}).Build(time.Now())

	assert.Equal(t, existing.CreatedAt, r.CreatedAt)
	assert.Equal(t, enum.SyncStatusSynced, r.SyncStatus)
	assert.Equal(t, existing.ServerID, r.ServerID)
	assert.Equal(t, "n", r.Notes)
}
