package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infra "github.com/sangkips/receipts-api/internal/infrastructure/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/printer"
)

type fakePrinter struct {
	printed [][]byte
	err     error
}

func (p *fakePrinter) Print(_ context.Context, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.printed = append(p.printed, append([]byte(nil), data...))
	return nil
}

func (p *fakePrinter) IsConnected(context.Context) bool { return p.err == nil }

func TestPrinterService_PrintReceipt(t *testing.T) {
	f := newReceiptFixture(t)
	id := uuid.New()
	_, err := f.svc.Create(f.ctx, f.owner, id, samplePatch("#001"))
	require.NoError(t, err)

	fake := &fakePrinter{}
	svc := NewPrinterService(fake, infra.NewReceiptRepository(f.db), infra.NewBusinessRepository(f.db), printer.TypeNetwork, printer.Width58mm)

	require.NoError(t, svc.PrintReceipt(f.ctx, f.owner, id))
	require.Len(t, fake.printed, 1)
	out := fake.printed[0]
	assert.True(t, bytes.Contains(out, []byte("#001")))
	assert.True(t, bytes.Contains(out, []byte("2 x Widget")))
	assert.True(t, bytes.Contains(out, []byte("USD 27.50")))
	assert.True(t, bytes.Contains(out, []byte("Tax (10%):")))

	err = svc.PrintReceipt(f.ctx, f.otherOwner(t), id)
	requireAppError(t, err, apperror.TypeNotFound)

	status := svc.GetStatus(f.ctx)
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
}

func TestPrinterService_PrinterFailures(t *testing.T) {
	f := newReceiptFixture(t)
	id := uuid.New()
	_, err := f.svc.Create(f.ctx, f.owner, id, samplePatch("#001"))
	require.NoError(t, err)

	none, err := printer.New(printer.TypeNone, "", "")
	require.NoError(t, err)
	svc := NewPrinterService(none, infra.NewReceiptRepository(f.db), infra.NewBusinessRepository(f.db), printer.TypeNone, 0)
	requireAppError(t, svc.PrintReceipt(f.ctx, f.owner, id), apperror.TypeBadRequest)
	assert.False(t, svc.GetStatus(f.ctx).Configured)

	broken := &fakePrinter{err: errors.New("paper jam")}
	svc = NewPrinterService(broken, infra.NewReceiptRepository(f.db), infra.NewBusinessRepository(f.db), printer.TypeUSB, 0)
	err = svc.PrintReceipt(f.ctx, f.owner, id)
	require.Error(t, err)
	assert.Equal(t, 502, apperror.GetAppError(err).Code)
}
