package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	infra "github.com/sangkips/receipts-api/internal/infrastructure/repository"
	"github.com/sangkips/receipts-api/internal/testutil"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

func newBusinessService(t *testing.T) (*BusinessService, *entity.User, func(staff bool) Principal) {
	t.Helper()
	db := testutil.NewDB(t, testutil.NewClock())
	svc := NewBusinessService(infra.NewBusinessRepository(db), infra.NewUserRepository(db), infra.NewTemplateRepository(db))
	user := testutil.CreateUser(t, db, false)
	newUser := func(staff bool) Principal {
		u := testutil.CreateUser(t, db, staff)
		return Principal{UserID: u.ID, IsStaff: staff}
	}
	return svc, user, newUser
}

func validBusinessPatch() entity.BusinessPatch {
	return entity.BusinessPatch{
		Name:       testutil.Ptr("Corner Shop"),
		Phone:      testutil.Ptr("+254 (700) 123-456"),
		Email:      testutil.Ptr("Owner@Corner.Example"),
		Currency:   testutil.Ptr("kes"),
		TaxRate:    testutil.DecPtr("0.16"),
		TaxEnabled: testutil.Ptr(true),
	}
}

func TestBusinessService_Create(t *testing.T) {
	svc, user, _ := newBusinessService(t)
	ctx := context.Background()
	p := Principal{UserID: user.ID}

	business, err := svc.Create(ctx, p, validBusinessPatch())
	require.NoError(t, err)
	assert.Equal(t, user.ID, business.OwnerID)
	assert.Equal(t, "KES", business.Currency)
	assert.Equal(t, "owner@corner.example", business.Email)
	assert.Equal(t, enum.SyncStatusPending, business.SyncStatus)

	_, err = svc.Create(ctx, p, validBusinessPatch())
	requireAppError(t, err, apperror.TypeConflict)

	got, err := svc.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, business.ID, got.ID)
}

func TestBusinessService_Create_DefaultsCurrencyFromUser(t *testing.T) {
	svc, user, _ := newBusinessService(t)
	patch := validBusinessPatch()
	patch.Currency = nil

	business, err := svc.Create(context.Background(), Principal{UserID: user.ID}, patch)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCurrency, business.Currency)
}

func TestBusinessService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *entity.BusinessPatch)
		field  string
	}{
		{"missing name", func(p *entity.BusinessPatch) { p.Name = nil }, "name"},
		{"currency length", func(p *entity.BusinessPatch) { p.Currency = testutil.Ptr("EURO") }, "currency"},
		{"short phone", func(p *entity.BusinessPatch) { p.Phone = testutil.Ptr("12345") }, "phone"},
		{"phone letters", func(p *entity.BusinessPatch) { p.Phone = testutil.Ptr("call me maybe") }, "phone"},
		{"bad email", func(p *entity.BusinessPatch) { p.Email = testutil.Ptr("owner-at-shop") }, "email"},
		{"percentage tax", func(p *entity.BusinessPatch) { p.TaxRate = testutil.DecPtr("16") }, "tax_rate"},
		{"zero tax while enabled", func(p *entity.BusinessPatch) { p.TaxRate = testutil.DecPtr("0") }, "tax_rate"},
		{"onboarding incomplete", func(p *entity.BusinessPatch) { p.OnboardingComplete = testutil.Ptr(true) }, "onboarding_complete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, user, _ := newBusinessService(t)
			patch := validBusinessPatch()
			tt.mutate(&patch)

			_, err := svc.Create(context.Background(), Principal{UserID: user.ID}, patch)

			appErr := requireAppError(t, err, apperror.TypeValidation)
			var fields []string
			for _, fe := range appErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestBusinessService_UpdateDemotesSynced(t *testing.T) {
	svc, user, _ := newBusinessService(t)
	ctx := context.Background()
	p := Principal{UserID: user.ID}
	business, err := svc.Create(ctx, p, validBusinessPatch())
	require.NoError(t, err)

	synced, err := svc.TransitionSyncStatus(ctx, p, business.ID, enum.SyncStatusSynced, testutil.Ptr(int64(7)))
	require.NoError(t, err)
	require.Equal(t, enum.SyncStatusSynced, synced.SyncStatus)

	updated, err := svc.Update(ctx, p, entity.BusinessPatch{Motto: testutil.Ptr("Fresh daily")})
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusSynced, updated.SyncStatus, "motto is not synced")

	updated, err = svc.Update(ctx, p, entity.BusinessPatch{Name: testutil.Ptr("Corner Shop Ltd")})
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusPending, updated.SyncStatus)
}

func TestBusinessService_TransitionSyncStatus(t *testing.T) {
	svc, user, newUser := newBusinessService(t)
	ctx := context.Background()
	p := Principal{UserID: user.ID}
	business, err := svc.Create(ctx, p, validBusinessPatch())
	require.NoError(t, err)

	_, err = svc.TransitionSyncStatus(ctx, p, business.ID, enum.SyncStatusSynced, nil)
	requireAppError(t, err, apperror.TypeMissingServerID)

	_, err = svc.TransitionSyncStatus(ctx, newUser(false), business.ID, enum.SyncStatusError, nil)
	requireAppError(t, err, apperror.TypeNotFound)

	_, err = svc.TransitionSyncStatus(ctx, p, business.ID, enum.SyncStatusDeleted, nil)
	requireAppError(t, err, apperror.TypeValidation)
}

func TestBusinessService_List(t *testing.T) {
	svc, user, newUser := newBusinessService(t)
	ctx := context.Background()
	p := Principal{UserID: user.ID}
	_, err := svc.Create(ctx, p, validBusinessPatch())
	require.NoError(t, err)
	_, err = svc.Create(ctx, newUser(false), validBusinessPatch())
	require.NoError(t, err)

	own, page, err := svc.List(ctx, p, pagination.DefaultPagination())
	require.NoError(t, err)
	assert.Len(t, own, 1)
	assert.Equal(t, int64(1), page.Total)

	all, page, err := svc.List(ctx, newUser(true), pagination.DefaultPagination())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), page.Total)

	none, _, err := svc.List(ctx, newUser(false), pagination.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, none)
}
