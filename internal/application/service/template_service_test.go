package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/infrastructure/database"
	infra "github.com/sangkips/receipts-api/internal/infrastructure/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

func TestTemplateService(t *testing.T) {
	f := newReceiptFixture(t)
	require.NoError(t, database.SeedDefaultData(f.db, zap.NewNop()))
	svc := NewTemplateService(infra.NewTemplateRepository(f.db))

	mine, err := svc.Create(f.ctx, f.owner, CreateTemplateInput{Name: " Stamped "})
	require.NoError(t, err)
	assert.Equal(t, "Stamped", mine.Name)

	_, err = svc.Create(f.ctx, f.owner, CreateTemplateInput{Name: "  "})
	requireAppError(t, err, apperror.TypeValidation)

	other := f.otherOwner(t)
	_, err = svc.Create(f.ctx, other, CreateTemplateInput{Name: "Theirs"})
	require.NoError(t, err)

	visible, err := svc.List(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, visible, len(database.SystemTemplates)+1)

	var system entity.Template
	require.NoError(t, f.db.Where("is_system = ?", true).First(&system).Error)
	err = svc.Delete(f.ctx, f.owner, system.ID)
	requireAppError(t, err, apperror.TypeNotFound)

	err = svc.Delete(f.ctx, other, mine.ID)
	requireAppError(t, err, apperror.TypeNotFound)
}

func TestTemplateService_DeleteNullsReceiptReferences(t *testing.T) {
	f := newReceiptFixture(t)
	svc := NewTemplateService(infra.NewTemplateRepository(f.db))

	tmpl, err := svc.Create(f.ctx, f.owner, CreateTemplateInput{Name: "Mine"})
	require.NoError(t, err)

	patch := samplePatch("#001")
	patch.TemplateID = &tmpl.ID
	id := uuid.New()
	_, err = f.svc.Create(f.ctx, f.owner, id, patch)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(f.ctx, f.owner, tmpl.ID))

	receipt, err := f.svc.Get(f.ctx, f.owner, id)
	require.NoError(t, err)
	assert.Nil(t, receipt.TemplateID)
	assert.Len(t, receipt.Items, 2, "receipt survives the template")
}
