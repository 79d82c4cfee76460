package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
)

func TestCategoryWritesAreAdminOnly(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	reporter := seedUser(t, db, "alice", models.RoleReporter)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, reporter.ID, CategoryInput{Name: "Hazmat", PriorityLevel: 4})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	created, err := svc.Create(ctx, admin.ID, CategoryInput{Name: "Hazmat", PriorityLevel: 4})
	require.NoError(t, err)
	require.Equal(t, "Hazmat", created.Name)

	_, err = svc.Update(ctx, reporter.ID, created.ID, CategoryInput{Description: "x"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := svc.Update(ctx, admin.ID, created.ID, CategoryInput{Description: "Chemical spills"})
	require.NoError(t, err)
	require.Equal(t, "Chemical spills", updated.Description)
}

func TestCategoryCreateValidation(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, admin.ID, CategoryInput{Name: "  ", PriorityLevel: 3})
	requireAppCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(ctx, admin.ID, CategoryInput{Name: "Hazmat", PriorityLevel: 9})
	requireAppCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(ctx, admin.ID, CategoryInput{Name: "Hazmat", PriorityLevel: 4})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin.ID, CategoryInput{Name: "Hazmat", PriorityLevel: 2})
	requireAppCode(t, err, "CONFLICT")
}

func TestCategoryDeleteProtectedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	reporter := seedUser(t, db, "alice", models.RoleReporter)
	category := seedCategory(t, db, "Fire")
	seedIncident(t, db, reporter, category)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)
	ctx := context.Background()

	err = svc.Delete(ctx, admin.ID, category.ID)
	requireAppCode(t, err, "CONFLICT")

	empty := seedCategory(t, db, "Medical")
	require.NoError(t, svc.Delete(ctx, admin.ID, empty.ID))

	err = svc.Delete(ctx, admin.ID, empty.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCategoryListOrdersByPriority(t *testing.T) {
	db := newTestDB(t)
	low := seedCategory(t, db, "AAA-routine")
	require.NoError(t, db.Model(low).Update("priority_level", 5).Error)
	urgent := seedCategory(t, db, "ZZZ-urgent")
	require.NoError(t, db.Model(urgent).Update("priority_level", 1).Error)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	// Lower priority level means more urgent, so it lists first.
	categories, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Equal(t, "ZZZ-urgent", categories[0].Name)
}
