package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/database/testutil"
	"github.com/qrcs/qrcs/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	user := models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "not-a-real-hash",
		Role:        role,
		IsAvailable: role == models.RoleResponder,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.IncidentCategory {
	t.Helper()

	category := models.IncidentCategory{
		Name:          name,
		Description:   name + " incidents",
		PriorityLevel: 3,
	}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func newNotifier(t *testing.T, db *gorm.DB) *Notifier {
	t.Helper()

	notifier, err := NewNotifier(db, nil)
	require.NoError(t, err)
	return notifier
}

// seedIncident files an incident through the service so defaults and
// notifications behave as in production.
func seedIncident(t *testing.T, db *gorm.DB, reporter *models.User, category *models.IncidentCategory) *models.Incident {
	t.Helper()

	svc, err := NewIncidentService(db, newNotifier(t, db))
	require.NoError(t, err)

	incident, err := svc.Create(context.Background(), CreateIncidentInput{
		ReporterID:  reporter.ID,
		Title:       "Fire on Main Street",
		Description: "Smoke visible from the second floor",
		CategoryID:  category.ID,
		Severity:    "high",
		Latitude:    40.7128,
		Longitude:   -74.0060,
	})
	require.NoError(t, err)
	return incident
}

func countNotifications(t *testing.T, db *gorm.DB, recipientID string, kind models.NotificationType) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", recipientID, kind).
		Count(&count).Error)
	return count
}
