package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qrcs/qrcs/internal/models"
)

func TestSnapshotCountsAndAverages(t *testing.T) {
	db := newTestDB(t)
	reporter := seedUser(t, db, "alice", models.RoleReporter)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	category := seedCategory(t, db, "Fire")

	incidentSvc, err := NewIncidentService(db, newNotifier(t, db))
	require.NoError(t, err)
	ctx := context.Background()

	first := seedIncident(t, db, reporter, category)
	seedIncident(t, db, reporter, category)

	_, err = incidentSvc.UpdateStatus(ctx, UpdateStatusInput{
		IncidentID: first.ID, ActorID: admin.ID, Status: "resolved",
	})
	require.NoError(t, err)

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(ctx, admin.ID)
	require.NoError(t, err)

	require.EqualValues(t, 2, snapshot.Total)
	require.EqualValues(t, 1, snapshot.ByStatus["resolved"])
	require.EqualValues(t, 1, snapshot.ByStatus["reported"])
	require.EqualValues(t, 2, snapshot.BySeverity["high"])
	require.EqualValues(t, 1, snapshot.Active)
	require.EqualValues(t, 1, snapshot.ResolvedToday)
	require.EqualValues(t, 1, snapshot.ResolvedThisWeek)
	require.NotNil(t, snapshot.AvgResolutionHours)
	require.GreaterOrEqual(t, *snapshot.AvgResolutionHours, 0.0)
}

func TestSnapshotOmitsAverageWithoutResolutions(t *testing.T) {
	db := newTestDB(t)
	reporter := seedUser(t, db, "alice", models.RoleReporter)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	category := seedCategory(t, db, "Fire")
	seedIncident(t, db, reporter, category)

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Nil(t, snapshot.AvgResolutionHours)
}

func TestSnapshotIsRoleScoped(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice", models.RoleReporter)
	mallory := seedUser(t, db, "mallory", models.RoleReporter)
	category := seedCategory(t, db, "Fire")

	seedIncident(t, db, alice, category)
	seedIncident(t, db, mallory, category)
	seedIncident(t, db, mallory, category)

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, snapshot.Total)
}

func TestSnapshotScopesResponseTeamCount(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice", models.RoleReporter)
	mallory := seedUser(t, db, "mallory", models.RoleReporter)
	bob := seedUser(t, db, "bob", models.RoleResponder)
	carol := seedUser(t, db, "carol", models.RoleResponder)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	category := seedCategory(t, db, "Fire")

	aliceIncident := seedIncident(t, db, alice, category)
	malloryIncident := seedIncident(t, db, mallory, category)
	require.NoError(t, db.Create(&models.ResponseTeam{
		IncidentID: aliceIncident.ID, ResponderID: bob.ID,
	}).Error)
	require.NoError(t, db.Create(&models.ResponseTeam{
		IncidentID: malloryIncident.ID, ResponderID: carol.ID,
	}).Error)

	svc, err := NewStatsService(db)
	require.NoError(t, err)
	ctx := context.Background()

	adminView, err := svc.Snapshot(ctx, admin.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, adminView.ResponseTeamCount)

	bobView, err := svc.Snapshot(ctx, bob.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, bobView.ResponseTeamCount)

	aliceView, err := svc.Snapshot(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, aliceView.ResponseTeamCount)
}

func TestSnapshotWeekWindowRollsSevenDays(t *testing.T) {
	db := newTestDB(t)
	reporter := seedUser(t, db, "alice", models.RoleReporter)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	category := seedCategory(t, db, "Fire")

	inWindow := seedIncident(t, db, reporter, category)
	require.NoError(t, db.Model(&models.Incident{}).
		Where("id = ?", inWindow.ID).
		Updates(map[string]any{
			"status":      models.StatusResolved,
			"resolved_at": time.Now().AddDate(0, 0, -6),
		}).Error)

	outOfWindow := seedIncident(t, db, reporter, category)
	require.NoError(t, db.Model(&models.Incident{}).
		Where("id = ?", outOfWindow.ID).
		Updates(map[string]any{
			"status":      models.StatusResolved,
			"resolved_at": time.Now().AddDate(0, 0, -8),
		}).Error)

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), admin.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, snapshot.ResolvedThisWeek)
	require.EqualValues(t, 0, snapshot.ResolvedToday)
}

func TestTrendBucketsAreContiguous(t *testing.T) {
	db := newTestDB(t)
	reporter := seedUser(t, db, "alice", models.RoleReporter)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	category := seedCategory(t, db, "Fire")
	incident := seedIncident(t, db, reporter, category)

	// Move one incident a few days back to land in an earlier bucket.
	backdated := time.Now().AddDate(0, 0, -3)
	require.NoError(t, db.Model(&models.Incident{}).
		Where("id = ?", incident.ID).
		Update("created_at", backdated).Error)
	seedIncident(t, db, reporter, category)

	svc, err := NewStatsService(db)
	require.NoError(t, err)

	points, err := svc.Trend(context.Background(), admin.ID, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	var total int64
	for i, point := range points {
		total += point.Count
		if i > 0 {
			require.Greater(t, point.Date, points[i-1].Date)
		}
	}
	require.EqualValues(t, 2, total)
	require.EqualValues(t, 1, points[len(points)-1].Count)

	// Out-of-range lookback falls back to the 30-day default.
	points, err = svc.Trend(context.Background(), admin.ID, -5)
	require.NoError(t, err)
	require.Len(t, points, 30)
}
