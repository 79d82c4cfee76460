package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/models"
)

// StatsSnapshot is a point-in-time projection of incident activity, scoped
// to what the requesting user can see.
type StatsSnapshot struct {
	Total               int64            `json:"total_incidents"`
	ByStatus            map[string]int64 `json:"by_status"`
	BySeverity          map[string]int64 `json:"by_severity"`
	Active              int64            `json:"active_incidents"`
	ResolvedToday       int64            `json:"resolved_today"`
	ResolvedThisWeek    int64            `json:"resolved_this_week"`
	AvgResolutionHours  *float64         `json:"avg_resolution_hours,omitempty"`
	ResponseTeamCount   int64            `json:"response_team_count"`
	UnreadNotifications int64            `json:"unread_notifications"`
}

// TrendPoint is one day's worth of created incidents.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StatsService computes read-only aggregates. Counts are snapshot reads
// with no locking; concurrent writers may move the numbers between queries.
type StatsService struct {
	db *gorm.DB
}

// NewStatsService constructs a StatsService.
func NewStatsService(db *gorm.DB) (*StatsService, error) {
	if db == nil {
		return nil, errors.New("stats service: db is required")
	}
	return &StatsService{db: db}, nil
}

// Snapshot builds the dashboard numbers for the actor's visibility scope.
func (s *StatsService) Snapshot(ctx context.Context, actorID string) (*StatsSnapshot, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	snapshot := &StatsSnapshot{
		ByStatus:   make(map[string]int64),
		BySeverity: make(map[string]int64),
	}

	var visible []models.Incident
	if err := scopedIncidents(ctx, s.db, actor).Find(&visible).Error; err != nil {
		return nil, fmt.Errorf("stats service: load incidents: %w", err)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	var resolutionTotal time.Duration
	var resolutionCount int64
	for _, incident := range visible {
		snapshot.Total++
		snapshot.ByStatus[string(incident.Status)]++
		snapshot.BySeverity[string(incident.Severity)]++
		if incident.Status.Active() {
			snapshot.Active++
		}
		if incident.ResolvedAt != nil {
			resolved := incident.ResolvedAt.In(now.Location())
			if !resolved.Before(startOfDay) {
				snapshot.ResolvedToday++
			}
			if !resolved.Before(weekAgo) {
				snapshot.ResolvedThisWeek++
			}
			resolutionTotal += incident.ResolvedAt.Sub(incident.CreatedAt)
			resolutionCount++
		}
	}

	if resolutionCount > 0 {
		hours := resolutionTotal.Hours() / float64(resolutionCount)
		snapshot.AvgResolutionHours = &hours
	}

	teams := s.db.WithContext(ctx).Model(&models.ResponseTeam{})
	switch actor.Role {
	case models.RoleResponder:
		teams = teams.Where("responder_id = ?", actor.ID)
	case models.RoleReporter:
		teams = teams.Where(
			"incident_id IN (?)",
			s.db.Model(&models.Incident{}).Select("id").Where("reporter_id = ?", actor.ID),
		)
	}
	if err := teams.Count(&snapshot.ResponseTeamCount).Error; err != nil {
		return nil, fmt.Errorf("stats service: count assignments: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", actor.ID, false).
		Count(&snapshot.UnreadNotifications).Error; err != nil {
		return nil, fmt.Errorf("stats service: count notifications: %w", err)
	}

	return snapshot, nil
}

// Trend buckets created incidents by day over the lookback window. Days
// with no incidents are included with a zero count so charts stay contiguous.
func (s *StatsService) Trend(ctx context.Context, actorID string, days int) ([]TrendPoint, error) {
	ctx = ensureContext(ctx)

	if days <= 0 || days > 365 {
		days = 30
	}

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(days - 1))

	var visible []models.Incident
	if err := scopedIncidents(ctx, s.db, actor).
		Where("created_at >= ?", since).
		Find(&visible).Error; err != nil {
		return nil, fmt.Errorf("stats service: load trend incidents: %w", err)
	}

	buckets := make(map[string]int64, days)
	for i := 0; i < days; i++ {
		buckets[since.AddDate(0, 0, i).Format("2006-01-02")] = 0
	}
	for _, incident := range visible {
		key := incident.CreatedAt.In(now.Location()).Format("2006-01-02")
		if _, ok := buckets[key]; ok {
			buckets[key]++
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for date, count := range buckets {
		points = append(points, TrendPoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}
