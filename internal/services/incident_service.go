package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/authz"
	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
	"github.com/qrcs/qrcs/pkg/geo"
	"github.com/qrcs/qrcs/pkg/logger"
	"github.com/qrcs/qrcs/pkg/metrics"
)

// CreateIncidentInput defines the attributes a reporter supplies when filing
// an incident. Status is never caller controlled.
type CreateIncidentInput struct {
	ReporterID      string
	Title           string
	Description     string
	CategoryID      string
	Severity        string
	Latitude        float64
	Longitude       float64
	LocationAddress string
	ImageURL        string
}

// UpdateStatusInput carries a status change request. Severity is optional
// and may ride along in the same request.
type UpdateStatusInput struct {
	IncidentID string
	ActorID    string
	Status     string
	Severity   string
}

// ListIncidentsInput defines filters for role-scoped incident listings.
type ListIncidentsInput struct {
	ActorID    string
	Status     string
	Severity   string
	CategoryID string
	Limit      int
	Offset     int
}

// NearbyIncident pairs an incident with its distance from a query point.
type NearbyIncident struct {
	Incident   models.Incident `json:"incident"`
	DistanceKm float64         `json:"distance_km"`
}

// IncidentService owns the incident lifecycle: creation, the status state
// machine, and role-scoped reads.
type IncidentService struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewIncidentService constructs an IncidentService.
func NewIncidentService(db *gorm.DB, notifier *Notifier) (*IncidentService, error) {
	if db == nil {
		return nil, errors.New("incident service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("incident service: notifier is required")
	}
	return &IncidentService{db: db, notifier: notifier}, nil
}

// Create files a new incident. Status always starts at `reported` and every
// active admin is notified.
func (s *IncidentService) Create(ctx context.Context, input CreateIncidentInput) (*models.Incident, error) {
	ctx = ensureContext(ctx)

	title := trimmed(input.Title)
	if title == "" {
		return nil, apperrors.NewValidation("title is required")
	}
	if trimmed(input.Description) == "" {
		return nil, apperrors.NewValidation("description is required")
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		return nil, apperrors.NewValidation("latitude must be between -90 and 90")
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewValidation("longitude must be between -180 and 180")
	}

	severity := models.IncidentSeverity(defaultIfEmpty(input.Severity, string(models.SeverityMedium)))
	if !severity.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown severity %q", input.Severity))
	}

	reporter, err := loadActor(ctx, s.db, input.ReporterID)
	if err != nil {
		return nil, err
	}

	var category models.IncidentCategory
	if err := s.db.WithContext(ctx).First(&category, "id = ?", trimmed(input.CategoryID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidation("category does not exist")
		}
		return nil, fmt.Errorf("incident service: load category: %w", err)
	}

	incident := models.Incident{
		IncidentID:      newIncidentRef(time.Now().UTC()),
		Title:           title,
		Description:     trimmed(input.Description),
		CategoryID:      category.ID,
		ReporterID:      reporter.ID,
		Status:          models.StatusReported,
		Severity:        severity,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		LocationAddress: trimmed(input.LocationAddress),
		ImageURL:        trimmed(input.ImageURL),
	}

	if err := s.db.WithContext(ctx).Create(&incident).Error; err != nil {
		return nil, fmt.Errorf("incident service: create incident: %w", err)
	}
	metrics.IncidentsCreated.WithLabelValues(string(severity)).Inc()

	// The incident is already durable; admin fan-out failures are an
	// operational concern, not the reporter's.
	if err := s.notifier.NotifyRole(ctx, models.RoleAdmin, NotifyInput{
		IncidentID: &incident.ID,
		Type:       models.NotificationIncidentCreated,
		Title:      "New Incident Reported",
		Message:    fmt.Sprintf("New incident: %s", incident.Title),
		Metadata:   map[string]any{"incident_ref": incident.IncidentID},
	}); err != nil {
		logger.Warn("incident service: admin notification fan-out incomplete",
			zap.String("incident_id", incident.ID),
			zap.Error(err))
	}

	incident.Category = &category
	return &incident, nil
}

// UpdateStatus applies a status change. The workflow ordering is advisory:
// any move between the known states is accepted, including backwards, but a
// closed incident rejects everything. The first entry into `resolved`
// stamps ResolvedAt and later updates never clear it.
func (s *IncidentService) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Incident, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, input.ActorID)
	if err != nil {
		return nil, err
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, "id = ?", trimmed(input.IncidentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("incident service: load incident: %w", err)
	}

	assigned, err := isAssigned(ctx, s.db, incident.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("incident service: %w", err)
	}
	if !authz.CanUpdateIncident(actor.Role, assigned) {
		return nil, apperrors.ErrForbidden
	}

	// An unknown status is a validation failure regardless of the incident's
	// current state; only a recognised transition can hit the terminal check.
	newStatus := models.IncidentStatus(trimmed(input.Status))
	if !newStatus.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown status %q", input.Status))
	}

	if incident.Status == models.StatusClosed {
		return nil, apperrors.ErrInvalidTransition
	}

	oldStatus := incident.Status
	updates := map[string]any{"status": newStatus}

	// A malformed severity in a status update is ignored rather than
	// rejected; the status change is the primary intent.
	if severity := models.IncidentSeverity(trimmed(input.Severity)); input.Severity != "" && severity.Valid() {
		updates["severity"] = severity
		incident.Severity = severity
	}

	if newStatus == models.StatusResolved && incident.ResolvedAt == nil {
		now := time.Now().UTC()
		updates["resolved_at"] = now
		incident.ResolvedAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&incident).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("incident service: update status: %w", err)
	}
	incident.Status = newStatus
	metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()

	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: incident.ReporterID,
		IncidentID:  &incident.ID,
		Type:        models.NotificationStatusUpdate,
		Title:       "Incident Status Updated",
		Message: fmt.Sprintf("Your incident %s status changed from %s to %s",
			incident.IncidentID, oldStatus, newStatus),
		Metadata: map[string]any{"old_status": string(oldStatus), "new_status": string(newStatus)},
	}); err != nil {
		logger.Warn("incident service: status notification failed",
			zap.String("incident_id", incident.ID),
			zap.Error(err))
	}

	return &incident, nil
}

// Get returns a single incident when the actor is allowed to see it.
func (s *IncidentService) Get(ctx context.Context, actorID, incidentID string) (*models.Incident, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Reporter").
		First(&incident, "id = ?", trimmed(incidentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("incident service: load incident: %w", err)
	}

	assigned, err := isAssigned(ctx, s.db, incident.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("incident service: %w", err)
	}
	if !authz.CanViewIncident(actor.Role, actor.ID, incident.ReporterID, assigned) {
		// Hide existence from actors outside the incident's audience.
		return nil, apperrors.ErrNotFound
	}

	return &incident, nil
}

// List returns incidents visible to the actor, newest first.
func (s *IncidentService) List(ctx context.Context, input ListIncidentsInput) ([]models.Incident, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, input.ActorID)
	if err != nil {
		return nil, err
	}

	query := scopedIncidents(ctx, s.db, actor).
		Preload("Category").
		Preload("Reporter")

	if status := trimmed(input.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if severity := trimmed(input.Severity); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if categoryID := trimmed(input.CategoryID); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var incidents []models.Incident
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("incident service: list incidents: %w", err)
	}
	return incidents, nil
}

// Nearby returns the actor's visible incidents within radiusKm of a point,
// sorted ascending by great-circle distance.
func (s *IncidentService) Nearby(ctx context.Context, actorID string, lat, lng, radiusKm float64) ([]NearbyIncident, error) {
	ctx = ensureContext(ctx)

	if radiusKm <= 0 {
		return nil, apperrors.NewValidation("radius must be positive")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperrors.NewValidation("invalid coordinates")
	}

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	var incidents []models.Incident
	if err := scopedIncidents(ctx, s.db, actor).
		Preload("Category").
		Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("incident service: load incidents: %w", err)
	}

	nearby := make([]NearbyIncident, 0, len(incidents))
	for _, incident := range incidents {
		distance := geo.Distance(lat, lng, incident.Latitude, incident.Longitude)
		if distance <= radiusKm {
			nearby = append(nearby, NearbyIncident{Incident: incident, DistanceKm: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

// newIncidentRef builds the human-readable incident reference. The second
// resolution timestamp keeps the format recognisable while the random
// suffix makes two incidents filed in the same second distinct.
func newIncidentRef(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("INC%s-%s", now.Format("20060102150405"), suffix)
}
