package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/authz"
	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
	"github.com/qrcs/qrcs/pkg/logger"
)

// CreateResponseLogInput describes an action a responder records against an
// incident.
type CreateResponseLogInput struct {
	IncidentID string
	ActorID    string
	Action     string
	Details    string
	Latitude   *float64
	Longitude  *float64
	ImageURL   string
}

// ResponseLogService records responder actions. Logs are append only: there
// are no update or delete paths.
type ResponseLogService struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewResponseLogService constructs a ResponseLogService.
func NewResponseLogService(db *gorm.DB, notifier *Notifier) (*ResponseLogService, error) {
	if db == nil {
		return nil, errors.New("response log service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("response log service: notifier is required")
	}
	return &ResponseLogService{db: db, notifier: notifier}, nil
}

// Create writes a log entry. Responders must be assigned to the incident;
// the incident's reporter is told about the action unless they are the one
// recording it.
func (s *ResponseLogService) Create(ctx context.Context, input CreateResponseLogInput) (*models.ResponseLog, error) {
	ctx = ensureContext(ctx)

	action := trimmed(input.Action)
	if action == "" {
		return nil, apperrors.NewValidation("action is required")
	}

	actor, err := loadActor(ctx, s.db, input.ActorID)
	if err != nil {
		return nil, err
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, "id = ?", trimmed(input.IncidentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("response log service: load incident: %w", err)
	}

	assigned, err := isAssigned(ctx, s.db, incident.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("response log service: %w", err)
	}
	if !authz.CanCreateResponseLog(actor.Role, assigned) {
		return nil, apperrors.ErrForbidden
	}

	log := models.ResponseLog{
		IncidentID:  incident.ID,
		ResponderID: actor.ID,
		Action:      action,
		Details:     trimmed(input.Details),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURL:    trimmed(input.ImageURL),
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return nil, fmt.Errorf("response log service: create log: %w", err)
	}

	if incident.ReporterID != actor.ID {
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: incident.ReporterID,
			IncidentID:  &incident.ID,
			Type:        models.NotificationStatusUpdate,
			Title:       "Response Update",
			Message:     fmt.Sprintf("New update on incident %s: %s", incident.IncidentID, log.Action),
		}); err != nil {
			logger.Warn("response log service: reporter notification failed",
				zap.String("incident_id", incident.ID),
				zap.Error(err))
		}
	}

	return &log, nil
}

// ListForIncident returns an incident's log entries, newest first, for
// actors allowed to view the incident.
func (s *ResponseLogService) ListForIncident(ctx context.Context, actorID, incidentID string) ([]models.ResponseLog, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, "id = ?", trimmed(incidentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("response log service: load incident: %w", err)
	}

	assigned, err := isAssigned(ctx, s.db, incident.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("response log service: %w", err)
	}
	if !authz.CanViewIncident(actor.Role, actor.ID, incident.ReporterID, assigned) {
		return nil, apperrors.ErrNotFound
	}

	var logs []models.ResponseLog
	if err := s.db.WithContext(ctx).
		Preload("Responder").
		Where("incident_id = ?", incident.ID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("response log service: list logs: %w", err)
	}
	return logs, nil
}
