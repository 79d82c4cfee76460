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
	"github.com/qrcs/qrcs/pkg/metrics"
)

// AssignInput describes a responder assignment request.
type AssignInput struct {
	IncidentID  string
	ResponderID string
	ActorID     string
	Notes       string
	IsLead      bool
}

// AssignmentService manages response team membership and lead designation.
type AssignmentService struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(db *gorm.DB, notifier *Notifier) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("assignment service: notifier is required")
	}
	return &AssignmentService{db: db, notifier: notifier}, nil
}

// Assign adds a responder to an incident's response team. The membership
// row and the reported→assigned status cascade commit in one transaction;
// the composite unique index turns a racing duplicate into a conflict for
// exactly one of the callers. The responder notification happens after
// commit and cannot undo the assignment.
func (s *AssignmentService) Assign(ctx context.Context, input AssignInput) (*models.ResponseTeam, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAssignResponder(actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, "id = ?", trimmed(input.IncidentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("assignment service: load incident: %w", err)
	}

	var responder models.User
	if err := s.db.WithContext(ctx).First(&responder, "id = ?", trimmed(input.ResponderID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("assignment service: load responder: %w", err)
	}
	if responder.Role != models.RoleResponder {
		return nil, apperrors.NewValidation("assignee must hold the responder role")
	}

	team := models.ResponseTeam{
		IncidentID:   incident.ID,
		ResponderID:  responder.ID,
		AssignedByID: &actor.ID,
		Notes:        trimmed(input.Notes),
		IsLead:       input.IsLead,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.IsLead {
			if err := tx.Model(&models.ResponseTeam{}).
				Where("incident_id = ? AND is_lead = ?", incident.ID, true).
				Update("is_lead", false).Error; err != nil {
				return fmt.Errorf("clear existing lead: %w", err)
			}
		}

		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		// Single home of the assignment cascade: a first assignment moves
		// a reported incident to assigned, later ones leave status alone.
		if incident.Status == models.StatusReported {
			if err := tx.Model(&models.Incident{}).
				Where("id = ? AND status = ?", incident.ID, models.StatusReported).
				Update("status", models.StatusAssigned).Error; err != nil {
				return fmt.Errorf("cascade status: %w", err)
			}
			incident.Status = models.StatusAssigned
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			metrics.Assignments.WithLabelValues("conflict").Inc()
			return nil, apperrors.NewConflict("responder is already assigned to this incident")
		}
		metrics.Assignments.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("assignment service: assign responder: %w", err)
	}
	metrics.Assignments.WithLabelValues("success").Inc()

	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: responder.ID,
		IncidentID:  &incident.ID,
		Type:        models.NotificationIncidentAssigned,
		Title:       "New Incident Assignment",
		Message:     fmt.Sprintf("You have been assigned to incident: %s", incident.Title),
		Metadata:    map[string]any{"incident_ref": incident.IncidentID},
	}); err != nil {
		logger.Warn("assignment service: responder notification failed",
			zap.String("incident_id", incident.ID),
			zap.String("responder_id", responder.ID),
			zap.Error(err))
	}

	return &team, nil
}

// SetLead designates the team member as the incident's lead. Clearing the
// previous lead and setting the new one commit atomically so no reader ever
// observes two leads.
func (s *AssignmentService) SetLead(ctx context.Context, teamID, actorID string) (*models.ResponseTeam, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanSetTeamLead(actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	var team models.ResponseTeam
	if err := s.db.WithContext(ctx).First(&team, "id = ?", trimmed(teamID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("assignment service: load team: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ResponseTeam{}).
			Where("incident_id = ? AND is_lead = ?", team.IncidentID, true).
			Update("is_lead", false).Error; err != nil {
			return fmt.Errorf("clear leads: %w", err)
		}
		if err := tx.Model(&models.ResponseTeam{}).
			Where("id = ?", team.ID).
			Update("is_lead", true).Error; err != nil {
			return fmt.Errorf("set lead: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assignment service: set lead: %w", err)
	}

	team.IsLead = true
	return &team, nil
}

// ListForIncident returns the response team rows for an incident the actor
// may see.
func (s *AssignmentService) ListForIncident(ctx context.Context, actorID, incidentID string) ([]models.ResponseTeam, error) {
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
		return nil, fmt.Errorf("assignment service: load incident: %w", err)
	}

	assigned, err := isAssigned(ctx, s.db, incident.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("assignment service: %w", err)
	}
	if !authz.CanViewIncident(actor.Role, actor.ID, incident.ReporterID, assigned) {
		return nil, apperrors.ErrNotFound
	}

	var teams []models.ResponseTeam
	if err := s.db.WithContext(ctx).
		Preload("Responder").
		Where("incident_id = ?", incident.ID).
		Order("created_at DESC").
		Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list team: %w", err)
	}
	return teams, nil
}
