package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/authz"
	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
)

// loadActor resolves the acting user for an operation.
func loadActor(ctx context.Context, db *gorm.DB, actorID string) (*models.User, error) {
	actorID = trimmed(actorID)
	if actorID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var actor models.User
	if err := db.WithContext(ctx).First(&actor, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("load actor: %w", err)
	}
	return &actor, nil
}

// isAssigned reports whether the user appears in the incident's response team.
func isAssigned(ctx context.Context, db *gorm.DB, incidentID, userID string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ResponseTeam{}).
		Where("incident_id = ? AND responder_id = ?", incidentID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return count > 0, nil
}

// scopedIncidents narrows an incident query to what the actor may see,
// applying the authz visibility scope uniformly across every read path.
func scopedIncidents(ctx context.Context, db *gorm.DB, actor *models.User) *gorm.DB {
	query := db.WithContext(ctx).Model(&models.Incident{})

	switch authz.IncidentScope(actor.Role) {
	case authz.ScopeAll:
		return query
	case authz.ScopeAssigned:
		return query.Where(
			"id IN (?)",
			db.Model(&models.ResponseTeam{}).
				Select("incident_id").
				Where("responder_id = ?", actor.ID),
		)
	default:
		return query.Where("reporter_id = ?", actor.ID)
	}
}
