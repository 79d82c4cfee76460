package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/models"
	"github.com/qrcs/qrcs/internal/notifications"
	"github.com/qrcs/qrcs/pkg/logger"
)

// Pusher delivers a notification event to a user's live connections.
// Implementations must be best effort: Push never blocks the caller and
// never reports failure.
type Pusher interface {
	Push(userID string, event notifications.Event)
}

// NopPusher discards every event. Used when no realtime transport is wired.
type NopPusher struct{}

// Push implements Pusher.
func (NopPusher) Push(string, notifications.Event) {}

// NotifyInput describes a notification to record and push.
type NotifyInput struct {
	RecipientID string
	IncidentID  *string
	Type        models.NotificationType
	Title       string
	Message     string
	Metadata    map[string]any
}

// Notifier is the notification sink: it writes the durable per-recipient
// record synchronously and pushes to the realtime transport without letting
// delivery failures surface to the triggering operation.
type Notifier struct {
	db     *gorm.DB
	pusher Pusher
}

// NewNotifier constructs a Notifier. A nil pusher disables realtime delivery.
func NewNotifier(db *gorm.DB, pusher Pusher) (*Notifier, error) {
	if db == nil {
		return nil, errors.New("notifier: db is required")
	}
	if pusher == nil {
		pusher = NopPusher{}
	}
	return &Notifier{db: db, pusher: pusher}, nil
}

// Notify persists a notification for a single recipient and pushes it.
// Only the persistence failure propagates; push is fire and forget.
func (n *Notifier) Notify(ctx context.Context, input NotifyInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	recipientID := trimmed(input.RecipientID)
	if recipientID == "" {
		return nil, errors.New("notifier: recipient id is required")
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("notifier: unknown notification type %q", input.Type)
	}

	notification := models.Notification{
		RecipientID: recipientID,
		IncidentID:  input.IncidentID,
		Type:        input.Type,
		Title:       trimmed(input.Title),
		Message:     trimmed(input.Message),
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notifier: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := n.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notifier: create notification: %w", err)
	}

	n.pusher.Push(recipientID, notifications.Event{
		Event:        "notification.created",
		Notification: &notification,
	})

	return &notification, nil
}

// NotifyRole fans a notification out to every active user holding the role:
// one durable record and one push per user. A failure for one recipient
// never blocks the others; the combined error is returned for the caller's
// operational log.
func (n *Notifier) NotifyRole(ctx context.Context, role models.Role, input NotifyInput) error {
	ctx = ensureContext(ctx)

	var recipients []models.User
	if err := n.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Find(&recipients).Error; err != nil {
		return fmt.Errorf("notifier: load %s recipients: %w", role, err)
	}

	var errs error
	for _, recipient := range recipients {
		perUser := input
		perUser.RecipientID = recipient.ID
		if _, err := n.Notify(ctx, perUser); err != nil {
			logger.Warn("notifier: fan-out delivery failed",
				zap.String("recipient_id", recipient.ID),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
