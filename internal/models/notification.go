package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType classifies why a notification was produced.
type NotificationType string

const (
	NotificationIncidentCreated  NotificationType = "incident_created"
	NotificationIncidentAssigned NotificationType = "incident_assigned"
	NotificationStatusUpdate     NotificationType = "status_update"
	NotificationMessage          NotificationType = "message"
)

// Valid reports whether the type is one of the known values.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationIncidentCreated, NotificationIncidentAssigned,
		NotificationStatusUpdate, NotificationMessage:
		return true
	}
	return false
}

// Notification is a durable per-recipient record. Content fields are written
// by the coordinating services only; the recipient owns the read flag.
type Notification struct {
	BaseModel

	RecipientID string `gorm:"type:uuid;not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	Recipient   *User  `gorm:"foreignKey:RecipientID" json:"-"`

	// references:ID keeps gorm from joining on Incident's IncidentID ref field.
	IncidentID *string   `gorm:"type:uuid;index" json:"incident_id"`
	Incident   *Incident `gorm:"belongsTo;foreignKey:IncidentID;references:ID" json:"incident,omitempty"`

	Type    NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title   string           `gorm:"not null;size:200" json:"title"`
	Message string           `gorm:"type:text" json:"message"`

	// Metadata carries structured context for push consumers, e.g. the old
	// and new status of a transition.
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool       `gorm:"default:false;index:idx_notifications_recipient_read" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
