package models

// ResponseLog is an append-only record of a responder action on an incident.
// Rows are never updated or deleted; CreatedAt is the action timestamp.
type ResponseLog struct {
	BaseModel

	// references:ID keeps gorm from joining on Incident's IncidentID ref field.
	IncidentID string    `gorm:"type:uuid;not null;index:idx_response_logs_incident_created" json:"incident_id"`
	Incident   *Incident `gorm:"belongsTo;foreignKey:IncidentID;references:ID" json:"incident,omitempty"`

	ResponderID string `gorm:"type:uuid;not null;index" json:"responder_id"`
	Responder   *User  `gorm:"foreignKey:ResponderID" json:"responder,omitempty"`

	Action  string `gorm:"not null;size:200" json:"action"`
	Details string `gorm:"type:text" json:"details"`

	Latitude  *float64 `gorm:"type:decimal(9,6)" json:"latitude"`
	Longitude *float64 `gorm:"type:decimal(9,6)" json:"longitude"`
	ImageURL  string   `gorm:"type:text" json:"image_url"`
}
