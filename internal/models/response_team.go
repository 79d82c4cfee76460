package models

// ResponseTeam links a responder to an incident. The composite unique index
// makes double-assignment a storage-level conflict rather than a check the
// application could race on.
type ResponseTeam struct {
	BaseModel

	// references:ID is required: Incident has its own IncidentID column (the
	// human-readable ref), which gorm would otherwise pick as the join key.
	IncidentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_response_teams_incident_responder" json:"incident_id"`
	Incident   *Incident `gorm:"belongsTo;foreignKey:IncidentID;references:ID" json:"incident,omitempty"`

	ResponderID string `gorm:"type:uuid;not null;uniqueIndex:idx_response_teams_incident_responder" json:"responder_id"`
	Responder   *User  `gorm:"foreignKey:ResponderID" json:"responder,omitempty"`

	// AssignedByID is nullable: the assigning admin may be removed later.
	AssignedByID *string `gorm:"type:uuid" json:"assigned_by_id"`
	AssignedBy   *User   `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`

	Notes  string `gorm:"type:text" json:"notes"`
	IsLead bool   `gorm:"default:false" json:"is_lead"`
}
