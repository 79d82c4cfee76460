package models

import "time"

// IncidentStatus tracks an incident through its workflow. The ordering is
// advisory: only `closed` is terminal.
type IncidentStatus string

const (
	StatusReported   IncidentStatus = "reported"
	StatusAssigned   IncidentStatus = "assigned"
	StatusInProgress IncidentStatus = "in_progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusClosed     IncidentStatus = "closed"
)

// Valid reports whether the status is one of the known workflow values.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusReported, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Active reports whether the incident still needs attention.
func (s IncidentStatus) Active() bool {
	switch s {
	case StatusReported, StatusAssigned, StatusInProgress:
		return true
	}
	return false
}

// IncidentSeverity grades the impact of an incident, independent of status.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// Valid reports whether the severity is one of the known values.
func (s IncidentSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Incident is a reported emergency tracked through the status workflow.
type Incident struct {
	BaseModel

	// IncidentID is the human-readable reference shown to users, e.g.
	// INC20250311143005-a1f3. Immutable once written.
	IncidentID string `gorm:"uniqueIndex;not null;size:32" json:"incident_id"`

	Title       string `gorm:"not null;size:200" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	CategoryID string            `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *IncidentCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`

	ReporterID string `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter   *User  `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	Status   IncidentStatus   `gorm:"type:varchar(20);not null;default:'reported';index:idx_incidents_status_severity" json:"status"`
	Severity IncidentSeverity `gorm:"type:varchar(20);not null;default:'medium';index:idx_incidents_status_severity" json:"severity"`

	Latitude        float64 `gorm:"type:decimal(9,6);not null" json:"latitude"`
	Longitude       float64 `gorm:"type:decimal(9,6);not null" json:"longitude"`
	LocationAddress string  `gorm:"size:500" json:"location_address"`

	// ImageURL references externally stored media; this service never
	// touches the bytes.
	ImageURL string `gorm:"type:text" json:"image_url"`

	// ResolvedAt is stamped the first time the incident enters `resolved`
	// and never reset afterwards.
	ResolvedAt *time.Time `json:"resolved_at"`
}
