package models

// IncidentCategory groups incidents by kind. A lower priority level means a
// more urgent category by listing convention.
type IncidentCategory struct {
	BaseModel

	Name          string `gorm:"uniqueIndex;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	PriorityLevel int    `gorm:"default:1" json:"priority_level"`
	Icon          string `gorm:"type:varchar(50)" json:"icon"`
}
