package database

import (
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.IncidentCategory{},
		&models.Incident{},
		&models.ResponseTeam{},
		&models.ResponseLog{},
		&models.Notification{},
	)
}

// SeedData populates the default incident categories.
func SeedData(db *gorm.DB) error {
	categories := []models.IncidentCategory{
		{Name: "Fire", Description: "Fire and explosion emergencies", PriorityLevel: 1, Icon: "flame"},
		{Name: "Medical", Description: "Medical emergencies requiring first response", PriorityLevel: 1, Icon: "heart-pulse"},
		{Name: "Flood", Description: "Flooding and water damage", PriorityLevel: 2, Icon: "droplets"},
		{Name: "Accident", Description: "Traffic and industrial accidents", PriorityLevel: 2, Icon: "car-crash"},
		{Name: "Security", Description: "Security and public safety incidents", PriorityLevel: 3, Icon: "shield-alert"},
		{Name: "Other", Description: "Anything that does not fit another category", PriorityLevel: 5, Icon: "circle-help"},
	}

	for _, category := range categories {
		if err := db.Where(models.IncidentCategory{Name: category.Name}).
			Attrs(category).
			FirstOrCreate(&models.IncidentCategory{}).Error; err != nil {
			return err
		}
	}

	return nil
}
