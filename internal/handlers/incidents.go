package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/services"
	"github.com/qrcs/qrcs/pkg/errors"
	"github.com/qrcs/qrcs/pkg/response"
)

// IncidentHandler exposes the incident lifecycle endpoints.
type IncidentHandler struct {
	incidents *services.IncidentService
}

// NewIncidentHandler constructs an IncidentHandler.
func NewIncidentHandler(db *gorm.DB, notifier *services.Notifier) (*IncidentHandler, error) {
	incidents, err := services.NewIncidentService(db, notifier)
	if err != nil {
		return nil, err
	}
	return &IncidentHandler{incidents: incidents}, nil
}

type createIncidentRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     string  `json:"description" validate:"required"`
	CategoryID      string  `json:"category_id" validate:"required"`
	Severity        string  `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Latitude        float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64 `json:"longitude" validate:"min=-180,max=180"`
	LocationAddress string  `json:"location_address" validate:"omitempty,max=255"`
	ImageURL        string  `json:"image_url" validate:"omitempty,max=500"`
}

type updateStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Severity string `json:"severity" validate:"omitempty"`
}

// Create files a new incident reported by the caller.
func (h *IncidentHandler) Create(c *gin.Context) {
	var req createIncidentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	incident, err := h.incidents.Create(requestContext(c), services.CreateIncidentInput{
		ReporterID:      currentUserID(c),
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		Severity:        req.Severity,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		LocationAddress: req.LocationAddress,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, incident)
}

// List returns the incidents visible to the caller.
func (h *IncidentHandler) List(c *gin.Context) {
	incidents, err := h.incidents.List(requestContext(c), services.ListIncidentsInput{
		ActorID:    currentUserID(c),
		Status:     c.Query("status"),
		Severity:   c.Query("severity"),
		CategoryID: c.Query("category_id"),
		Limit:      parseIntQuery(c, "limit", 25),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, incidents)
}

// Get returns a single incident.
func (h *IncidentHandler) Get(c *gin.Context) {
	incident, err := h.incidents.Get(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, incident)
}

// UpdateStatus applies a status change, optionally adjusting severity.
func (h *IncidentHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	incident, err := h.incidents.UpdateStatus(requestContext(c), services.UpdateStatusInput{
		IncidentID: strings.TrimSpace(c.Param("id")),
		ActorID:    currentUserID(c),
		Status:     req.Status,
		Severity:   req.Severity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, incident)
}

// Nearby returns incidents within a radius of a point, closest first.
func (h *IncidentHandler) Nearby(c *gin.Context) {
	lat, okLat := parseFloatQuery(c, "lat")
	lng, okLng := parseFloatQuery(c, "lng")
	if !okLat || !okLng {
		response.Error(c, errors.NewValidation("lat and lng query parameters are required"))
		return
	}

	radius, ok := parseFloatQuery(c, "radius")
	if !ok {
		radius = 10
	}

	nearby, err := h.incidents.Nearby(requestContext(c), currentUserID(c), lat, lng, radius)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, nearby)
}
