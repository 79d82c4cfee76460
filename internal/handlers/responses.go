package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/services"
	"github.com/qrcs/qrcs/pkg/response"
)

// ResponseLogHandler exposes the append-only response log endpoints.
type ResponseLogHandler struct {
	logs *services.ResponseLogService
}

// NewResponseLogHandler constructs a ResponseLogHandler.
func NewResponseLogHandler(db *gorm.DB, notifier *services.Notifier) (*ResponseLogHandler, error) {
	logs, err := services.NewResponseLogService(db, notifier)
	if err != nil {
		return nil, err
	}
	return &ResponseLogHandler{logs: logs}, nil
}

type createResponseLogRequest struct {
	Action    string   `json:"action" validate:"required,max=200"`
	Details   string   `json:"details" validate:"omitempty"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	ImageURL  string   `json:"image_url" validate:"omitempty,max=500"`
}

// Create records an action against the incident.
func (h *ResponseLogHandler) Create(c *gin.Context) {
	var req createResponseLogRequest
	if !bindAndValidate(c, &req) {
		return
	}

	log, err := h.logs.Create(requestContext(c), services.CreateResponseLogInput{
		IncidentID: strings.TrimSpace(c.Param("id")),
		ActorID:    currentUserID(c),
		Action:     req.Action,
		Details:    req.Details,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, log)
}

// List returns the incident's response log, newest first.
func (h *ResponseLogHandler) List(c *gin.Context) {
	logs, err := h.logs.ListForIncident(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs)
}
