package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/services"
	"github.com/qrcs/qrcs/pkg/response"
)

// AssignmentHandler exposes response team management endpoints.
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler constructs an AssignmentHandler.
func NewAssignmentHandler(db *gorm.DB, notifier *services.Notifier) (*AssignmentHandler, error) {
	assignments, err := services.NewAssignmentService(db, notifier)
	if err != nil {
		return nil, err
	}
	return &AssignmentHandler{assignments: assignments}, nil
}

type assignRequest struct {
	ResponderID string `json:"responder_id" validate:"required"`
	Notes       string `json:"notes" validate:"omitempty,max=500"`
	IsLead      bool   `json:"is_lead"`
}

// Assign adds a responder to the incident's response team.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req assignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	team, err := h.assignments.Assign(requestContext(c), services.AssignInput{
		IncidentID:  strings.TrimSpace(c.Param("id")),
		ResponderID: req.ResponderID,
		ActorID:     currentUserID(c),
		Notes:       req.Notes,
		IsLead:      req.IsLead,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, team)
}

// SetLead designates a team member as the incident's lead.
func (h *AssignmentHandler) SetLead(c *gin.Context) {
	team, err := h.assignments.SetLead(requestContext(c), strings.TrimSpace(c.Param("teamId")), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// List returns the incident's response team.
func (h *AssignmentHandler) List(c *gin.Context) {
	teams, err := h.assignments.ListForIncident(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}
