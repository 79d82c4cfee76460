package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/qrcs/qrcs/internal/notifications"
	"github.com/qrcs/qrcs/pkg/errors"
	"github.com/qrcs/qrcs/pkg/response"
)

// RealtimeHandler upgrades authenticated clients to the notification stream.
type RealtimeHandler struct {
	hub *notifications.Hub
}

// NewRealtimeHandler constructs a RealtimeHandler.
func NewRealtimeHandler(hub *notifications.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream upgrades the connection and attaches it to the caller's channel.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.hub.Serve(userID, c.Writer, c.Request)
}
