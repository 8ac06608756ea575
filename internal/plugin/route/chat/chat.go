// Package chatroute exposes the conversational turn endpoint.
package chatroute

import (
	"errors"
	"net/http"

	"github.com/empathai/chat-service/internal/chat"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/gin-gonic/gin"
)

// TurnRequest is the POST /v1/chat payload.
type TurnRequest struct {
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// MountRoutes mounts the chat endpoint on the given router.
func MountRoutes(r *gin.Engine, orch *chat.Orchestrator) {
	if orch == nil {
		return
	}
	g := r.Group("/v1")

	g.POST("/chat", func(c *gin.Context) {
		var req TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := orch.HandleTurn(c.Request.Context(), req.UserID, req.Message, req.SessionID)
		if err != nil {
			var verr *registrystore.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
