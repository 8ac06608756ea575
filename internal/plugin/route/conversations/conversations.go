package conversations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/empathai/chat-service/internal/conversation"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MountRoutes mounts the conversation REST endpoints on the given router.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, ledger *conversation.Ledger) {
	if store == nil {
		return
	}
	g := r.Group("/v1")

	g.GET("/users/:userId/conversations", func(c *gin.Context) { listConversations(c, store) })
	g.GET("/conversations/:id", func(c *gin.Context) { getConversation(c, store) })
	g.GET("/conversations/:id/messages", func(c *gin.Context) { listMessages(c, store) })
	g.POST("/conversations/:id/end", func(c *gin.Context) { endConversation(c, store, ledger) })
}

func listConversations(c *gin.Context, store registrystore.ChatStore) {
	userID := c.Param("userId")
	limit := intQuery(c, "limit", 20)
	convs, err := store.ListConversations(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func getConversation(c *gin.Context, store registrystore.ChatStore) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	conv, err := store.GetConversation(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func listMessages(c *gin.Context, store registrystore.ChatStore) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	limit := intQuery(c, "limit", 50)
	msgs, err := store.ListMessages(c.Request.Context(), id, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// endConversation writes the final summary and closes the session.
func endConversation(c *gin.Context, store registrystore.ChatStore, ledger *conversation.Ledger) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	summary, err := ledger.Summarize(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := store.EndConversation(c.Request.Context(), id, &summary); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended", "summary": summary})
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func handleError(c *gin.Context, err error) {
	var nf *registrystore.NotFoundError
	var ve *registrystore.ValidationError
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
