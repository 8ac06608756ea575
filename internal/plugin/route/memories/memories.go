package memories

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	registryvector "github.com/empathai/chat-service/internal/registry/vector"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MountRoutes mounts the memory REST endpoints on the given router.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, vector registryvector.VectorStore) {
	if store == nil {
		return
	}
	g := r.Group("/v1")

	g.GET("/users/:userId/memories", func(c *gin.Context) { listMemories(c, store) })
	g.GET("/memories/:id", func(c *gin.Context) { getMemory(c, store) })
	g.DELETE("/memories/:id", func(c *gin.Context) { deleteMemory(c, store, vector) })
}

func listMemories(c *gin.Context, store registrystore.ChatStore) {
	userID := c.Param("userId")
	limit := intQuery(c, "limit", 50)

	if q := c.Query("q"); q != "" {
		minConfidence, _ := strconv.ParseFloat(c.DefaultQuery("minConfidence", "0"), 64)
		memories, err := store.SearchMemories(c.Request.Context(), userID, q, minConfidence, limit)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"memories": memories})
		return
	}

	memories, err := store.ActiveMemories(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memories": memories})
}

func getMemory(c *gin.Context, store registrystore.ChatStore) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	memory, err := store.GetMemory(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, memory)
}

func deleteMemory(c *gin.Context, store registrystore.ChatStore, vector registryvector.VectorStore) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	if err := store.DeactivateMemory(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	if vector != nil && vector.IsEnabled() {
		if err := vector.DeleteByMemoryID(c.Request.Context(), id); err != nil {
			log.Warn("Failed to delete memory embedding", "memoryId", id, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
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
