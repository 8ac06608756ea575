package personas

import (
	"errors"
	"net/http"

	"github.com/empathai/chat-service/internal/persona"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the persona REST endpoints on the given router.
func MountRoutes(r *gin.Engine, manager *persona.Manager) {
	if manager == nil {
		return
	}
	g := r.Group("/v1")

	g.GET("/users/:userId/persona", func(c *gin.Context) {
		profile, err := manager.GetOrCreate(c.Request.Context(), c.Param("userId"))
		if err != nil {
			var ve *registrystore.ValidationError
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})
}
