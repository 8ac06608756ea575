// Package admin exposes operator endpoints: system counters, user reset,
// and the on-demand memory sweep. These sit behind the admin audit
// middleware.
package admin

import (
	"errors"
	"net/http"

	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/empathai/chat-service/internal/service"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the admin REST endpoints on the given router.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, sweeper *service.MemorySweeper) {
	if store == nil {
		return
	}
	g := r.Group("/v1/admin")

	g.GET("/stats", func(c *gin.Context) {
		stats, err := store.Stats(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	g.DELETE("/users/:userId", func(c *gin.Context) {
		if err := store.ResetUser(c.Request.Context(), c.Param("userId")); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	})

	g.POST("/sweep", func(c *gin.Context) {
		if sweeper == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sweeper not configured"})
			return
		}
		result, err := sweeper.RunOnce(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func handleError(c *gin.Context, err error) {
	var nf *registrystore.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
