package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-events/internal/middleware"
)

// Me returns the caller's verified identity.
func Me(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}
