package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"instafacts-api/store"
)

// respondStoreError maps the data-layer error taxonomy onto HTTP statuses.
// Errors stop at the action-handler boundary; nothing propagates past it.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrLoginRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
	case errors.Is(err, store.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, store.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
	case errors.Is(err, store.ErrOwnershipViolation):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found or access denied"})
	case errors.Is(err, store.ErrEmptyPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Post needs a caption or at least one file"})
	case errors.Is(err, store.ErrBackendUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
