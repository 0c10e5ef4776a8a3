package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskrewarder/internal/models"
	"taskrewarder/internal/services"
)

// tolerant of value types in context (int / int64 / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int64, role models.Role) {
	if id, ok := getInt64FromCtx(c, "user_id"); ok {
		userID = id
	}
	if v, ok := c.Get("role"); ok {
		if s, ok := v.(string); ok {
			role = models.Role(s)
		}
	}
	return
}

// writeServiceError maps domain error kinds onto HTTP statuses. Anything that
// is not a known kind is a 500.
func writeServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		authzErr      *services.AuthorizationError
		stateErr      *services.StateError
		deadlineErr   *services.DeadlineError
		notFoundErr   *services.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &deadlineErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": deadlineErr.Error()})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authzErr.Error()})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
