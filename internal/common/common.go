package common

import (
	"errors"

	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextUserIDKey = "currentUserID"
	ContextRoleKey   = "currentUserRole"
)

// Shared error taxonomy. Repositories return these (usually wrapped with
// fmt.Errorf("...: %w", Err...)) and controllers map them to HTTP codes.
var (
	// ErrNotFound means the referenced match/team/user no longer exists.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict means a transactional guard tripped: the record was already
	// finalized, already accepted, or otherwise changed under the caller.
	// The caller should reload and retry the user-facing action.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrPermissionDenied means the wrong party attempted a privileged action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation means malformed input; surfaced immediately, no retry.
	ErrValidation = errors.New("validation failed")
)

// GetUserIDFromContext retrieves the authenticated user's ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	userIDInterface, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, errors.New("user ID not found in context")
	}
	userID, ok := userIDInterface.(uint)
	if !ok {
		return 0, errors.New("user ID in context is not of type uint")
	}
	return userID, nil
}
