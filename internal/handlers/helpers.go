package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
	"opsdesk/internal/services"
)

func getStringFromCtx(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// requestAuth is everything a handler needs about the acting user: the loaded
// account, their resolved permission set, and the request-scoped resolver
// (reused by flows that resolve other users' roles, like the approver scan).
type requestAuth struct {
	actor    *models.User
	perms    authz.PermissionSet
	resolver *authz.Resolver
}

// loadActor derives the acting user from the token claims, verifies the
// account is active and resolves permissions. Writes the error response
// itself; callers bail out when ok is false.
func loadActor(c *gin.Context, users repositories.UserRepository, roles repositories.RoleRepository,
	log *logrus.Logger) (requestAuth, bool) {

	uid, ok := getStringFromCtx(c, "user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return requestAuth{}, false
	}

	actor, err := users.FindByID(c.Request.Context(), uid)
	if err != nil {
		log.Errorf("[auth][actor][err] id=%s: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		return requestAuth{}, false
	}
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return requestAuth{}, false
	}
	if !actor.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		return requestAuth{}, false
	}

	resolver := authz.NewResolver(roles)
	perms, err := resolver.Resolve(c.Request.Context(), actor.RoleKey)
	if err != nil {
		log.Errorf("[auth][resolve][err] role=%s: %v", actor.RoleKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		return requestAuth{}, false
	}

	return requestAuth{actor: actor, perms: perms, resolver: resolver}, true
}

// writeServiceError maps service-layer errors onto HTTP responses.
func writeServiceError(c *gin.Context, err error, fallback string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
