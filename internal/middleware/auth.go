package middleware

import (
	"net/http"
	"strings"

	domainUser "robot-dispatch/internal/domain/user"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID  = "userID"
	ContextRobotID = "robotID"
	ContextEmail   = "email"
	ContextRole    = "role"
)

// AuthMiddleware resolves a bearer token into either a user or a robot
// identity.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(token, secret)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		if claims.Role == domainUser.RoleRobot && claims.RobotID == nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextRole, claims.Role)
		if claims.Role == domainUser.RoleRobot {
			c.Set(ContextRobotID, *claims.RobotID)
		} else {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	utils.CodedErrorResponse(c, http.StatusUnauthorized, string(appErrors.CodeUnauthorized), message)
	c.Abort()
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	return idFromContext(c, ContextUserID)
}

// CurrentRobotID returns the authenticated robot's id.
func CurrentRobotID(c *gin.Context) (uuid.UUID, bool) {
	return idFromContext(c, ContextRobotID)
}

func CurrentRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

func idFromContext(c *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := c.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
