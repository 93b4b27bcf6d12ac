package middleware

import (
	"net/http"
	"slices"

	domainUser "robot-dispatch/internal/domain/user"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" || !slices.Contains(allowedRoles, role) {
			utils.CodedErrorResponse(c, http.StatusForbidden, string(appErrors.CodeForbidden), "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleAdmin)
}

// RobotOnly admits robot tokens; they always carry a robot id.
func RobotOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleRobot)
}

// UsersOnly admits human accounts of any role.
func UsersOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleUser, domainUser.RoleAdmin)
}
