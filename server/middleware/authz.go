package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/authz"
)

// SubjectFunc extracts the authorization subject, usually a role, from a
// request context populated by Auth.
type SubjectFunc func(ctx context.Context) (string, bool)

// RequirePermission aborts with 403 unless the request's subject holds
// permission. It must run after Auth.
func RequirePermission(checker authz.Checker, subject SubjectFunc, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := subject(c.Request.Context())
		if !ok || !checker.HasPermission(sub, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
