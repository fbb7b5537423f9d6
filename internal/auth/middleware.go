package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/response"
)

var (
	ErrMissingToken = apperror.New(http.StatusUnauthorized, apperror.KindUnauthenticated, "missing Authorization header")
	ErrBadHeader    = apperror.New(http.StatusUnauthorized, apperror.KindUnauthenticated, "invalid Authorization header format")
	ErrInvalidToken = apperror.New(http.StatusUnauthorized, apperror.KindUnauthenticated, "invalid or expired token")
	ErrAdminOnly    = apperror.New(http.StatusForbidden, apperror.KindForbidden, "forbidden: admin access required")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, ErrMissingToken)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Abort(c, ErrBadHeader)
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			response.Abort(c, ErrInvalidToken)
			return
		}

		// Store the principal into Gin context for later handlers.
		setPrincipal(c, claims.Principal())

		c.Next()
	}
}

// RequireAdmin ensures the authenticated principal is an admin.
// It MUST be used after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Abort(c, ErrMissingToken)
			return
		}
		if !p.IsAdmin() {
			response.Abort(c, ErrAdminOnly)
			return
		}
		c.Next()
	}
}
