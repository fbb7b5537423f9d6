package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// GetPrincipal returns the authenticated caller. ok is false when the request
// did not pass through AuthRequired.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	id := c.GetString(ctxUserID)
	if id == "" {
		return Principal{}, false
	}
	return Principal{ID: id, Role: Role(c.GetString(ctxUserRole))}, true
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxUserID, p.ID)
	c.Set(ctxUserRole, string(p.Role))
}
