package middleware

import (
	"net/http"
	"strings"
	"time"

	"asset-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	BaseID int    `json:"base_id"`
	jwt.RegisteredClaims
}

// NewToken signs a token for the given identity.
func NewToken(secret string, actor *models.Actor, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: actor.UserID,
		Name:   actor.Name,
		Role:   actor.Role,
		BaseID: actor.BaseID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Auth validates the Bearer token and stores the resulting actor on the
// context. Requests without a valid token get a 401.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing or malformed authorization header",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		if !models.ValidRole(claims.Role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unrecognized role",
			})
			return
		}

		c.Set(actorKey, &models.Actor{
			UserID: claims.UserID,
			Name:   claims.Name,
			Role:   claims.Role,
			BaseID: claims.BaseID,
		})
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			return
		}
		if !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient role",
			})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or nil outside Auth.
func ActorFrom(c *gin.Context) *models.Actor {
	value, exists := c.Get(actorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.Actor)
	if !ok {
		return nil
	}
	return actor
}
