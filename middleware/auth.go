package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
)

const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

// Authenticator verifies HS256 bearer tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
	admins map[string]struct{}
}

// NewAuthenticator builds an Authenticator. adminEmails is the allowlist
// checked by AdminOnly.
func NewAuthenticator(secret string, adminEmails []string) *Authenticator {
	a := &Authenticator{admins: make(map[string]struct{}, len(adminEmails))}
	if s := strings.TrimSpace(secret); s != "" {
		a.secret = []byte(s)
	}
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			a.admins[e] = struct{}{}
		}
	}
	return a
}

// ParseToken validates tokenStr and returns its claims.
func (a *Authenticator) ParseToken(tokenStr string) (jwt.MapClaims, error) {
	if a.secret == nil {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if v, err := c.Cookie("token"); err == nil {
		return v
	}
	return ""
}

// authenticate stores the caller's identity in the context. It reports
// whether a valid token was present.
func (a *Authenticator) authenticate(c *gin.Context) (bool, error) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return false, nil
	}
	claims, err := a.ParseToken(tokenStr)
	if err != nil {
		return false, err
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if userID == "" && email == "" {
		return false, fmt.Errorf("token carries no identity")
	}

	c.Set(UserIDKey, userID)
	c.Set(EmailKey, email)
	return true, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := a.authenticate(c)
		if !ok {
			msg := "Token is required"
			if err != nil {
				msg = "Invalid or expired token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg, "code": "unauthorized"})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is sent and lets
// anonymous or badly authenticated requests through as anonymous.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = a.authenticate(c)
		c.Next()
	}
}

// AdminOnly must run after RequireAuth.
func (a *Authenticator) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.admins[c.GetString(EmailKey)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "Admin access required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// GetBuyer returns the authenticated identity, empty for anonymous requests.
func GetBuyer(c *gin.Context) models.Buyer {
	return models.Buyer{Email: c.GetString(EmailKey), UserID: c.GetString(UserIDKey)}
}
