package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/config"
	"github.com/banditrecycle/server/identity"
	"github.com/gin-gonic/gin"
)

const (
	IdentityKey = "identity"
	TokenKey    = "token"

	sessionPrefix = "session:"
)

var (
	errMissingToken   = errors.New("missing token")
	errInvalidToken   = errors.New("invalid token")
	errSessionExpired = errors.New("session expired")
)

// SessionKey is the cache key that keeps a token alive until logout.
func SessionKey(token string) string { return sessionPrefix + token }

// Auth requires a valid Bearer JWT backed by a live session. A caller
// already resolved by OptionalAuth earlier in the chain is accepted as is.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !GetIdentity(ctx).IsAnonymous() {
			ctx.Next()
			return
		}
		id, token, err := authenticate(ctx, sec, c)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.Set(IdentityKey, id)
		ctx.Set(TokenKey, token)
		ctx.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and falls back to
// the anonymous identity otherwise. A token that is present but rejected
// still fails the request so clients notice their session ended.
func OptionalAuth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, token, err := authenticate(ctx, sec, c)
		switch {
		case errors.Is(err, errMissingToken):
			ctx.Set(IdentityKey, identity.Anonymous)
		case err != nil:
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		default:
			ctx.Set(IdentityKey, id)
			ctx.Set(TokenKey, token)
		}
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context, sec config.SecurityConfig, c cache.Cache) (identity.Identity, string, error) {
	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return identity.Anonymous, "", errMissingToken
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	claims, err := ParseToken(tokenStr, sec.JWTSecret)
	if err != nil {
		return identity.Anonymous, "", errInvalidToken
	}

	cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	owner, err := c.Get(cacheCtx, SessionKey(tokenStr))
	if err != nil || owner != claims.UserID {
		return identity.Anonymous, "", errSessionExpired
	}
	return identity.User(claims.UserID), tokenStr, nil
}

// GetIdentity returns the caller resolved by Auth or OptionalAuth.
func GetIdentity(c *gin.Context) identity.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	return identity.Anonymous
}

// GetUserID returns the signed-in user id, or "" for anonymous callers.
func GetUserID(c *gin.Context) string {
	uid, _ := GetIdentity(c).UserID()
	return uid
}

// GetToken returns the raw bearer token accepted for this request.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
