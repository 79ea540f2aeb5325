package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	UserIDKey = "userID"
	TokenKey  = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []Verifier

func (cv ChainVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range cv {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

// RevocationChecker reports access tokens revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// Tokens found in revoked are rejected; revoked may be nil.
// On success the claims, the subject (as user id) and the raw token are stored on the context.
func AuthMiddleware(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, no token", nil)
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, invalid Authorization header", nil)
			return
		}

		if revoked != nil {
			black, err := revoked.IsRevoked(c.Request.Context(), token)
			if err != nil {
				response.Abort(c, http.StatusInternalServerError, "Token check failed", err)
				return
			}
			if black {
				response.Abort(c, http.StatusUnauthorized, "Not authorized, token revoked", nil)
				return
			}
		}

		verified, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, token failed", err)
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, token failed", "failed to parse claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, token failed", "token has no subject")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, sub)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// subjectKey picks the rate-limit key: authenticated subject when present, else client IP.
// Limiters only see the subject when mounted after AuthMiddleware.
func subjectKey(c *gin.Context) string {
	if sub := c.GetString(UserIDKey); sub != "" {
		return "sub:" + sub
	}
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
