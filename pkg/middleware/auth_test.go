package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/sessions"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts exactly one token value
type fakeVerifier struct {
	good string
	sub  string
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == f.good {
		return &fakeToken{data: map[string]interface{}{"sub": f.sub, "email": "doc@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func goodVerifier() *fakeVerifier { return &fakeVerifier{good: "goodtoken", sub: "user1"} }

func serveAuth(t *testing.T, ver Verifier, revoked RevocationChecker, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", AuthMiddleware(ver, revoked), func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c), "claims": claims})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serveAuth(t, goodVerifier(), nil, "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Not authorized, no token", body["message"])
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, goodVerifier(), nil, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, goodVerifier(), nil, "Bearer ").Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, goodVerifier(), nil, "Bearer nope").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serveAuth(t, goodVerifier(), nil, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	assert.Equal(t, "user1", got["userId"])
	require.Contains(t, got, "claims")
}

func TestAuthMiddleware_MissingSubjectRejected(t *testing.T) {
	rw := serveAuth(t, &fakeVerifier{good: "nosub"}, nil, "Bearer nosub")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestChainVerifier_FallsThrough(t *testing.T) {
	chain := ChainVerifier{&fakeVerifier{good: "a", sub: "ua"}, nil, &fakeVerifier{good: "b", sub: "ub"}}

	tok, err := chain.Verify(context.Background(), "b")
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	assert.Equal(t, "ub", claims["sub"])

	_, err = chain.Verify(context.Background(), "c")
	require.Error(t, err)

	_, err = ChainVerifier{}.Verify(context.Background(), "a")
	require.Error(t, err)
}

func TestAuthMiddleware_RejectsRevokedToken(t *testing.T) {
	bl := sessions.NewMemoryBlacklist()
	require.NoError(t, bl.Revoke(context.Background(), "goodtoken", 5*time.Second))

	rw := serveAuth(t, goodVerifier(), bl, "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	assert.Contains(t, rw.Body.String(), "Not authorized, token revoked")

	require.Equal(t, http.StatusOK, serveAuth(t, &fakeVerifier{good: "fresh", sub: "user1"}, bl, "Bearer fresh").Code)
}

type failingChecker struct{}

func (failingChecker) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, fmt.Errorf("store down")
}

func TestAuthMiddleware_RevocationStoreError(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, serveAuth(t, goodVerifier(), failingChecker{}, "Bearer goodtoken").Code)
}

// multiVerifier treats the token itself as the subject.
type multiVerifier struct{}

func (multiVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	return &fakeToken{data: map[string]interface{}{"sub": raw}}, nil
}

func TestRateLimitAfterAuth_KeysByUser(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(multiVerifier{}, nil), RateLimitMiddleware(0.001, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	get := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+user)
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		return rw.Code
	}
	// same client IP throughout; buckets are per user
	require.Equal(t, http.StatusOK, get("keyed-user-a"))
	require.Equal(t, http.StatusOK, get("keyed-user-b"))
	require.Equal(t, http.StatusTooManyRequests, get("keyed-user-a"))
}

func TestCORSMiddleware(t *testing.T) {
	g := gin.New()
	g.Use(CORSMiddleware("http://localhost:3000, https://app.example.com"))
	g.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusNoContent, rw.Code)
	assert.Equal(t, "https://app.example.com", rw.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Empty(t, rw.Header().Get("Access-Control-Allow-Origin"))
}
