package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adityakmrtiwari/CliNote/internal/config"
	"github.com/adityakmrtiwari/CliNote/internal/models"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
)

// GenerateAccessToken creates a signed HS256 JWT whose subject is the user id.
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("JWT secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// mapToken exposes verified JWT claims through middleware.Token.
type mapToken struct {
	claims jwt.MapClaims
}

func (t *mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verifier checks access tokens issued by GenerateAccessToken.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) parse(raw string) (jwt.MapClaims, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("JWT secret is not configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, errors.New("token has no expiry")
	}
	return claims, nil
}

// Verify implements middleware.Verifier.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := v.parse(raw)
	if err != nil {
		return nil, err
	}
	return &mapToken{claims: claims}, nil
}

// Remaining returns how long a valid token has left; used to size blacklist entries.
func (v *Verifier) Remaining(raw string) (time.Duration, error) {
	claims, err := v.parse(raw)
	if err != nil {
		return 0, err
	}
	exp, _ := claims.GetExpirationTime()
	return time.Until(exp.Time), nil
}
