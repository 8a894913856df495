package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Principal is the authenticated caller attached to every request and
// realtime connection.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// Roles known to the platform.
const (
	RolePatient      = "patient"
	RoleDoctor       = "doctor"
	RoleHealthWorker = "health_worker"
	RoleAdmin        = "admin"
)

// TokenVerifier validates bearer tokens issued by the identity service.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a verifier for HMAC-signed tokens. The secret is
// mandatory configuration; there is no embedded fallback.
func NewJWTVerifier(secret string) (TokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &jwtVerifier{secret: []byte(secret)}, nil
}

func (v *jwtVerifier) Verify(tokenStr string) (*Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing user_id claim")
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing role claim")
	}

	return &Principal{ID: userID, Role: role}, nil
}

// SignToken issues an HMAC token for a principal. Issuance lives in the
// identity service; this helper exists for local tooling and tests.
func SignToken(secret string, principal *Principal, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": principal.ID.String(),
		"role":    principal.Role,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
