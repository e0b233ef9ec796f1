package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rinniizz/crudapi/internal/models"
)

// Verification failures. They are distinct so callers can tell an expired
// token apart from a forged or malformed one.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns the lifetime given to issued tokens.
func (tm *TokenManager) Expiry() time.Duration {
	return tm.expiry
}

// Issue signs a token for the given identity with a fresh expiry
func (tm *TokenManager) Issue(userID int64, email string, role models.Role) (string, error) {
	now := tm.now()

	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and validity window and returns the claims.
// It returns ErrTokenExpired or ErrTokenInvalid on failure.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Decode parses claims without checking the signature or expiry. It must not
// be used for authorization decisions. Returns nil for malformed input.
func (tm *TokenManager) Decode(tokenString string) *models.TokenClaims {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
