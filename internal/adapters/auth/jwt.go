package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/ports"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of every token this package signs and accepts.
const Issuer = "tradejournal"

// MinSecretLength is the shortest HMAC key accepted.
const MinSecretLength = 16

// JWTResolver implements ports.IdentityResolver with HS256-signed tokens whose
// subject is the user id.
type JWTResolver struct {
	secret []byte
	now    func() time.Time
}

// NewJWTResolver creates a resolver signing with secret.
func NewJWTResolver(secret string) (*JWTResolver, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	return &JWTResolver{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for userID valid for ttl.
func (r *JWTResolver) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	now := r.now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve validates credential and returns its subject.
func (r *JWTResolver) Resolve(_ context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", ports.Unauthenticated("No authorization token provided")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims,
		func(t *jwt.Token) (interface{}, error) { return r.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", &ports.Error{Kind: ports.KindUnauthenticated, Message: "Token has expired", Err: err}
		}
		return "", &ports.Error{Kind: ports.KindUnauthenticated, Message: "Invalid token", Err: err}
	}
	if claims.Subject == "" {
		return "", ports.Unauthenticated("Invalid token")
	}
	return claims.Subject, nil
}
