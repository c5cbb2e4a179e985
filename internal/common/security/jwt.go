package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Auth exposes the underlying verifier for jwtauth.Verifier.
func (i *TokenIssuer) Auth() *jwtauth.JWTAuth { return i.auth }

func (i *TokenIssuer) GenerateToken(user *model.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"lastname": user.LastName,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}
	_, tokenString, err := i.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the embedded actor.
func (i *TokenIssuer) Verify(tokenString string) (model.Actor, error) {
	token, err := jwtauth.VerifyToken(i.auth, tokenString)
	if err != nil {
		return model.Actor{}, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return model.Actor{}, fmt.Errorf("read token claims: %w", err)
	}
	return ActorFromClaims(claims)
}

func ActorFromClaims(claims map[string]interface{}) (model.Actor, error) {
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return model.Actor{}, errors.New("sub claim is missing or not a string")
	}
	role, ok := claims["role"].(string)
	if !ok || !model.IsValidRole(role) {
		return model.Actor{}, errors.New("role claim is missing or invalid")
	}
	email, _ := claims["email"].(string)
	lastName, _ := claims["lastname"].(string)
	return model.Actor{ID: id, Email: email, LastName: lastName, Role: role}, nil
}
