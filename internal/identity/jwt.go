package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const supabaseAudience = "authenticated"

type supabaseClaims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTVerifier checks Supabase access tokens locally with the project's HS256 secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(supabaseAudience),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *JWTVerifier) VerifySession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}

	claims := &supabaseClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{
		UserID:         claims.Subject,
		Email:          claims.Email,
		Name:           firstNonEmpty(stringFromMap(claims.UserMetadata, "name"), stringFromMap(claims.UserMetadata, "full_name")),
		AvatarURL:      stringFromMap(claims.UserMetadata, "avatar_url"),
		EmailConfirmed: boolFromMap(claims.UserMetadata, "email_verified"),
	}, nil
}
