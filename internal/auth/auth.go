package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/paylink/internal"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenGenerator issues and verifies the signed tokens carried by API clients.
type TokenGenerator interface {
	GenerateAccessToken(principal Principal) (string, error)
	GenerateRefreshToken(principal Principal) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Principal is the identity a token is minted for.
type Principal struct {
	UserID string
	Email  string
	Role   internal.Role
}

type AuthTokens struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	Role         internal.Role `json:"role"`
	RedirectTo   string        `json:"redirect_to"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) Session() internal.Session {
	return internal.Session{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   internal.ParseRole(c.Role),
	}
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
}

type RegisterResult struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Role  internal.Role `json:"role"`
}
