package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType separates access from refresh tokens signed with the same secret.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateToken(tokenString string, want TokenType) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Claims carries identity only. Role and permissions are never read from a
// token; they are resolved from the store on every request.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// MeResponse is what an authenticated caller learns about itself.
type MeResponse struct {
	UserID               string   `json:"userId"`
	Email                string   `json:"email"`
	RoleID               string   `json:"roleId,omitempty"`
	RoleName             string   `json:"roleName,omitempty"`
	EffectivePermissions []string `json:"effectivePermissions"`
	AllowedPages         []string `json:"allowedPages"`
}
