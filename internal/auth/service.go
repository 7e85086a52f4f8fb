package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserStore loads users with their role joined from the store.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users          UserStore
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(users UserStore, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// NewJWTTokenGenerator signs both token types with one HS256 secret.
func NewJWTTokenGenerator(secret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		Issuer:          "school-admin",
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return AuthTokens{}, errors.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Info("login rejected", "user_id", u.ID)
		return AuthTokens{}, errors.ErrInvalidCredentials
	}
	if !u.IsActiveUser() {
		return AuthTokens{}, errors.ErrUserInactive
	}

	return s.issue(u)
}

// RefreshTokens validates refresh token and returns new tokens. The user is
// reloaded so a deactivated account cannot keep refreshing.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.loadActiveUser(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(u)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
}

// ResolvePrincipal turns an access token into the caller, with the role
// joined fresh from the store.
func (s *Service) ResolvePrincipal(ctx context.Context, tokenString string) (rbac.Principal, error) {
	if tokenString == "" {
		return rbac.Principal{}, errors.ErrMissingToken
	}
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return rbac.Principal{}, err
	}

	u, err := s.loadActiveUser(ctx, claims.UserID)
	if err != nil {
		return rbac.Principal{}, err
	}
	return u.Assignment().Principal(u.Email), nil
}

func (s *Service) loadActiveUser(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActiveUser() {
		return nil, errors.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issue(u *user.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign refresh token", err)
	}

	tokens := AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if g, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		tokens.ExpiresIn = int64(g.AccessTokenTTL.Seconds())
	}
	return tokens, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeAccess, j.AccessTokenTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeRefresh, j.RefreshTokenTTL)
}

func (j *JWTTokenGenerator) sign(userID, email string, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
			Issuer:    j.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ValidateToken checks signature, expiry and that the token is of the wanted type.
func (j *JWTTokenGenerator) ValidateToken(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if stdErrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.TokenType != want {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
