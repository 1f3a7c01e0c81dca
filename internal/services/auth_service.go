package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// AuthService authenticates the back-office operator. The operator name
// becomes the token subject and is recorded as the actor of conversions.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks the operator credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.cfg.OperatorPasswordHash == "" {
		logger.Warn("Login attempted but no operator password is configured")
		return nil, ErrUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.OperatorUsername)) != 1 {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorPasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour)
	token, err := s.generateJWT(username, expiresAt)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	logger.Info("Operator logged in", "operator", username)
	return &LoginResult{Token: token, Operator: username, ExpiresAt: expiresAt}, nil
}

// generateJWT creates a new JWT token for the operator
func (s *AuthService) generateJWT(username string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"sub":      username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
