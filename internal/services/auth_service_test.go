package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sjperalta/car-ledger-api/internal/config"
)

func newAuthConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWTSecret:            "test-secret",
		JWTExpirationHours:   1,
		OperatorUsername:     "casier",
		OperatorPasswordHash: string(hash),
	}
}

func TestAuthService_Login(t *testing.T) {
	cfg := newAuthConfig(t)
	service := NewAuthService(cfg)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid credentials", "casier", "secret-pass", false},
		{"wrong password", "casier", "nope", true},
		{"wrong username", "admin", "secret-pass", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr {
				assert.Nil(t, result)
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "casier", result.Operator)

			token, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})
			require.NoError(t, err)
			sub, err := token.Claims.GetSubject()
			require.NoError(t, err)
			assert.Equal(t, "casier", sub)
		})
	}
}

func TestAuthService_Login_NoPasswordConfigured(t *testing.T) {
	cfg := newAuthConfig(t)
	cfg.OperatorPasswordHash = ""

	result, err := NewAuthService(cfg).Login(context.Background(), "casier", "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
