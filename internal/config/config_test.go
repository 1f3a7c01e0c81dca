package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DATA_DIR", "/var/lib/car")
	t.Setenv("LOAN_INTEREST_RATE", "0.005")
	t.Setenv("LOCK_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/car", cfg.DataDir)
	assert.Equal(t, "/var/lib/car/DEPCRED.db", cfg.Path(cfg.Files.Ledger))
	assert.Equal(t, "0.005", cfg.LoanInterestRate.String())
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.AllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a default secret")
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "interest rate as percentage",
			env:  map[string]string{"LOAN_INTEREST_RATE": "4"},
			want: "LOAN_INTEREST_RATE",
		},
		{
			name: "interest rate not a number",
			env:  map[string]string{"LOAN_INTEREST_RATE": "patru"},
			want: "LOAN_INTEREST_RATE",
		},
		{
			name: "production without secrets",
			env:  map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "", "OPERATOR_PASSWORD_HASH": ""},
			want: "JWT_SECRET",
		},
		{
			name: "no workers",
			env:  map[string]string{"WORKER_COUNT": "0"},
			want: "WORKER_COUNT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
