package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetOperator(c))
	})

	valid := signToken(t, testSecret, jwt.MapClaims{
		"username": "casier", "sub": "casier", "exp": time.Now().Add(time.Hour).Unix(),
	})
	usernameOnly := signToken(t, testSecret, jwt.MapClaims{
		"username": "contabil", "exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "casier", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	foreign := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "casier", "exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name     string
		header   string
		query    string
		status   int
		operator string
	}{
		{name: "bearer token", header: "Bearer " + valid, status: http.StatusOK, operator: "casier"},
		{name: "username fallback", header: "Bearer " + usernameOnly, status: http.StatusOK, operator: "contabil"},
		{name: "query token for downloads", query: "?token=" + valid, status: http.StatusOK, operator: "casier"},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.operator, w.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger("/health"))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		id := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("kept from caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "desk-7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "desk-7", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "desk-7", w.Body.String())
	})
}
