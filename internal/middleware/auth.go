package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const operatorKey = "operator"

var (
	errNoCredentials = errors.New("authorization header is required")
	errBadScheme     = errors.New("authorization header must use the Bearer scheme")
	errTokenExpired  = errors.New("token has expired")
	errTokenInvalid  = errors.New("invalid token")
)

// Claims identify the back-office operator. Older tokens only carry username.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *Claims) operator() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// Auth rejects requests without a valid operator token and stores the
// operator name for handlers that record an actor.
func Auth(jwtSecret string) gin.HandlerFunc {
	key := []byte(jwtSecret)
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err == nil {
			var claims *Claims
			if claims, err = parseClaims(raw, key); err == nil {
				c.Set(operatorKey, claims.operator())
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	}
}

// bearerToken reads the Authorization header. Report download links cannot
// set headers, so a token query parameter is accepted when the header is absent.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errNoCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadScheme
	}
	return token, nil
}

func parseClaims(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errTokenExpired
	case err != nil:
		return nil, errTokenInvalid
	}
	return claims, nil
}

// GetOperator returns the authenticated operator, or "" on public routes
func GetOperator(c *gin.Context) string {
	return c.GetString(operatorKey)
}
