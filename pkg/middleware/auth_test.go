package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestEngine(cfg *config.Config) (*gin.Engine, *string) {
	var seenOperator string
	engine := gin.New()
	engine.GET("/protected", AuthMiddleware(cfg), func(c *gin.Context) {
		seenOperator = c.GetString("operatorID")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine, &seenOperator
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JWT.Secret = "test-secret"

	validClaims := Claims{
		OperatorID: "op-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + signToken(t, "test-secret", validClaims),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Authorization header is required",
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic abc123",
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Invalid token",
		},
		{
			name:       "wrong secret",
			authHeader: "Bearer " + signToken(t, "other-secret", validClaims),
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Invalid token",
		},
		{
			name: "expired token",
			authHeader: "Bearer " + signToken(t, "test-secret", Claims{
				OperatorID: "op-1",
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}),
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Token has expired",
		},
		{
			name: "missing operator id",
			authHeader: "Bearer " + signToken(t, "test-secret", Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}),
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Invalid token",
		},
		{
			name: "missing expiry",
			authHeader: "Bearer " + signToken(t, "test-secret", Claims{
				OperatorID: "op-1",
			}),
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, seenOperator := authTestEngine(cfg)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErr != "" {
				assert.Contains(t, w.Body.String(), tt.wantErr)
			} else {
				assert.Equal(t, "op-1", *seenOperator)
			}
		})
	}
}
