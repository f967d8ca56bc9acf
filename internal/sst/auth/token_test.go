package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenWindow(t *testing.T) {
	issuedAt := time.Now().Truncate(time.Second)
	tokenString, err := GenerateToken(12, "admin", "secret", issuedAt, DefaultTokenTTL)
	require.NoError(t, err)

	claims, err := validateToken(tokenString, "secret")
	require.NoError(t, err)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, exp.Sub(iat.Time))

	actor, err := actorFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: 12, Role: "admin"}, actor)
}

func TestValidateToken(t *testing.T) {
	const validSecret = "test-secret"
	validTokenString := signToken(t, validSecret, jwt.MapClaims{
		"sub": "user123",
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	})

	tests := []struct {
		name        string
		tokenString string
		secret      string
		wantValid   bool
	}{
		{
			name:        "valid token",
			tokenString: validTokenString,
			secret:      validSecret,
			wantValid:   true,
		},
		{
			name:        "invalid signature",
			tokenString: validTokenString,
			secret:      "wrong-secret",
			wantValid:   false,
		},
		{
			name:        "expired token",
			tokenString: signToken(t, validSecret, jwt.MapClaims{"exp": time.Now().Add(-1 * time.Hour).Unix()}),
			secret:      validSecret,
			wantValid:   false,
		},
		{
			name:        "missing expiry",
			tokenString: signToken(t, validSecret, jwt.MapClaims{"sub": "user123"}),
			secret:      validSecret,
			wantValid:   false,
		},
		{
			name:        "malformed token",
			tokenString: "invalid.token.string",
			secret:      validSecret,
			wantValid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := validateToken(tt.tokenString, tt.secret)

			if tt.wantValid {
				if err != nil {
					t.Errorf("expected valid token, got error: %v", err)
				}
				if claims["sub"] != "user123" {
					t.Error("claims not properly parsed")
				}
			} else if err == nil {
				t.Error("expected invalid token, got no error")
			}
		})
	}
}

func TestActorFromClaimsRejectsBadSubject(t *testing.T) {
	for _, sub := range []interface{}{nil, "", "abc", "0"} {
		claims := jwt.MapClaims{}
		if sub != nil {
			claims["sub"] = sub
		}
		_, err := actorFromClaims(claims)
		assert.Error(t, err, "subject %v", sub)
	}
}
