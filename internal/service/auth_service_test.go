package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	svc := NewAuthService("hunter2", "test-secret")

	token, err := svc.Login("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.NoError(t, svc.ValidateToken(token))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewAuthService("hunter2", "test-secret")

	tests := []struct {
		name     string
		password string
	}{
		{"wrong password", "hunter3"},
		{"empty password", ""},
		{"prefix only", "hunter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := NewAuthService("hunter2", "test-secret")

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, svc.ValidateToken("not-a-token"), ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService("hunter2", "other-secret")
		token, err := other.Login("hunter2")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.MapClaims{
			"role": "admin",
			"iat":  time.Now().Add(-2 * time.Hour).Unix(),
			"exp":  time.Now().Add(-time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
	})

	t.Run("missing role", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		claims := jwt.MapClaims{
			"role": "admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
	})
}
