package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestService(t *testing.T) *Service {
	t.Setenv("FLEET_ACCESS_KEY", "fleet-secret")
	t.Setenv("FLEET_ACCESS_KEY_HASH", "")
	service, err := NewService()
	assert.NoError(t, err)
	return service
}

func TestNewService(t *testing.T) {
	service := newTestService(t)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)
}

func TestNewService_NoAccessKey(t *testing.T) {
	t.Setenv("FLEET_ACCESS_KEY", "")
	t.Setenv("FLEET_ACCESS_KEY_HASH", "")
	service, err := NewService()
	assert.ErrorIs(t, err, ErrNoAccessKey)
	assert.Nil(t, service)
}

func TestNewService_CustomExpiry(t *testing.T) {
	t.Setenv("FLEET_ACCESS_KEY", "fleet-secret")
	t.Setenv("JWT_EXPIRY", "2h")
	service, err := NewService()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Hour, service.tokenExp)
}

func TestService_CheckAccessKey(t *testing.T) {
	service := newTestService(t)

	assert.NoError(t, service.CheckAccessKey("fleet-secret"))
	assert.ErrorIs(t, service.CheckAccessKey("wrong"), ErrInvalidAccessKey)
	assert.ErrorIs(t, service.CheckAccessKey(""), ErrInvalidAccessKey)
}

func TestService_CheckAccessKey_Hashed(t *testing.T) {
	hash, err := HashAccessKey("fleet-secret")
	assert.NoError(t, err)
	assert.NotEqual(t, "fleet-secret", hash)

	t.Setenv("FLEET_ACCESS_KEY", "")
	t.Setenv("FLEET_ACCESS_KEY_HASH", hash)
	service, err := NewService()
	assert.NoError(t, err)

	assert.NoError(t, service.CheckAccessKey("fleet-secret"))
	assert.ErrorIs(t, service.CheckAccessKey("wrong"), ErrInvalidAccessKey)
}

func TestService_GenerateToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.GenerateToken()
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)

	token, _ := service.GenerateToken()

	// Test valid token
	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "fleet-session", claims.Subject)
	assert.Greater(t, claims.Exp, time.Now().Unix())

	// Bearer prefix is tolerated
	claims, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)

	// Test invalid token
	_, err = service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	t.Setenv("FLEET_ACCESS_KEY", "fleet-secret")
	t.Setenv("JWT_EXPIRY", "-1h")
	service, err := NewService()
	assert.NoError(t, err)

	token, _ := service.GenerateToken()
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("FLEET_ACCESS_KEY", "fleet-secret")
	t.Setenv("JWT_SECRET", "secret-one")
	serviceOne, _ := NewService()
	token, _ := serviceOne.GenerateToken()

	t.Setenv("JWT_SECRET", "secret-two")
	serviceTwo, _ := NewService()
	_, err := serviceTwo.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService(t)

	token, err := service.ExtractTokenFromHeader("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = service.ExtractTokenFromHeader("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ExtractTokenFromHeader("Basic abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ExtractTokenFromHeader("Bearer")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
