package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(ValidatorConfig{
		Secret: []byte("test-secret"),
		Issuer: "duel-platform",
	})
}

func TestSignAndValidate(t *testing.T) {
	v := newTestValidator()
	userID := uuid.New()

	token, err := v.Sign(userID, "alice", "free", time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Premium())
}

func TestValidateExpiredToken(t *testing.T) {
	v := newTestValidator()

	token, err := v.Sign(uuid.New(), "alice", "free", -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	v := newTestValidator()
	other := NewValidator(ValidatorConfig{Secret: []byte("other"), Issuer: "duel-platform"})

	token, err := other.Sign(uuid.New(), "alice", "free", time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPremiumPlans(t *testing.T) {
	assert.True(t, (&Claims{Plan: "pro"}).Premium())
	assert.True(t, (&Claims{Plan: "team"}).Premium())
	assert.False(t, (&Claims{Plan: "free"}).Premium())
	assert.False(t, (&Claims{}).Premium())
}
