package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	v := NewTokenVerifier("s3cret")

	token, err := v.Sign(42, time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenVerifier("one").Sign(1, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenVerifier("two").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewTokenVerifier("s3cret").WithClock(func() time.Time { return issued })
	token, err := v.Sign(7, time.Minute)
	require.NoError(t, err)

	later := NewTokenVerifier("s3cret").WithClock(func() time.Time { return issued.Add(time.Hour) })
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	token, err := v.Sign(0, 0)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: 1}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewTokenVerifier("s3cret").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoSecret(t *testing.T) {
	v := NewTokenVerifier("")
	_, err := v.Sign(1, 0)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = v.Verify("anything")
	assert.ErrorIs(t, err, ErrNoSecret)
}
