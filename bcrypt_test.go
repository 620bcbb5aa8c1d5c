package crm_test

import (
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := crm.NewBcryptHasher(0)

	hash, err := hasher.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, hasher.ComparePasswordAndHash("correct horse battery staple", hash))

	err = hasher.ComparePasswordAndHash("wrong password", hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrMismatchedHashAndPassword)
}

func TestBcryptHasherRejectsEmptyPassword(t *testing.T) {
	hasher := crm.NewBcryptHasher(0)

	_, err := hasher.HashPassword("")
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrNoEmptyString)
}

func TestBcryptHasherHashesAreSalted(t *testing.T) {
	hasher := crm.NewBcryptHasher(0)

	first, err := hasher.HashPassword("same password")
	require.NoError(t, err)
	second, err := hasher.HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
