package service_test

import (
	"testing"
	"time"

	"crewline/internal/apperr"
	"crewline/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := service.NewTokenService("test-secret")

	token, err := tokens.Issue("emp-42", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-42", userID)
}

func TestTokenService_VerifyRejectsWrongKey(t *testing.T) {
	issuer := service.NewTokenService("secret-a")
	verifier := service.NewTokenService("secret-b")

	token, err := issuer.Issue("emp-42", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestTokenService_VerifyRejectsExpired(t *testing.T) {
	tokens := service.NewTokenService("test-secret")

	token, err := tokens.Issue("emp-42", -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestTokenService_VerifyRejectsGarbage(t *testing.T) {
	tokens := service.NewTokenService("test-secret")

	_, err := tokens.Verify("not-a-jwt")
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}
