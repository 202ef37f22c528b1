package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "folio-test")

	bearer, err := svc.Issue("addr-alice", time.Hour)
	require.NoError(t, err)

	caller, err := svc.ValidateToken(bearer)
	require.NoError(t, err)
	assert.Equal(t, models.Address("addr-alice"), caller)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-signing-key", "folio-test")

	bearer, err := svc.Issue("addr-alice", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(bearer)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateWrongKey(t *testing.T) {
	issuer := NewService("key-one", "folio-test")
	verifier := NewService("key-two", "folio-test")

	bearer, err := issuer.Issue("addr-alice", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(bearer)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "folio-test")
	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
