package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerSecretVerify(t *testing.T) {
	secret, err := NewPeerSecret("correct-horse-battery-staple")
	require.NoError(t, err)

	assert.True(t, secret.Verify("correct-horse-battery-staple"))
	assert.False(t, secret.Verify("wrong"))
}
