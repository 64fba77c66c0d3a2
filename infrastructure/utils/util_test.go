package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseState(t *testing.T) {
	state, err := SignState("user-1", "instagram", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, state)

	userID, err := ParseState(state, "instagram", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseStateWrongPlatform(t *testing.T) {
	state, err := SignState("user-1", "instagram", "secret")
	require.NoError(t, err)

	_, err = ParseState(state, "tiktok", "secret")
	assert.Error(t, err)
}

func TestParseStateTampered(t *testing.T) {
	state, err := SignState("user-1", "tiktok", "secret")
	require.NoError(t, err)

	_, err = ParseState(state, "tiktok", "other-secret")
	assert.Error(t, err)

	_, err = ParseState(state+"x", "tiktok", "secret")
	assert.Error(t, err)
}
