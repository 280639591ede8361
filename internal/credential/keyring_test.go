package credential

import (
	"errors"
	"fmt"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalMissingKeyIsEmpty(t *testing.T) {
	g := GetterFunc(func(key string) (string, error) {
		return "", fmt.Errorf("getting credential %q: %w", key, keyring.ErrKeyNotFound)
	})
	v, err := Optional(g, KeyFirebaseAuth)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestOptionalEmptyKeySkipsLookup(t *testing.T) {
	called := false
	g := GetterFunc(func(string) (string, error) {
		called = true
		return "x", nil
	})
	v, err := Optional(g, "")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.False(t, called)
}

func TestOptionalPassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("locked")
	g := GetterFunc(func(string) (string, error) { return "", boom })
	_, err := Optional(g, KeyS3Secret)
	assert.ErrorIs(t, err, boom)
}

func TestOptionalReturnsValue(t *testing.T) {
	g := GetterFunc(func(key string) (string, error) { return "secret-" + key, nil })
	v, err := Optional(g, KeyIMAPPassword)
	require.NoError(t, err)
	assert.Equal(t, "secret-imap-password", v)
}
