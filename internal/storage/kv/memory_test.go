package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set("k", []byte("v")))

	value, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, store.Remove("k"))
	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Removing an absent key is not an error.
	assert.NoError(t, store.Remove("k"))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()

	original := []byte("abc")
	require.NoError(t, store.Set("k", original))
	original[0] = 'x'

	stored, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), stored)

	stored[1] = 'y'
	again, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
