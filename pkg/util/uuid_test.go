package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashUUID(t *testing.T) {
	type cfg struct {
		Sizes []int
		Names []string
	}
	a := HashUUID(cfg{Sizes: []int{16, 32}, Names: []string{"fast"}})
	b := HashUUID(cfg{Sizes: []int{16, 32}, Names: []string{"fast"}})
	c := HashUUID(cfg{Sizes: []int{16, 64}, Names: []string{"fast"}})

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(3), id.Version())
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashUUID_Unencodable(t *testing.T) {
	assert.Empty(t, HashUUID(make(chan int)))
}
