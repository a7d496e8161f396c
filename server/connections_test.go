package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionList(t *testing.T) {
	list := NewSessionList()
	assert.Equal(t, 0, list.Len())

	id := uuid.New()
	list.Add(&SessionInfo{ID: id, Addr: "127.0.0.1:1234"})
	assert.Equal(t, 1, list.Len())

	info, ok := list.Get(id)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:1234", info.Addr)

	_, ok = list.Get(uuid.New())
	assert.False(t, ok)

	list.Remove(id)
	assert.Equal(t, 0, list.Len())
}
