package chat

import (
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
)

func TestConnManagerRegisterUnregister(t *testing.T) {
	m := NewConnManager()
	c1 := &websocket.Conn{}
	c2 := &websocket.Conn{}

	assert.Equal(t, 0, m.Subscribers("chat1"))

	m.Register("chat1", c1)
	m.Register("chat1", c2)
	m.Register("chat2", c1)
	assert.Equal(t, 2, m.Subscribers("chat1"))
	assert.Equal(t, 1, m.Subscribers("chat2"))

	m.Unregister("chat1", c1)
	assert.Equal(t, 1, m.Subscribers("chat1"))

	m.Unregister("chat1", c2)
	assert.Equal(t, 0, m.Subscribers("chat1"))

	// Unregistering an unknown connection is a no-op.
	m.Unregister("chat1", c1)
	m.Unregister("missing", c1)
	assert.Equal(t, 1, m.Subscribers("chat2"))
}
