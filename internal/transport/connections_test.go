package transport

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
)

func TestConnectionsRegisterUnregister(t *testing.T) {
	t.Parallel()

	m := NewConnections()
	conn := &websocket.Conn{}
	m.Register("s1", conn)
	assert.Same(t, conn, m.get("s1"))
	assert.Equal(t, 1, m.Len())

	m.Unregister("s1", conn)
	assert.Nil(t, m.get("s1"))
	assert.Equal(t, 0, m.Len())
}

func TestConnectionsUnregisterStale(t *testing.T) {
	t.Parallel()

	m := NewConnections()
	stale := &websocket.Conn{}
	current := &websocket.Conn{}
	m.Register("s1", stale)
	m.Register("s1", current)

	m.Unregister("s1", stale)
	assert.Same(t, current, m.get("s1"))
}

func TestConnectionsConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := NewConnections()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "s" + strconv.Itoa(i)
			conn := &websocket.Conn{}
			m.Register(id, conn)
			m.get(id)
			m.Unregister(id, conn)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}
