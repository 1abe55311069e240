package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceRegistry_Transitions(t *testing.T) {
	p := NewPresenceRegistry()

	assert.True(t, p.Register("u1", "c1"), "first connection flips the user online")
	assert.False(t, p.Register("u1", "c2"), "second connection is not a transition")
	assert.True(t, p.IsOnline("u1"))
	assert.Len(t, p.ConnectionsFor("u1"), 2)

	assert.False(t, p.Unregister("u1", "c1"), "one connection remains")
	assert.True(t, p.IsOnline("u1"))
	assert.True(t, p.Unregister("u1", "c2"), "last connection flips the user offline")
	assert.False(t, p.IsOnline("u1"))
	assert.Empty(t, p.OnlineUsers())
}

func TestPresenceRegistry_UnknownUnregister(t *testing.T) {
	p := NewPresenceRegistry()

	assert.False(t, p.Unregister("ghost", "c1"))

	p.Register("u1", "c1")
	assert.False(t, p.Unregister("u1", "other-conn"))
	assert.True(t, p.IsOnline("u1"))
}

func TestPresenceRegistry_Reset(t *testing.T) {
	p := NewPresenceRegistry()
	p.Register("u1", "c1")
	p.Register("u2", "c2")

	p.Reset()

	assert.Empty(t, p.OnlineUsers())
	assert.False(t, p.IsOnline("u1"))
}

func TestPresenceRegistry_ConcurrentRegister(t *testing.T) {
	p := NewPresenceRegistry()

	const users = 8
	const connsPerUser = 50

	var wg sync.WaitGroup
	transitions := make([]int64, users)
	var mu sync.Mutex

	for u := 0; u < users; u++ {
		for c := 0; c < connsPerUser; c++ {
			wg.Add(1)
			go func(u, c int) {
				defer wg.Done()
				if p.Register(fmt.Sprintf("u%d", u), fmt.Sprintf("c%d", c)) {
					mu.Lock()
					transitions[u]++
					mu.Unlock()
				}
			}(u, c)
		}
	}
	wg.Wait()

	// Exactly one register per user may observe the offline→online edge.
	for u := 0; u < users; u++ {
		assert.Equal(t, int64(1), transitions[u])
		assert.Len(t, p.ConnectionsFor(fmt.Sprintf("u%d", u)), connsPerUser)
	}
	assert.Len(t, p.OnlineUsers(), users)
}
