package session

import (
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/m300/preview"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *Session {
	return New(&preview.Recorder{})
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestStore(t *testing.T) {
	st := NewStore(newSession)

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := st.New()
			assert.NoError(t, err)
			ids <- s.ID
		}()
	}
	wg.Wait()
	close(ids)
	assert.Equal(t, 50, st.Len())

	for id := range ids {
		s, err := st.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, s.ID)
	}
}

func TestStoreMissing(t *testing.T) {
	st := NewStore(newSession)
	s, err := st.New()
	require.NoError(t, err)
	st.Delete(s.ID)

	_, err = st.Get(s.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	st := NewStore(newSession, WithIdleTimeout(time.Minute))
	st.now = clock.now

	idle, err := st.New()
	require.NoError(t, err)
	busy, err := st.New()
	require.NoError(t, err)

	clock.t = clock.t.Add(40 * time.Second)
	_, err = st.Get(busy.ID)
	require.NoError(t, err)

	clock.t = clock.t.Add(30 * time.Second)
	_, err = st.Get(idle.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, 1, st.Expire())
	assert.Equal(t, 1, st.Len())
	_, err = st.Get(busy.ID)
	assert.NoError(t, err)
}

func TestStoreCap(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	st := NewStore(newSession, WithMaxSessions(2), WithIdleTimeout(time.Minute))
	st.now = clock.now

	for i := 0; i < 2; i++ {
		_, err := st.New()
		require.NoError(t, err)
	}
	_, err := st.New()
	assert.True(t, errors.Is(err, ErrStoreFull))
	assert.Equal(t, 2, st.Len())

	// idle sessions make room
	clock.t = clock.t.Add(2 * time.Minute)
	_, err = st.New()
	assert.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}
