package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkerrigan/roomrelay/internal/dependencies/mocks"
	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/testutil"
)

// fakeLink records written frames and can simulate a stuck peer
type fakeLink struct {
	mu     sync.Mutex
	frames [][]byte
	block  chan struct{}
	closed bool
}

func (l *fakeLink) WriteFrame(frame []byte) error {
	if l.block != nil {
		<-l.block
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, frame)
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLink) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *fakeLink) frameCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

func newRegistry() *Registry {
	return NewRegistry(mocks.NewMockRandom(), testutil.NopLogger())
}

func TestRegistryAddAssignsUniqueIDs(t *testing.T) {
	r := newRegistry()

	a := r.Add(&fakeLink{})
	b := r.Add(&fakeLink{})

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, r.Count())
}

func TestRegistrySendDeliversFrame(t *testing.T) {
	r := newRegistry()
	link := &fakeLink{}
	c := r.Add(link)

	require.NoError(t, r.Send(c.ID(), []byte{1, 2, 3}))

	assert.Eventually(t, func() bool {
		return link.frameCount() == 1
	}, time.Second, time.Millisecond)
}

func TestRegistrySendUnknownConn(t *testing.T) {
	r := newRegistry()

	err := r.Send(model.ConnID("nope"), []byte{1})
	assert.ErrorIs(t, err, model.ErrConnNotFound)
}

func TestRegistryRemoveClosesLink(t *testing.T) {
	r := newRegistry()
	link := &fakeLink{}
	c := r.Add(link)

	r.Remove(c.ID())

	assert.Equal(t, 0, r.Count())
	assert.True(t, link.isClosed())
	assert.ErrorIs(t, r.Send(c.ID(), []byte{1}), model.ErrConnNotFound)
}

func TestRegistryFullQueueDropsConnection(t *testing.T) {
	r := newRegistry()
	link := &fakeLink{block: make(chan struct{})}
	c := r.Add(link)

	// First frame parks the writer on the blocked link; the rest fill the
	// queue until it overflows and the connection is dropped.
	for i := 0; i < sendQueueSize+2; i++ {
		require.NoError(t, r.Send(c.ID(), []byte{byte(i)}))
	}

	assert.Eventually(t, link.isClosed, time.Second, time.Millisecond)
	close(link.block)
}

func TestRegistryCloseAll(t *testing.T) {
	r := newRegistry()
	a := &fakeLink{}
	b := &fakeLink{}
	r.Add(a)
	r.Add(b)

	r.CloseAll()

	assert.Equal(t, 0, r.Count())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}
