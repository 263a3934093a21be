package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := With(ctx, m, "draft:1", func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	a, err := m.Obtain(ctx, "a")
	require.NoError(t, err)
	b, err := m.Obtain(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Release(ctx))
	assert.Equal(t, 0, m.Len())
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	held, err := m.Obtain(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Obtain(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotObtained))

	require.NoError(t, held.Release(context.Background()))
	// double release is a no-op
	require.NoError(t, held.Release(context.Background()))
	assert.Equal(t, 0, m.Len())
}

func TestWithPropagatesError(t *testing.T) {
	m := NewKeyedMutex()
	boom := errors.New("boom")
	err := With(context.Background(), m, "k", func() error { return boom })
	assert.Equal(t, boom, err)
	assert.Equal(t, 0, m.Len())
}
