package keymutex_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/pkg/keymutex"
)

func TestKeyMutex(t *testing.T) {
	t.Run("Should serialize holders of the same key", func(t *testing.T) {
		km := keymutex.New[string]()
		counter := 0

		var wg sync.WaitGroup
		for range 100 {
			wg.Go(func() {
				unlock, err := km.Lock(context.Background(), "a")
				if !assert.NoError(t, err) {
					return
				}
				defer unlock()

				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			})
		}
		wg.Wait()

		assert.Equal(t, 100, counter)
		assert.Equal(t, 0, km.Len())
	})

	t.Run("Should not block different keys", func(t *testing.T) {
		km := keymutex.New[string]()

		unlockA, err := km.Lock(context.Background(), "a")
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		unlockB, err := km.Lock(ctx, "b")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("Should give up when context is done", func(t *testing.T) {
		km := keymutex.New[int]()

		unlock, err := km.Lock(context.Background(), 1)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = km.Lock(ctx, 1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		assert.Equal(t, 0, km.Len())
	})

	t.Run("Should tolerate double unlock", func(t *testing.T) {
		km := keymutex.New[string]()

		unlock, err := km.Lock(context.Background(), "a")
		require.NoError(t, err)
		unlock()
		unlock()

		unlock, err = km.Lock(context.Background(), "a")
		require.NoError(t, err)
		unlock()
		assert.Equal(t, 0, km.Len())
	})
}
