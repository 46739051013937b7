package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCompletesOnce(t *testing.T) {
	f, resolve := New[int]()

	require.True(t, resolve(1, nil))
	require.False(t, resolve(2, errors.New("late")))

	value, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestResolvedAndFailed(t *testing.T) {
	value, err := Resolved("ok").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	boom := errors.New("boom")
	_, err = Failed[string](boom).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAwaitHonoursContext(t *testing.T) {
	f, _ := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-f.Done():
		t.Fatalf("future must stay pending")
	default:
	}
}

func TestSubscribeRunsAfterCompletion(t *testing.T) {
	f, resolve := New[int]()
	got := make(chan int, 1)
	f.Subscribe(func(v int, err error) {
		assert.NoError(t, err)
		got <- v
	})

	select {
	case <-got:
		t.Fatalf("subscriber called before completion")
	case <-time.After(10 * time.Millisecond):
	}

	resolve(42, nil)

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatalf("subscriber was not called")
	}
}

func TestGo(t *testing.T) {
	f := Go(func() (string, error) { return "done", nil })
	value, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}
