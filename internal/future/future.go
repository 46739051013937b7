package future

import (
	"context"
	"sync"
)

// Future holds the outcome of a single asynchronous operation. It completes
// exactly once, either with a value or with an error.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// Resolver completes the Future it was created with. It reports whether this
// call was the one that completed it.
type Resolver[T any] func(value T, err error) bool

// New returns a pending Future together with the function that completes it.
func New[T any]() (*Future[T], Resolver[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a Future already completed with value.
func Resolved[T any](value T) *Future[T] {
	f, resolve := New[T]()
	resolve(value, nil)
	return f
}

// Failed returns a Future already completed with err.
func Failed[T any](err error) *Future[T] {
	f, resolve := New[T]()
	var zero T
	resolve(zero, err)
	return f
}

// Go runs fn on a new goroutine and completes the returned Future with its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := New[T]()
	go func() {
		resolve(fn())
	}()
	return f
}

func (f *Future[T]) resolve(value T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the Future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Subscribe registers fn to be called with the result once the Future
// completes. fn runs on its own goroutine and is called exactly once.
func (f *Future[T]) Subscribe(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}
