// Package storetest provides Store wrappers for exercising failure and
// interleaving behaviour of the facades built on top of store.Store.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
)

// ErrInjected is returned by Failing.
var ErrInjected = errors.New("injected store failure")

// Failing wraps a Store and fails reads and/or writes on demand.
type Failing struct {
	store.Store

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	getCalls int
	setCalls int
}

// NewFailing wraps inner.
func NewFailing(inner store.Store) *Failing { return &Failing{Store: inner} }

// FailGets toggles read failures.
func (f *Failing) FailGets(v bool) { f.mu.Lock(); f.failGet = v; f.mu.Unlock() }

// FailSets toggles write failures.
func (f *Failing) FailSets(v bool) { f.mu.Lock(); f.failSet = v; f.mu.Unlock() }

// GetCalls reports how many Get calls reached the wrapper.
func (f *Failing) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// SetCalls reports how many Set calls reached the wrapper.
func (f *Failing) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *Failing) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.getCalls++
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *Failing) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Set(ctx, key, value)
}

// ReadBarrier wraps a Store so that the first n Get calls for key block
// until all n have completed their read. It forces n concurrent
// read-modify-write sequences to all observe the same snapshot before any
// of them writes.
type ReadBarrier struct {
	store.Store

	key  string
	wg   sync.WaitGroup
	mu   sync.Mutex
	left int
}

// NewReadBarrier wraps inner with a barrier of n readers on key.
func NewReadBarrier(inner store.Store, key string, n int) *ReadBarrier {
	b := &ReadBarrier{Store: inner, key: key, left: n}
	b.wg.Add(n)
	return b
}

func (b *ReadBarrier) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.Store.Get(ctx, key)
	if key != b.key {
		return v, err
	}
	b.mu.Lock()
	gated := b.left > 0
	if gated {
		b.left--
	}
	b.mu.Unlock()
	if gated {
		b.wg.Done()
		b.wg.Wait()
	}
	return v, err
}
