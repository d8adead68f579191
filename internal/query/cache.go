// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package query holds the client-side server-state layer: a keyed cache with
// in-flight de-duplication and invalidation, plus a debouncer for user input.
package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle of a cache entry.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of one entry. Data keeps the last good value even when
// a later fetch failed or the entry went stale.
type State[T any] struct {
	Data      T
	Status    Status
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool
}

// Loader produces the value for a key.
type Loader[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	key   Key
	state State[T]
	// gen is bumped on invalidation; results from older flights are dropped.
	gen uint64
}

type observer[T any] struct {
	key  Key
	load Loader[T]
	refs int
}

// Cache is a keyed store of asynchronous results. At most one loader runs per
// exact key at a time; concurrent callers for that key share its result.
type Cache[T any] struct {
	mu        sync.Mutex
	entries   map[string]*entry[T]
	observers map[string]*observer[T]
	subs      map[int]chan Key
	nextSub   int
	closed    bool

	group singleflight.Group
	clone func(T) T
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithClone sets the function used to copy values handed out by the cache, so
// callers never share a reference with the stored entry.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(c *Cache[T]) { c.clone = clone }
}

// WithClock overrides time.Now for UpdatedAt stamps.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) { c.now = now }
}

// NewCache creates an empty cache. Call Close to stop background refetches.
func NewCache[T any](opts ...Option[T]) *Cache[T] {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache[T]{
		entries:   make(map[string]*entry[T]),
		observers: make(map[string]*observer[T]),
		subs:      make(map[int]chan Key),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache[T]) copy(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// Read returns a snapshot of the entry for key. Unknown keys read as pending.
func (c *Cache[T]) Read(key Key) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return State[T]{Status: StatusPending}
	}
	s := e.state
	s.Data = c.copy(s.Data)
	return s
}

// Fetch returns the cached value when it is ready and fresh. Otherwise it
// runs load, joining an in-flight call for the same key if there is one,
// stores the outcome and notifies subscribers. A result superseded by
// Invalidate is never returned; Fetch then joins or starts the current load.
// Cancelling ctx stops the wait but not the shared load.
func (c *Cache[T]) Fetch(ctx context.Context, key Key, load Loader[T]) (T, error) {
	for {
		v, current, err := c.fetch(ctx, key, load)
		if current {
			return v, err
		}
		slog.Debug("query: result superseded, fetching again", "key", key.String())
	}
}

type flight[T any] struct {
	val     T
	current bool
}

func (c *Cache[T]) fetch(ctx context.Context, key Key, load Loader[T]) (T, bool, error) {
	var zero T
	k := key.String()

	c.mu.Lock()
	e, ok := c.entries[k]
	if ok && e.state.Status == StatusReady && !e.state.Stale {
		data := c.copy(e.state.Data)
		c.mu.Unlock()
		return data, true, nil
	}
	if !ok {
		e = &entry[T]{key: key, state: State[T]{Status: StatusPending}}
		c.entries[k] = e
	}
	started := !e.state.Fetching
	e.state.Fetching = true
	c.mu.Unlock()

	if started {
		c.notify(key)
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (any, error) {
		c.mu.Lock()
		gen := c.entries[k].gen
		c.mu.Unlock()

		v, err := load(flightCtx)
		return flight[T]{val: v, current: c.store(key, gen, v, err)}, err
	})

	select {
	case <-ctx.Done():
		return zero, true, ctx.Err()
	case res := <-ch:
		f, _ := res.Val.(flight[T])
		if !f.current {
			return zero, false, nil
		}
		if res.Err != nil {
			return zero, true, res.Err
		}
		return c.copy(f.val), true, nil
	}
}

// store records the outcome of a load started at generation gen. It reports
// false when an invalidation superseded the load and the outcome was dropped.
func (c *Cache[T]) store(key Key, gen uint64, v T, err error) bool {
	k := key.String()

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		slog.Debug("query: dropping superseded result", "key", k)
		return false
	}
	e.state.Fetching = false
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
	} else {
		e.state.Data = v
		e.state.Status = StatusReady
		e.state.Err = nil
		e.state.Stale = false
		e.state.UpdatedAt = c.now()
	}
	c.mu.Unlock()

	c.notify(key)
	return true
}

// Invalidate marks every entry selected by prefix as stale, detaches any
// in-flight load for it and refetches the keys that are being observed.
func (c *Cache[T]) Invalidate(prefix Key) {
	c.mu.Lock()
	var changed []Key
	for k, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.gen++
		e.state.Stale = true
		e.state.Fetching = false
		c.group.Forget(k)
		changed = append(changed, e.key)
	}

	var refetch []observer[T]
	if !c.closed {
		for _, o := range c.observers {
			if o.key.HasPrefix(prefix) {
				refetch = append(refetch, *o)
			}
		}
	}
	c.mu.Unlock()

	slog.Debug("query: invalidated", "prefix", prefix.String(), "entries", len(changed), "refetch", len(refetch))

	for _, key := range changed {
		c.notify(key)
	}
	for _, o := range refetch {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if _, err := c.Fetch(c.ctx, o.key, o.load); err != nil {
				slog.Debug("query: background refetch failed", "key", o.key.String(), "error", err)
			}
		}()
	}
}

// Observe marks key as being displayed so invalidation refetches it with
// load. The returned func releases the observation.
func (c *Cache[T]) Observe(key Key, load Loader[T]) (cancel func()) {
	k := key.String()

	c.mu.Lock()
	o, ok := c.observers[k]
	if !ok {
		o = &observer[T]{key: key}
		c.observers[k] = o
	}
	o.load = load
	o.refs++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if o, ok := c.observers[k]; ok {
				o.refs--
				if o.refs <= 0 {
					delete(c.observers, k)
				}
			}
		})
	}
}

// Observed reports whether anyone currently observes key.
func (c *Cache[T]) Observed(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.observers[key.String()]
	return ok
}

// Subscribe returns a channel receiving the key of every entry whose state
// changed. Delivery is best effort: a subscriber that falls behind misses
// keys and should re-read the ones it shows.
func (c *Cache[T]) Subscribe() (<-chan Key, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Key, 64)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Cache[T]) notify(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- key:
		default:
			slog.Debug("query: subscriber lagging, dropped notification", "key", key.String())
		}
	}
}

// Wait blocks until every background refetch started so far has finished.
func (c *Cache[T]) Wait() {
	c.wg.Wait()
}

// Close cancels background refetches, waits for them and closes every
// subscription.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
