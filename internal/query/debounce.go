// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package query

import (
	"sync"
	"time"
)

// Debouncer emits the last pushed value once input has been quiet for the
// configured window. Bursts of any length collapse into one emission.
type Debouncer[T any] struct {
	quiet time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
	out     chan T
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer[T any](quiet time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		quiet: quiet,
		out:   make(chan T, 1),
	}
}

// Push records v and restarts the quiet window.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen, v) })
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || gen != d.gen {
		return
	}
	// Replace an undelivered older value; the buffer holds one.
	select {
	case <-d.out:
	default:
	}
	d.out <- v
}

// C delivers settled values. It is closed by Stop.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Stop cancels any pending emission and closes C. Values pushed afterwards are
// ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	select {
	case <-d.out:
	default:
	}
	close(d.out)
}
