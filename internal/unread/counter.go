// Package unread tracks the number of unread chat messages shown on the badge.
package unread

import "sync"

// Counter holds the total unread count for one owner.
//
// Decrease never takes the count below zero. Set assigns whatever it is given,
// negative values included, so callers that need a non-negative count must validate first.
type Counter struct {
	mu    sync.Mutex
	count int
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Set(n int) int {
	return c.update(func(int) int { return n }, nil)
}

// Decrease subtracts n and clamps at zero. A negative n raises the count.
func (c *Counter) Decrease(n int) int {
	return c.update(func(v int) int { return max(v-n, 0) }, nil)
}

func (c *Counter) Reset() int {
	return c.update(func(int) int { return 0 }, nil)
}

// update applies f and, when notify is set, hands it the new value before the
// lock is released, so notifications leave in the order the changes happened.
func (c *Counter) update(f func(int) int, notify func(int)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = f(c.count)
	if notify != nil {
		notify(c.count)
	}
	return c.count
}

func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
