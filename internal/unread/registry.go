package unread

import "sync"

// Registry owns one Counter per user and fans every change out to that
// user's subscribers (badge streams).
type Registry struct {
	mu       sync.RWMutex
	counters map[int]*Counter
	subs     map[int]map[chan int]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[int]*Counter),
		subs:     make(map[int]map[chan int]struct{}),
	}
}

// For returns the user's counter, creating it at zero on first use.
func (r *Registry) For(userID int) *Counter {
	r.mu.RLock()
	c, ok := r.counters[userID]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[userID]; ok {
		return c
	}
	c = NewCounter()
	r.counters[userID] = c
	return c
}

func (r *Registry) Count(userID int) int {
	return r.For(userID).Count()
}

func (r *Registry) Set(userID, n int) int {
	return r.For(userID).update(func(int) int { return n }, r.notifier(userID))
}

func (r *Registry) Decrease(userID, n int) int {
	return r.For(userID).update(func(v int) int { return max(v-n, 0) }, r.notifier(userID))
}

func (r *Registry) Reset(userID int) int {
	return r.For(userID).update(func(int) int { return 0 }, r.notifier(userID))
}

func (r *Registry) notifier(userID int) func(int) {
	return func(count int) { r.publish(userID, count) }
}

// Subscribe returns a channel that receives the latest count after every
// change. Only the newest value is kept for slow readers. cancel must be called
// to release the subscription; it closes the channel.
func (r *Registry) Subscribe(userID int) (<-chan int, func()) {
	ch := make(chan int, 1)

	r.mu.Lock()
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[chan int]struct{})
	}
	r.subs[userID][ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if chans, ok := r.subs[userID]; ok {
				delete(chans, ch)
				if len(chans) == 0 {
					delete(r.subs, userID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// publish runs under the counter's lock; it must not block.
func (r *Registry) publish(userID, count int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subs[userID] {
		// drop the stale value, if any, so the reader always sees the latest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- count:
		default:
		}
	}
}
