// Package notify provides a small typed observer used to announce model changes.
//
// A Signal fans a value out to every connected handler synchronously, on the
// goroutine that calls Emit, in the order the handlers were connected. Handlers
// may disconnect themselves or each other while a delivery is running.
package notify

import (
	"sync"
	"sync/atomic"
)

// Connection is the handle returned by Connect.
type Connection interface {
	// Disconnect detaches the handler. It is safe to call more than once and from
	// inside a handler.
	Disconnect()
}

// Signal is a fan-out notification stream carrying values of type T.
// The zero value is ready to use.
type Signal[T any] struct {
	mu    sync.Mutex
	slots []*slot[T]
}

type slot[T any] struct {
	sig  *Signal[T]
	fn   func(T)
	live atomic.Bool
}

func (s *slot[T]) Disconnect() {
	if !s.live.Swap(false) {
		return
	}
	s.sig.remove(s)
}

// Connect attaches fn and returns its connection handle.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	sl := &slot[T]{sig: s, fn: fn}
	sl.live.Store(true)

	s.mu.Lock()
	s.slots = append(s.slots, sl)
	s.mu.Unlock()
	return sl
}

// Emit delivers v to every handler connected at the time of the call. A handler
// disconnected before its turn is skipped.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	if len(s.slots) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := make([]*slot[T], len(s.slots))
	copy(snapshot, s.slots)
	s.mu.Unlock()

	for _, sl := range snapshot {
		if sl.live.Load() {
			sl.fn(v)
		}
	}
}

// Len returns the number of connected handlers.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *Signal[T]) remove(target *slot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sl := range s.slots {
		if sl == target {
			s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
			return
		}
	}
}
