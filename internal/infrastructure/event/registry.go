package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/familyreg/backend/internal/domain/shared"
)

// subscription binds a handler to a set of event types. A nil set means every type.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) wants(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in an immutable snapshot so Publish
// reads without locking. Writers serialize on mu and swap the snapshot.
type HandlerRegistry struct {
	mu   sync.Mutex
	subs atomic.Pointer[[]subscription]
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	r := &HandlerRegistry{}
	r.subs.Store(&[]subscription{})
	return r
}

// Register subscribes handler to eventTypes, or to every family event when none are given.
// Registering the same handler again merges the types.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.Clone(*r.subs.Load())
	i := slices.IndexFunc(next, func(s subscription) bool { return s.handler == handler })
	if i < 0 {
		next = append(next, subscription{handler: handler, types: map[string]struct{}{}})
		i = len(next) - 1
	}
	sub := next[i]
	switch {
	case len(eventTypes) == 0:
		sub.types = nil
	case sub.types != nil:
		types := make(map[string]struct{}, len(sub.types)+len(eventTypes))
		for t := range sub.types {
			types[t] = struct{}{}
		}
		for _, t := range eventTypes {
			types[t] = struct{}{}
		}
		sub.types = types
	}
	next[i] = sub
	r.subs.Store(&next)
}

// Unregister drops every subscription of handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(*r.subs.Load()), func(s subscription) bool {
		return s.handler == handler
	})
	r.subs.Store(&next)
}

// GetHandlers returns handlers registered for eventType, then catch-all handlers,
// each group in registration order.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	var typed, all []shared.EventHandler
	for _, s := range *r.subs.Load() {
		switch {
		case s.types == nil:
			all = append(all, s.handler)
		case s.wants(eventType):
			typed = append(typed, s.handler)
		}
	}
	return append(typed, all...)
}

// Len reports the number of subscribed handlers
func (r *HandlerRegistry) Len() int {
	return len(*r.subs.Load())
}
