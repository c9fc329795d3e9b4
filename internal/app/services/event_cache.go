package services

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

// EventCache is a bounded LRU of events keyed by share token. Entries expire
// after ttl so host-side edits of display fields eventually show up.
type EventCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	entries  map[string]*list.Element
	now      func() time.Time
	metrics  eventCacheMetrics
}

type eventCacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

type eventCacheEntry struct {
	shareToken string
	event      ports.Event
	expiresAt  time.Time
}

func newEventCacheMetrics() eventCacheMetrics {
	meter := otel.Meter("github.com/shyamsivadas/event-lens/internal/app/services")
	hits, _ := meter.Int64Counter("eventlens.event_cache.hits")
	misses, _ := meter.Int64Counter("eventlens.event_cache.misses")
	return eventCacheMetrics{hits: hits, misses: misses}
}

// NewEventCache constructs an event cache.
func NewEventCache(capacity int, ttl time.Duration) *EventCache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EventCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		entries:  make(map[string]*list.Element, capacity),
		now:      time.Now,
		metrics:  newEventCacheMetrics(),
	}
}

// Get returns a cached event. A nil cache always misses.
func (c *EventCache) Get(ctx context.Context, shareToken string) (ports.Event, bool) {
	if c == nil {
		return ports.Event{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[shareToken]
	if !ok {
		c.metrics.misses.Add(ctx, 1)
		return ports.Event{}, false
	}
	entry := element.Value.(*eventCacheEntry)
	if c.now().After(entry.expiresAt) {
		c.ll.Remove(element)
		delete(c.entries, shareToken)
		c.metrics.misses.Add(ctx, 1)
		return ports.Event{}, false
	}
	c.ll.MoveToFront(element)
	c.metrics.hits.Add(ctx, 1)
	return entry.event, true
}

// Put stores an event under its share token.
func (c *EventCache) Put(event ports.Event) {
	if c == nil || event.ShareToken == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[event.ShareToken]; ok {
		entry := element.Value.(*eventCacheEntry)
		entry.event = event
		entry.expiresAt = c.now().Add(c.ttl)
		c.ll.MoveToFront(element)
		return
	}

	element := c.ll.PushFront(&eventCacheEntry{
		shareToken: event.ShareToken,
		event:      event,
		expiresAt:  c.now().Add(c.ttl),
	})
	c.entries[event.ShareToken] = element

	if c.ll.Len() > c.capacity {
		tail := c.ll.Back()
		if tail == nil {
			return
		}
		c.ll.Remove(tail)
		delete(c.entries, tail.Value.(*eventCacheEntry).shareToken)
	}
}

// Len returns the number of live and expired entries held.
func (c *EventCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
