// Package store holds the client's view of the auction item collection. It is
// the single writer for item state: all mutation funnels through ReplaceAll
// and ApplyPatch in response to server events.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Item is one auction lot as last reported by the server. Display metadata is
// immutable from the client's perspective; CurrentBid, HighestBidder and
// BidCount only change under server updates.
type Item struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	CurrentBid    int64  `json:"currentBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	BidCount      int    `json:"bidCount"`
	EndTime       int64  `json:"endTime"` // ms since epoch, server clock
}

// EndsAt returns the auction end time as a time.Time in authoritative units.
func (it Item) EndsAt() time.Time {
	return time.UnixMilli(it.EndTime)
}

// Patch carries the item fields an UPDATE_BID event is allowed to change.
type Patch struct {
	CurrentBid    int64
	HighestBidder string
	BidCount      int
}

// Store owns the item collection, keyed by item id.
type Store struct {
	mu    sync.RWMutex
	items map[string]Item
}

func New() *Store {
	return &Store{items: make(map[string]Item)}
}

// ReplaceAll swaps in a fresh collection. Used for the initial load and for
// full resyncs; no diffing is performed.
func (s *Store) ReplaceAll(items []Item) {
	next := make(map[string]Item, len(items))
	for _, it := range items {
		next[it.ID] = it
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()

	log.Debug().Int("items", len(items)).Msg("item collection replaced")
}

// ApplyPatch merges the patch into the item with the given id and returns the
// item as it was immediately before and after the merge, so the caller can
// diff without re-reading the store. Patches for unknown ids are dropped with
// ok=false: the server may reference an item this client has not loaded yet.
func (s *Store) ApplyPatch(id string, p Patch) (prev, next Item, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok = s.items[id]
	if !ok {
		log.Debug().Str("item_id", id).Msg("patch for unknown item dropped")
		return Item{}, Item{}, false
	}

	next = prev
	next.CurrentBid = p.CurrentBid
	next.HighestBidder = p.HighestBidder
	next.BidCount = p.BidCount
	s.items[id] = next
	return prev, next, true
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Snapshot returns a copy of the collection ordered by end time, then id.
// Readers must never mutate items in place; they get values, not references.
func (s *Store) Snapshot() []Item {
	s.mu.RLock()
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].EndTime != items[j].EndTime {
			return items[i].EndTime < items[j].EndTime
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Len returns the number of items in the collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
