// Package session assembles the sync core: identity, clock sync, item store,
// live channel and the reconciliation loop, with a defined construction order
// and a single teardown point.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Kunal9s/auctionsync/internal/catalog"
	"github.com/Kunal9s/auctionsync/internal/channel"
	"github.com/Kunal9s/auctionsync/internal/config"
	"github.com/Kunal9s/auctionsync/internal/countdown"
	"github.com/Kunal9s/auctionsync/internal/identity"
	"github.com/Kunal9s/auctionsync/internal/reconcile"
	"github.com/Kunal9s/auctionsync/internal/store"
	"github.com/Kunal9s/auctionsync/internal/timesync"
)

// Stats summarizes the collection for a status display.
type Stats struct {
	TotalItems     int
	ActiveAuctions int
	Leading        int
}

// Session is one live connection to the auction server plus the local state
// derived from it.
type Session struct {
	identity  string
	increment int64

	clock   clockwork.Clock
	store   *store.Store
	times   *timesync.Sync
	channel *channel.Channel
	loop    *reconcile.Loop

	closeOnce sync.Once
}

// Open builds and starts a session: identity first, then local state, then
// the channel. The initial item load happens before the channel connects so
// the first UPDATE_BID has a collection to land on; a load failure is
// reported as a notification and leaves the collection empty.
func Open(ctx context.Context, cfg config.Config, clock clockwork.Clock) (*Session, error) {
	id, err := identity.LoadOrCreate(cfg.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	st := store.New()
	times := timesync.New(clock)
	loop := reconcile.NewLoop(st, times, id, 0)

	ch := channel.New(channel.Options{
		URL:               cfg.SocketURL,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectAttempts: cfg.ReconnectAttempts,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		MaxMessageSize:    64 * 1024,
	})
	loop.Attach(ch)

	s := &Session{
		identity:  id,
		increment: cfg.BidIncrement,
		clock:     clock,
		store:     st,
		times:     times,
		channel:   ch,
		loop:      loop,
	}

	items, err := catalog.FetchItems(ctx, cfg.APIURL)
	if err != nil {
		loop.ReportLoadFailure(err)
	} else {
		st.ReplaceAll(items)
	}

	if err := ch.Connect(); err != nil {
		loop.Detach()
		return nil, fmt.Errorf("start channel: %w", err)
	}

	log.Info().
		Str("identity", id).
		Str("socket_url", cfg.SocketURL).
		Int("items", st.Len()).
		Msg("session opened")
	return s, nil
}

// Identity returns the local bidder identity.
func (s *Session) Identity() string {
	return s.identity
}

// Notifications returns the user-facing signal stream.
func (s *Session) Notifications() <-chan reconcile.Notification {
	return s.loop.Notifications()
}

// Items returns a snapshot of the known collection.
func (s *Session) Items() []store.Item {
	return s.store.Snapshot()
}

// ServerNow returns the current authoritative-time estimate.
func (s *Session) ServerNow() time.Time {
	return s.times.Now()
}

// Connected reports whether the channel currently has a live connection.
func (s *Session) Connected() bool {
	return s.channel.State() == channel.StateConnected
}

// PlaceBid submits currentBid + increment for the given item. The outcome
// arrives later as a notification, never as a return value here.
func (s *Session) PlaceBid(itemID string) error {
	item, ok := s.store.Get(itemID)
	if !ok {
		return fmt.Errorf("unknown item %q", itemID)
	}
	return s.channel.SubmitBid(itemID, item.CurrentBid+s.increment, s.identity)
}

// Countdown starts a countdown engine for the given item, running on
// authoritative time. The caller owns the engine and must Stop it.
func (s *Session) Countdown(itemID string) (*countdown.Engine, error) {
	item, ok := s.store.Get(itemID)
	if !ok {
		return nil, fmt.Errorf("unknown item %q", itemID)
	}
	return countdown.NewEngine(s.clock, item.EndsAt(), s.times.Now), nil
}

// Stats derives collection counts against authoritative time.
func (s *Session) Stats() Stats {
	now := s.times.Now().UnixMilli()
	stats := Stats{}
	for _, it := range s.store.Snapshot() {
		stats.TotalItems++
		if it.EndTime > now {
			stats.ActiveAuctions++
		}
		if it.HighestBidder == s.identity {
			stats.Leading++
		}
	}
	return stats
}

// Close tears the session down: closing the channel stops all event dispatch,
// then the loop's subscriptions are released. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.channel.Close()
		s.loop.Detach()
		log.Info().Str("identity", s.identity).Msg("session closed")
	})
}
