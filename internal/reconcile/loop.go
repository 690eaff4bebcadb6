// Package reconcile wires channel events into store mutations and turns the
// resulting state transitions into user-facing notifications.
package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kunal9s/auctionsync/internal/channel"
	"github.com/Kunal9s/auctionsync/internal/metrics"
	"github.com/Kunal9s/auctionsync/internal/store"
	"github.com/Kunal9s/auctionsync/internal/timesync"
)

// Loop is the composition point between the live channel, the item store and
// clock sync. It holds no item state of its own; every decision is derived
// from the store transition an event causes.
type Loop struct {
	store    *store.Store
	clock    *timesync.Sync
	identity string

	out  chan Notification
	subs []*channel.Subscription
}

// NewLoop builds a loop deriving notifications for the given local identity.
// buffer sizes the notification channel; when the consumer falls behind,
// further notifications are dropped with a warning rather than blocking event
// dispatch.
func NewLoop(st *store.Store, clock *timesync.Sync, identity string, buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		store:    st,
		clock:    clock,
		identity: identity,
		out:      make(chan Notification, buffer),
	}
}

// Notifications returns the outbound signal stream. The channel is never
// closed; it simply stops producing once the loop is detached.
func (l *Loop) Notifications() <-chan Notification {
	return l.out
}

// Attach subscribes the loop to every event it reconciles. Call once, before
// the channel connects, so no early event is missed.
func (l *Loop) Attach(ch *channel.Channel) {
	l.subs = append(l.subs,
		ch.Subscribe(channel.EventServerTime, l.onServerTime),
		ch.Subscribe(channel.EventUpdateBid, l.onBidUpdate),
		ch.Subscribe(channel.EventBidError, l.onBidError),
		ch.Subscribe(channel.EventBidSuccess, l.onBidSuccess),
		ch.Subscribe(channel.EventItemsUpdated, l.onItemsUpdated),
		ch.Subscribe(channel.EventConnected, func(json.RawMessage) {
			l.emit(Notification{Kind: KindConnected, Message: "Connected to live auction"})
		}),
		ch.Subscribe(channel.EventDisconnected, func(json.RawMessage) {
			l.emit(Notification{Kind: KindConnectionLost, Message: "Connection lost. Reconnecting..."})
		}),
		ch.Subscribe(channel.EventConnectionExhausted, func(json.RawMessage) {
			l.emit(Notification{Kind: KindConnectionExhausted, Message: "Connection lost. Please restart the client."})
		}),
	)
}

// Detach cancels every subscription. Idempotent.
func (l *Loop) Detach() {
	for _, s := range l.subs {
		s.Cancel()
	}
	l.subs = nil
}

// ReportLoadFailure surfaces a failed initial item fetch. Non-fatal: the
// collection stays empty until the next full resync from the channel.
func (l *Loop) ReportLoadFailure(err error) {
	log.Warn().Err(err).Msg("initial item load failed")
	l.emit(Notification{Kind: KindInitialLoadFailed, Message: "Failed to load auctions"})
}

func (l *Loop) onServerTime(data json.RawMessage) {
	var p channel.ServerTimePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Msg("malformed SERVER_TIME payload")
		return
	}
	l.clock.Apply(time.UnixMilli(p.ServerTime))
}

// onBidUpdate applies the partial update and decides, from the store state
// immediately prior to the patch, whether the local identity gained or lost
// the lead on this item.
func (l *Loop) onBidUpdate(data json.RawMessage) {
	var p channel.BidUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Msg("malformed UPDATE_BID payload")
		return
	}

	prev, next, ok := l.store.ApplyPatch(p.ItemID, store.Patch{
		CurrentBid:    p.CurrentBid,
		HighestBidder: p.HighestBidder,
		BidCount:      p.BidCount,
	})
	if !ok {
		return
	}

	switch {
	case next.HighestBidder == l.identity:
		l.emit(Notification{
			Kind:    KindWinning,
			ItemID:  p.ItemID,
			Amount:  next.CurrentBid,
			Message: fmt.Sprintf("You're winning! $%d", next.CurrentBid),
		})
	case prev.HighestBidder == l.identity:
		l.emit(Notification{
			Kind:    KindOutbid,
			ItemID:  p.ItemID,
			Amount:  next.CurrentBid,
			Message: fmt.Sprintf("You've been outbid on %s!", prev.Title),
		})
	}
}

func (l *Loop) onBidError(data json.RawMessage) {
	var p channel.BidErrorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Msg("malformed BID_ERROR payload")
		return
	}
	metrics.BidsRejected.WithLabelValues(p.Code).Inc()
	log.Info().Str("code", p.Code).Str("message", p.Message).Msg("bid rejected")
	l.emit(MapRejection(p.Code, p.Message))
}

func (l *Loop) onBidSuccess(data json.RawMessage) {
	var p channel.BidSuccessPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Msg("malformed BID_SUCCESS payload")
		return
	}
	log.Debug().Str("item_id", p.ItemID).Msg("bid acknowledged")
	l.emit(Notification{Kind: KindBidAcknowledged, ItemID: p.ItemID})
}

func (l *Loop) onItemsUpdated(data json.RawMessage) {
	var p channel.ItemsUpdatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Msg("malformed ITEMS_UPDATED payload")
		return
	}
	l.store.ReplaceAll(p.Items)
}

func (l *Loop) emit(n Notification) {
	select {
	case l.out <- n:
	default:
		log.Warn().Str("kind", string(n.Kind)).Msg("notification dropped, consumer not keeping up")
	}
}
