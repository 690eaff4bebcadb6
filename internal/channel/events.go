package channel

import (
	"encoding/json"

	"github.com/Kunal9s/auctionsync/internal/store"
)

// Event names carried on the wire, matching the auction server's protocol.
const (
	EventServerTime   = "SERVER_TIME"
	EventUpdateBid    = "UPDATE_BID"
	EventBidError     = "BID_ERROR"
	EventBidSuccess   = "BID_SUCCESS"
	EventItemsUpdated = "ITEMS_UPDATED"

	// EventBidPlaced is the only outbound event.
	EventBidPlaced = "BID_PLACED"
)

// Synthetic events dispatched locally on connection state changes. They never
// appear on the wire.
const (
	EventConnected           = "connected"
	EventDisconnected        = "disconnected"
	EventConnectionExhausted = "connection_exhausted"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerTimePayload is a clock sample from the server.
type ServerTimePayload struct {
	ServerTime int64 `json:"serverTime"` // ms since epoch
}

// BidUpdatePayload is the partial item update broadcast after an accepted bid.
type BidUpdatePayload struct {
	ItemID        string `json:"itemId"`
	CurrentBid    int64  `json:"currentBid"`
	HighestBidder string `json:"highestBidder"`
	BidCount      int    `json:"bidCount"`
}

// BidErrorPayload reports a rejected bid to the submitter.
type BidErrorPayload struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// BidSuccessPayload acknowledges an accepted bid to the submitter.
type BidSuccessPayload struct {
	ItemID string `json:"itemId"`
}

// ItemsUpdatedPayload carries a full collection replace.
type ItemsUpdatedPayload struct {
	Items []store.Item `json:"items"`
}

// BidPlacedPayload is the outbound bid command.
type BidPlacedPayload struct {
	ItemID    string `json:"itemId"`
	BidAmount int64  `json:"bidAmount"`
	UserID    string `json:"userId"`
}
