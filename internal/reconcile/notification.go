package reconcile

// Kind classifies a user-facing notification.
type Kind string

const (
	KindConnected           Kind = "connected"
	KindConnectionLost      Kind = "connection_lost"
	KindConnectionExhausted Kind = "connection_exhausted"
	KindWinning             Kind = "winning"
	KindOutbid              Kind = "outbid"
	KindBidAcknowledged     Kind = "bid_acknowledged"
	KindBidTooLow           Kind = "bid_too_low"
	KindAuctionEnded        Kind = "auction_ended"
	KindBidRejected         Kind = "bid_rejected"
	KindInitialLoadFailed   Kind = "initial_load_failed"
)

// Notification is a derived, fire-and-forget signal for the presentation
// layer. It has no identity and is never stored.
type Notification struct {
	Kind    Kind
	ItemID  string
	Amount  int64
	Message string
}

// Server reason codes for rejected bids.
const (
	CodeBidTooLow    = "BID_TOO_LOW"
	CodeAuctionEnded = "AUCTION_ENDED"
)

// MapRejection resolves a server reason code to exactly one notification.
// Unknown or absent codes fall through to the generic rejection rather than
// being dropped.
func MapRejection(code, message string) Notification {
	switch code {
	case CodeBidTooLow:
		if message == "" {
			message = "Bid too low"
		}
		return Notification{Kind: KindBidTooLow, Message: message}
	case CodeAuctionEnded:
		return Notification{Kind: KindAuctionEnded, Message: "This auction has ended"}
	default:
		if message == "" {
			message = "Bid failed"
		}
		return Notification{Kind: KindBidRejected, Message: message}
	}
}
