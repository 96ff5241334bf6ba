package orderbookv1

import (
	"errors"
	"math"

	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
)

var (
	// ErrInvalidSide is returned for a side other than bid or ask.
	ErrInvalidSide = errors.New("side must be bid or ask")
	// ErrInvalidOrderType is returned for an unknown order type.
	ErrInvalidOrderType = errors.New("unknown order type")
	// ErrInvalidSelfTrade is returned for an unknown self-trade behavior.
	ErrInvalidSelfTrade = errors.New("unknown self-trade behavior")
	// ErrZeroQuantity is returned when an order carries no quantity.
	ErrZeroQuantity = errors.New("quantity must be positive")
	// ErrZeroPrice is returned when a price-bound order carries no price.
	ErrZeroPrice = errors.New("price must be positive")
)

// Side identifies which half of the book an order belongs to.
type Side string

const (
	// SideBid is the buying side.
	SideBid Side = "bid"
	// SideAsk is the selling side.
	SideAsk Side = "ask"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// OrderType represents the type of order.
type OrderType string

const (
	// OrderTypeLimit rests any unfilled remainder on the book.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeMarket crosses at any price and never rests.
	OrderTypeMarket OrderType = "market"
	// OrderTypeImmediateOrCancel fills what crosses the limit and discards
	// the rest.
	OrderTypeImmediateOrCancel OrderType = "ioc"
	// OrderTypeFillOrKill fills completely or not at all; the book is left
	// untouched when the crossing liquidity is insufficient.
	OrderTypeFillOrKill OrderType = "fok"
)

// SelfTradeBehavior selects what happens when an incoming order would cross
// a resting order with the same owner.
type SelfTradeBehavior string

const (
	// SelfTradeCancelResting cancels the resting order and keeps matching.
	SelfTradeCancelResting SelfTradeBehavior = "cancel_resting"
	// SelfTradeCancelIncoming aborts the incoming order without further
	// matching.
	SelfTradeCancelIncoming SelfTradeBehavior = "cancel_incoming"
	// SelfTradeCancelBoth cancels the resting order and the incoming
	// remainder; no fill happens for the pair.
	SelfTradeCancelBoth SelfTradeBehavior = "cancel_both"
)

// NewOrderRequest carries a validated incoming order into the book.
type NewOrderRequest struct {
	Side          Side
	Type          OrderType
	Price         uint64
	Quantity      uint64
	Owner         [32]byte
	FeeTier       uint8
	ClientOrderID uint64
	GatewayToken  [32]byte
	SelfTrade     SelfTradeBehavior
}

// Validate checks the request against the parameter rules. Market orders
// carry no price bound; every other type requires one.
func (r *NewOrderRequest) Validate() error {
	if r.Side != SideBid && r.Side != SideAsk {
		return ErrInvalidSide
	}
	switch r.Type {
	case OrderTypeLimit, OrderTypeMarket, OrderTypeImmediateOrCancel, OrderTypeFillOrKill:
	default:
		return ErrInvalidOrderType
	}
	switch r.SelfTrade {
	case SelfTradeCancelResting, SelfTradeCancelIncoming, SelfTradeCancelBoth:
	case "":
		r.SelfTrade = SelfTradeCancelResting
	default:
		return ErrInvalidSelfTrade
	}
	if r.Quantity == 0 {
		return ErrZeroQuantity
	}
	if r.Type != OrderTypeMarket && r.Price == 0 {
		return ErrZeroPrice
	}
	return nil
}

// LimitPrice returns the effective price bound: market orders cross
// everything on the opposite side.
func (r *NewOrderRequest) LimitPrice() uint64 {
	if r.Type != OrderTypeMarket {
		return r.Price
	}
	if r.Side == SideBid {
		return math.MaxUint64
	}
	return 0
}

// Rests reports whether the order type may leave a remainder on the book.
func (r *NewOrderRequest) Rests() bool {
	return r.Type == OrderTypeLimit
}

// KeyFor builds the slab key for an order resting on side. Bid keys store
// the complement of the sequence so that FindMax on the bid slab yields the
// oldest order among equal prices; ask keys use the raw sequence with
// FindMin. Price-time priority is then plain key order on both sides.
func KeyFor(side Side, price, seq uint64) slabv1.Key {
	if side == SideBid {
		return slabv1.NewKey(price, ^seq)
	}
	return slabv1.NewKey(price, seq)
}

// Crosses reports whether a taker on side with the given price bound trades
// against a resting price on the opposite side.
func Crosses(side Side, limitPrice, restingPrice uint64) bool {
	if side == SideBid {
		return restingPrice <= limitPrice
	}
	return restingPrice >= limitPrice
}

// Result summarizes one matching run.
type Result struct {
	// OrderID is the taker-side order id assigned on entry; fill and out
	// events reference it.
	OrderID slabv1.Key
	// RestingOrderID is set when a remainder was left on the book, under
	// a fresh sequence number.
	RestingOrderID *slabv1.Key
	// FillCount is the number of fill events produced.
	FillCount int
	// FilledQuantity is the total quantity crossed.
	FilledQuantity uint64
	// RemainingQuantity is the unfilled quantity at loop exit. Limit
	// orders rest it; IOC-class orders discard it.
	RemainingQuantity uint64
}
