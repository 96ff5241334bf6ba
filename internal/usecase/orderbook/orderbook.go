// Package orderbook owns the two-sided slab book and the matching algorithm
// crossing incoming orders against it. All methods run to completion on the
// caller's goroutine; the engine serializes invocations, so the book holds no
// locks of its own.
package orderbook

import (
	"bytes"

	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	feesv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/fees/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/orderbook/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	snapshotv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/errors"
)

// Orderbook is the price-time-priority book over two caller-owned slab
// buffers, one per side.
type Orderbook struct {
	bids   *slabv1.Slab
	asks   *slabv1.Slab
	fees   *feesv1.Schedule
	events *eventsv1.Queue

	// sequence numbers every accepted order; strictly increasing, never
	// reused, so resting keys can never collide.
	sequence uint64
}

// NewOrderbook builds a book over the supplied buffers. The buffers are owned
// by the caller and fix each side's capacity for the book's lifetime.
func NewOrderbook(bidBuf, askBuf []byte, fees *feesv1.Schedule, events *eventsv1.Queue) (*Orderbook, error) {
	bids, err := slabv1.NewSlab(bidBuf)
	if err != nil {
		return nil, err
	}
	asks, err := slabv1.NewSlab(askBuf)
	if err != nil {
		return nil, err
	}

	return &Orderbook{
		bids:   bids,
		asks:   asks,
		fees:   fees,
		events: events,
	}, nil
}

// Events returns the book's event queue for draining.
func (ob *Orderbook) Events() *eventsv1.Queue {
	return ob.events
}

// Sequence returns the current order sequence counter.
func (ob *Orderbook) Sequence() uint64 {
	return ob.sequence
}

func (ob *Orderbook) nextSeq() uint64 {
	ob.sequence++
	return ob.sequence
}

func (ob *Orderbook) slabFor(side orderbookv1.Side) *slabv1.Slab {
	if side == orderbookv1.SideBid {
		return ob.bids
	}
	return ob.asks
}

// Cancel removes the resting order with the given id from the given side and
// records an Out event. Fails with order_not_found when the key is absent and
// with event_queue_full, before mutating, when the Out could not be recorded.
func (ob *Orderbook) Cancel(side orderbookv1.Side, orderID slabv1.Key) error {
	if side != orderbookv1.SideBid && side != orderbookv1.SideAsk {
		return errors.NewErrorDetails("side must be bid or ask", string(errors.ErrInvalidOrderParameters), "side")
	}
	if ob.events.Full() {
		return errors.NewErrorDetails("event queue is full", string(errors.ErrEventQueueFull), "events")
	}

	if _, ok := ob.slabFor(side).RemoveByKey(orderID); !ok {
		return errors.NewErrorDetails("no resting order with that id", string(errors.ErrOrderNotFound), "orderID")
	}

	_ = ob.events.Append(eventsv1.NewOut(orderID)) // capacity checked above
	return nil
}

// CancelByClientID removes every resting order of owner tagged with the given
// client order id, on either side, recording an Out event per removal.
func (ob *Orderbook) CancelByClientID(owner [32]byte, clientOrderID uint64) error {
	match := func(leaf slabv1.LeafRef) bool {
		return leaf.ClientOrderID() == clientOrderID && leaf.Owner() == owner
	}

	removed := 0
	for _, slab := range []*slabv1.Slab{ob.bids, ob.asks} {
		for _, key := range slab.FilterLeaves(match) {
			if ob.events.Full() {
				return errors.NewErrorDetails("event queue is full", string(errors.ErrEventQueueFull), "events")
			}
			if _, ok := slab.RemoveByKey(key); ok {
				removed++
				_ = ob.events.Append(eventsv1.NewOut(key))
			}
		}
	}

	if removed == 0 {
		return errors.NewErrorDetails("no resting order with that client id", string(errors.ErrOrderNotFound), "clientOrderID")
	}
	return nil
}

// Prune force-cancels every resting order placed under the given gateway
// token, on both sides, and returns how many were removed. Each removal
// records an Out event, same as an ordinary cancel. Calling it again with the
// same token removes nothing.
func (ob *Orderbook) Prune(gatewayToken [32]byte) (int, error) {
	match := func(leaf slabv1.LeafRef) bool {
		return leaf.GatewayToken() == gatewayToken
	}

	removed := 0
	for _, slab := range []*slabv1.Slab{ob.bids, ob.asks} {
		for _, key := range slab.FilterLeaves(match) {
			if ob.events.Full() {
				return removed, errors.NewErrorDetails("event queue is full", string(errors.ErrEventQueueFull), "events")
			}
			if _, ok := slab.RemoveByKey(key); ok {
				removed++
				_ = ob.events.Append(eventsv1.NewOut(key))
			}
		}
	}
	return removed, nil
}

// BidVolume returns the total resting quantity on the bid side.
func (ob *Orderbook) BidVolume() uint64 {
	return sideVolume(ob.bids)
}

// AskVolume returns the total resting quantity on the ask side.
func (ob *Orderbook) AskVolume() uint64 {
	return sideVolume(ob.asks)
}

func sideVolume(slab *slabv1.Slab) uint64 {
	var total uint64
	slab.Walk(func(leaf slabv1.LeafRef) bool {
		total += leaf.Quantity()
		return true
	})
	return total
}

// RestingOrderIDs returns the ids of every order resting on side, in key
// order. Administrative introspection; the matching path never calls it.
func (ob *Orderbook) RestingOrderIDs(side orderbookv1.Side) []slabv1.Key {
	return ob.slabFor(side).FilterLeaves(func(slabv1.LeafRef) bool { return true })
}

// BidCount returns the number of resting bid orders.
func (ob *Orderbook) BidCount() uint32 {
	return ob.bids.LeafCount()
}

// AskCount returns the number of resting ask orders.
func (ob *Orderbook) AskCount() uint32 {
	return ob.asks.LeafCount()
}

// CreateSnapshot captures the book byte for byte. The engine stamps the
// stream offset afterwards.
func (ob *Orderbook) CreateSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{
		Sequence: ob.sequence,
		Bids:     bytes.Clone(ob.bids.Buffer()),
		Asks:     bytes.Clone(ob.asks.Buffer()),
	}
}

// RestoreOrderbook replaces the book state with a snapshot. The snapshot must
// have been taken from buffers of the same capacity.
func (ob *Orderbook) RestoreOrderbook(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return errors.NewErrorDetails("snapshot cannot be nil", string(errors.GeneralBadRequestError), "snapshot")
	}
	if len(snapshot.Bids) != len(ob.bids.Buffer()) || len(snapshot.Asks) != len(ob.asks.Buffer()) {
		return errors.NewErrorDetails("snapshot buffer sizes do not match book capacity", string(errors.GeneralBadRequestError), "snapshot")
	}

	copy(ob.bids.Buffer(), snapshot.Bids)
	copy(ob.asks.Buffer(), snapshot.Asks)
	ob.sequence = snapshot.Sequence
	return nil
}
