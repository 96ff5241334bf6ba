package orderbook

import (
	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	feesv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/fees/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/orderbook/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/errors"
)

// PlaceOrder runs one order through the book: it crosses the opposite side in
// price-time priority until the order is filled, the price bound stops it, or
// a self-trade rule ends the run, then rests or discards the remainder
// according to the order type. Every fill and removal is recorded on the event
// queue before the corresponding book mutation takes effect, so a queue-full
// error leaves the book consistent with the events already drained.
func (ob *Orderbook) PlaceOrder(req *orderbookv1.NewOrderRequest) (*orderbookv1.Result, error) {
	if req == nil {
		return nil, errors.NewErrorDetails("order request cannot be nil", string(errors.ErrInvalidOrderParameters), "order")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.NewErrorDetails(err.Error(), string(errors.ErrInvalidOrderParameters), "order")
	}
	if !feesv1.Tier(req.FeeTier).Valid() {
		return nil, errors.NewErrorDetails("fee tier outside the schedule", string(errors.ErrInvalidOrderParameters), "feeTier")
	}

	limit := req.LimitPrice()

	// Fill-or-kill scans the crossing liquidity up front and touches nothing
	// when it cannot fill completely.
	if req.Type == orderbookv1.OrderTypeFillOrKill {
		if available := ob.crossableQuantity(req.Side, limit); available < req.Quantity {
			if req.Side == orderbookv1.SideBid {
				return nil, errors.NewErrorDetails("crossing ask volume below order quantity", string(errors.ErrInsufficientAskVolume), "quantity")
			}
			return nil, errors.NewErrorDetails("crossing bid volume below order quantity", string(errors.ErrInsufficientBidVolume), "quantity")
		}
	}

	res := &orderbookv1.Result{
		OrderID:           orderbookv1.KeyFor(req.Side, req.Price, ob.nextSeq()),
		RemainingQuantity: req.Quantity,
	}

	opposite := ob.slabFor(req.Side.Opposite())
	takerSide := eventSide(req.Side)

	for res.RemainingQuantity > 0 {
		handle, ok := bestResting(opposite, req.Side)
		if !ok {
			break
		}
		leaf, _ := opposite.Leaf(handle)
		restingKey := leaf.Key()
		price := restingKey.Price()
		if !orderbookv1.Crosses(req.Side, limit, price) {
			break
		}

		if leaf.Owner() == req.Owner {
			done, err := ob.resolveSelfTrade(req.SelfTrade, opposite, restingKey, res.OrderID)
			if err != nil {
				return res, err
			}
			if done {
				return res, nil
			}
			continue
		}

		restingQty := leaf.Quantity()
		fill := min(res.RemainingQuantity, restingQty)

		makerFee, err := ob.fees.Fee(fill, price, feesv1.Tier(leaf.FeeTier()), true)
		if err != nil {
			return res, err
		}
		takerFee, err := ob.fees.Fee(fill, price, feesv1.Tier(req.FeeTier), false)
		if err != nil {
			return res, err
		}

		// A full consumption emits Fill plus Out; reserve both slots before
		// mutating anything.
		needed := 1
		if fill == restingQty {
			needed = 2
		}
		if ob.events.Cap()-ob.events.Len() < needed {
			return res, errors.NewErrorDetails("event queue is full", string(errors.ErrEventQueueFull), "events")
		}

		_ = ob.events.Append(eventsv1.NewFill(restingKey, res.OrderID, takerSide, price, fill, makerFee, takerFee))
		res.FillCount++
		res.FilledQuantity += fill
		res.RemainingQuantity -= fill

		if fill == restingQty {
			opposite.RemoveByKey(restingKey)
			_ = ob.events.Append(eventsv1.NewOut(restingKey))
		} else {
			// Partial fill: the key is unchanged, so the quantity can be
			// rewritten in place without touching the tree.
			leaf.SetQuantity(restingQty - fill)
		}
	}

	if res.RemainingQuantity == 0 {
		return res, nil
	}

	if req.Rests() {
		restKey := orderbookv1.KeyFor(req.Side, req.Price, ob.nextSeq())
		node := slabv1.LeafNode{
			Key:           restKey,
			Owner:         req.Owner,
			Quantity:      res.RemainingQuantity,
			ClientOrderID: req.ClientOrderID,
			FeeTier:       req.FeeTier,
			GatewayToken:  req.GatewayToken,
		}
		if _, err := ob.slabFor(req.Side).InsertLeaf(&node); err != nil {
			return res, errors.NewErrorDetails("no free slot for the resting remainder", string(errors.ErrBookOutOfSpace), "quantity")
		}
		res.RestingOrderID = &restKey
		return res, nil
	}

	// Market, IOC and post-scan FOK discard the remainder; the Out closes the
	// taker id for settlement.
	if err := ob.appendEvent(eventsv1.NewOut(res.OrderID)); err != nil {
		return res, err
	}
	return res, nil
}

// resolveSelfTrade applies the order's self-trade rule against one resting
// order of the same owner. It reports whether the matching run is over.
func (ob *Orderbook) resolveSelfTrade(behavior orderbookv1.SelfTradeBehavior, opposite *slabv1.Slab, restingKey, takerID slabv1.Key) (bool, error) {
	switch behavior {
	case orderbookv1.SelfTradeCancelResting:
		if err := ob.appendEvent(eventsv1.NewOut(restingKey)); err != nil {
			return true, err
		}
		opposite.RemoveByKey(restingKey)
		return false, nil

	case orderbookv1.SelfTradeCancelIncoming:
		if err := ob.appendEvent(eventsv1.NewOut(takerID)); err != nil {
			return true, err
		}
		return true, nil

	default: // cancel_both
		if err := ob.appendEvent(eventsv1.NewOut(restingKey)); err != nil {
			return true, err
		}
		opposite.RemoveByKey(restingKey)
		if err := ob.appendEvent(eventsv1.NewOut(takerID)); err != nil {
			return true, err
		}
		return true, nil
	}
}

// crossableQuantity sums the resting quantity on the opposite side that a
// taker with the given price bound would cross. The walk stops at the first
// non-crossing price since both sides order by price.
func (ob *Orderbook) crossableQuantity(side orderbookv1.Side, limit uint64) uint64 {
	var total uint64
	accumulate := func(leaf slabv1.LeafRef) bool {
		if !orderbookv1.Crosses(side, limit, leaf.Key().Price()) {
			return false
		}
		total += leaf.Quantity()
		return true
	}
	if side == orderbookv1.SideBid {
		ob.asks.Walk(accumulate)
	} else {
		ob.bids.WalkDesc(accumulate)
	}
	return total
}

// bestResting picks the opposite-side order a taker matches first: the lowest
// ask for a bid taker, the highest-key bid for an ask taker. Bid keys invert
// the sequence, so the maximum bid key is the oldest order at the best price.
func bestResting(opposite *slabv1.Slab, takerSide orderbookv1.Side) (slabv1.Handle, bool) {
	if takerSide == orderbookv1.SideBid {
		return opposite.FindMin()
	}
	return opposite.FindMax()
}

func eventSide(side orderbookv1.Side) eventsv1.Side {
	if side == orderbookv1.SideBid {
		return eventsv1.SideBid
	}
	return eventsv1.SideAsk
}

func (ob *Orderbook) appendEvent(event eventsv1.Event) error {
	if err := ob.events.Append(event); err != nil {
		return errors.NewErrorDetails("event queue is full", string(errors.ErrEventQueueFull), "events")
	}
	return nil
}
