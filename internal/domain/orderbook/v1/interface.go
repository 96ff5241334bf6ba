package orderbookv1

import (
	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	snapshotv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/snapshot/v1"
)

// Book defines the interface for the slab-backed order book.
type Book interface {
	PlaceOrder(req *NewOrderRequest) (*Result, error)
	Cancel(side Side, orderID slabv1.Key) error
	CancelByClientID(owner [32]byte, clientOrderID uint64) error
	Prune(gatewayToken [32]byte) (int, error)
	Events() *eventsv1.Queue
	BidVolume() uint64
	AskVolume() uint64
	CreateSnapshot() *snapshotv1.Snapshot
	RestoreOrderbook(snapshot *snapshotv1.Snapshot) error
}
