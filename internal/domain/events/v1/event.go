package eventsv1

import (
	"encoding/binary"
	"errors"

	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
)

// ErrMalformedRecord is returned when a serialized record cannot be decoded.
var ErrMalformedRecord = errors.New("malformed event record")

// Type discriminates the event variants.
type Type byte

const (
	// TypeFill records one crossing between a taker and a maker.
	TypeFill Type = 0x01
	// TypeOut records an order leaving the book without (further) filling:
	// fully consumed, canceled, discarded or pruned.
	TypeOut Type = 0x02
)

// Side is the wire encoding of the taker's side in a fill record.
type Side byte

const (
	// SideBid marks the taker as the buyer.
	SideBid Side = 0x00
	// SideAsk marks the taker as the seller.
	SideAsk Side = 0x01
)

// Wire layout sizes. Records are fixed-length: the discriminant byte plus the
// larger of the two payloads, so every ring slot is the same size.
const (
	fillRecordSize = 1 + 16 + 16 + 1 + 8 + 8 + 8 + 8
	outRecordSize  = 1 + 16

	// RecordSize is the serialized size of any event record.
	RecordSize = fillRecordSize
)

// Event is a match outcome recorded for asynchronous settlement. Fill events
// populate every field; Out events only the type and OrderID.
type Event struct {
	Type Type

	MakerOrderID slabv1.Key
	TakerOrderID slabv1.Key
	TakerSide    Side
	Price        uint64
	Quantity     uint64
	MakerFee     int64
	TakerFee     int64

	// OrderID identifies the order an Out event refers to.
	OrderID slabv1.Key
}

// NewFill builds a fill event. Price is always the maker's resting price.
func NewFill(maker, taker slabv1.Key, takerSide Side, price, quantity uint64, makerFee, takerFee int64) Event {
	return Event{
		Type:         TypeFill,
		MakerOrderID: maker,
		TakerOrderID: taker,
		TakerSide:    takerSide,
		Price:        price,
		Quantity:     quantity,
		MakerFee:     makerFee,
		TakerFee:     takerFee,
	}
}

// NewOut builds an out event for the given order id.
func NewOut(orderID slabv1.Key) Event {
	return Event{
		Type:    TypeOut,
		OrderID: orderID,
	}
}

func putKey(b []byte, k slabv1.Key) {
	binary.LittleEndian.PutUint64(b, k.Hi)
	binary.LittleEndian.PutUint64(b[8:], k.Lo)
}

func getKey(b []byte) slabv1.Key {
	return slabv1.Key{
		Hi: binary.LittleEndian.Uint64(b),
		Lo: binary.LittleEndian.Uint64(b[8:]),
	}
}

// Marshal serializes the event into a fixed RecordSize byte record. Out
// records are zero-padded to the slot size.
func (e Event) Marshal() []byte {
	buf := make([]byte, RecordSize)
	buf[0] = byte(e.Type)

	switch e.Type {
	case TypeFill:
		putKey(buf[1:], e.MakerOrderID)
		putKey(buf[17:], e.TakerOrderID)
		buf[33] = byte(e.TakerSide)
		binary.LittleEndian.PutUint64(buf[34:], e.Price)
		binary.LittleEndian.PutUint64(buf[42:], e.Quantity)
		binary.LittleEndian.PutUint64(buf[50:], uint64(e.MakerFee))
		binary.LittleEndian.PutUint64(buf[58:], uint64(e.TakerFee))
	case TypeOut:
		putKey(buf[1:], e.OrderID)
	}
	return buf
}

// Unmarshal decodes a record produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	if len(data) < outRecordSize {
		return Event{}, ErrMalformedRecord
	}

	switch Type(data[0]) {
	case TypeFill:
		if len(data) < fillRecordSize {
			return Event{}, ErrMalformedRecord
		}
		return Event{
			Type:         TypeFill,
			MakerOrderID: getKey(data[1:]),
			TakerOrderID: getKey(data[17:]),
			TakerSide:    Side(data[33]),
			Price:        binary.LittleEndian.Uint64(data[34:]),
			Quantity:     binary.LittleEndian.Uint64(data[42:]),
			MakerFee:     int64(binary.LittleEndian.Uint64(data[50:])),
			TakerFee:     int64(binary.LittleEndian.Uint64(data[58:])),
		}, nil
	case TypeOut:
		return Event{
			Type:    TypeOut,
			OrderID: getKey(data[1:]),
		}, nil
	default:
		return Event{}, ErrMalformedRecord
	}
}
