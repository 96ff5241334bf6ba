package eventsv1

import (
	"testing"

	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Fill records carry every field through the codec
func TestEvent_FillCodec(t *testing.T) {
	in := NewFill(
		slabv1.NewKey(100, 7),
		slabv1.NewKey(100, 8),
		SideBid,
		100, 25,
		-30, 220,
	)

	raw := in.Marshal()
	require.Len(t, raw, RecordSize)

	out, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// Test 2: Out records zero-pad up to the fixed slot size
func TestEvent_OutCodec(t *testing.T) {
	in := NewOut(slabv1.NewKey(55, 4))

	raw := in.Marshal()
	require.Len(t, raw, RecordSize)
	for _, b := range raw[17:] {
		assert.Equal(t, byte(0), b)
	}

	out, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeOut, out.Type)
	assert.True(t, in.OrderID.Equal(out.OrderID))
}

// Test 3: Negative fees survive the round trip
func TestEvent_NegativeFee(t *testing.T) {
	in := NewFill(slabv1.NewKey(1, 1), slabv1.NewKey(1, 2), SideAsk, 10, 5, -3, 11)

	out, err := Unmarshal(in.Marshal())
	require.NoError(t, err)
	assert.Equal(t, int64(-3), out.MakerFee)
	assert.Equal(t, int64(11), out.TakerFee)
}

// Test 4: Truncated and unknown records are rejected
func TestEvent_Malformed(t *testing.T) {
	_, err := Unmarshal(nil)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = Unmarshal([]byte{byte(TypeFill), 1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	bad := make([]byte, RecordSize)
	bad[0] = 0x7F
	_, err = Unmarshal(bad)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

// Test 5: The queue hands events back in append order
func TestQueue_FIFO(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	require.NoError(t, q.Append(NewOut(slabv1.NewKey(1, 1))))
	require.NoError(t, q.Append(NewOut(slabv1.NewKey(2, 2))))
	assert.Equal(t, 2, q.Len())

	ev, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(1), ev.OrderID.Price())

	ev, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(2), ev.OrderID.Price())

	_, ok = q.Next()
	assert.False(t, ok)
}

// Test 6: A full queue rejects appends instead of overwriting
func TestQueue_RejectsWhenFull(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	require.NoError(t, q.Append(NewOut(slabv1.NewKey(1, 1))))
	require.NoError(t, q.Append(NewOut(slabv1.NewKey(2, 2))))
	assert.True(t, q.Full())

	err = q.Append(NewOut(slabv1.NewKey(3, 3)))
	assert.ErrorIs(t, err, ErrQueueFull)

	// The queued events are untouched.
	ev, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(1), ev.OrderID.Price())
}

// Test 7: Drain stops when the callback rejects an event
func TestQueue_DrainEarlyStop(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, q.Append(NewOut(slabv1.NewKey(i, i))))
	}

	var seen []uint64
	q.Drain(func(ev Event) bool {
		seen = append(seen, ev.OrderID.Price())
		return len(seen) < 2
	})

	assert.Equal(t, []uint64{1, 2}, seen)
	assert.Equal(t, 1, q.Len())
}
