package engine

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	feesv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/fees/v1"
	orderreaderv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/orderbook/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	snapshotv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/internal/usecase/orderbook"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/config"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader blocks until the test context is cancelled; the engine tests
// drive processPayload directly.
type fakeReader struct {
	setOffsets []int64
	closed     bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, *orderreaderv1.OrderPayload, error) {
	<-ctx.Done()
	return kafka.Message{}, nil, ctx.Err()
}

func (r *fakeReader) SetOffset(offset int64) error {
	r.setOffsets = append(r.setOffsets, offset)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}

type fakePublisher struct {
	published []eventsv1.Event
}

func (p *fakePublisher) PublishEvent(ctx context.Context, event eventsv1.Event) error {
	p.published = append(p.published, event)
	return nil
}

type fakeStore struct {
	loaded *snapshotv1.Snapshot
	stored []*snapshotv1.Snapshot
}

func (s *fakeStore) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	s.stored = append(s.stored, snapshot)
	return nil
}

func (s *fakeStore) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	return s.loaded, nil
}

func newTestBook(t *testing.T) *orderbook.Orderbook {
	t.Helper()

	queue, err := eventsv1.NewQueue(256)
	require.NoError(t, err)

	ob, err := orderbook.NewOrderbook(
		make([]byte, slabv1.RequiredBufferSize(128)),
		make([]byte, slabv1.RequiredBufferSize(128)),
		feesv1.DefaultSchedule(),
		queue,
	)
	require.NoError(t, err)
	return ob
}

func newTestEngine(t *testing.T, store *fakeStore) (*Engine, *orderbook.Orderbook, *fakeReader, *fakePublisher) {
	t.Helper()

	ob := newTestBook(t)
	reader := &fakeReader{}
	publisher := &fakePublisher{}
	log, err := logger.NewLogger()
	require.NoError(t, err)

	cfg := &config.Config{Market: "BTC-USD"}

	e := NewEngine(ob, reader, publisher, store, log, cfg)
	e.ctx = context.Background()
	return e, ob, reader, publisher
}

func hexOwner(b byte) string {
	var owner [32]byte
	owner[0] = b
	return hex.EncodeToString(owner[:])
}

func placePayload(side string, price, quantity uint64, owner byte) *orderreaderv1.OrderPayload {
	return &orderreaderv1.OrderPayload{
		Action:       orderreaderv1.ActionPlace,
		Side:         side,
		Type:         "limit",
		Price:        price,
		Quantity:     quantity,
		Owner:        hexOwner(owner),
		GatewayToken: hexOwner(owner),
	}
}

// Test 1: A fresh engine starts from an empty book and offset -1
func TestNewEngine_NoSnapshot(t *testing.T) {
	e, ob, _, _ := newTestEngine(t, &fakeStore{})

	assert.Equal(t, int64(-1), e.GetOrderOffset())
	assert.Equal(t, uint64(0), ob.BidVolume())
}

// Test 2: The engine restores book state and offsets from a stored snapshot
func TestNewEngine_RestoresSnapshot(t *testing.T) {
	source := newTestBook(t)
	var owner [32]byte
	owner[0] = 1
	_, err := source.PlaceOrder(&orderbookv1.NewOrderRequest{
		Side:     orderbookv1.SideBid,
		Type:     orderbookv1.OrderTypeLimit,
		Price:    10,
		Quantity: 5,
		Owner:    owner,
	})
	require.NoError(t, err)

	snap := source.CreateSnapshot()
	snap.OrderOffset = 42

	e, ob, _, _ := newTestEngine(t, &fakeStore{loaded: snap})

	assert.Equal(t, int64(42), e.GetOrderOffset())
	assert.Equal(t, int64(42), e.GetLastSnapshotOffset())
	assert.Equal(t, uint64(5), ob.BidVolume())
}

// Test 3: Place commands cross the book and publish the resulting events
func TestEngine_ProcessPlace(t *testing.T) {
	e, ob, _, publisher := newTestEngine(t, &fakeStore{})

	require.NoError(t, e.processPayload(placePayload("ask", 10, 5, 1)))
	require.NoError(t, e.processPayload(placePayload("bid", 10, 5, 2)))

	assert.Equal(t, uint64(0), ob.AskVolume())
	assert.Equal(t, int64(1), e.GetTotalFills())

	// One fill and the consumed maker's out.
	require.Len(t, publisher.published, 2)
	assert.Equal(t, eventsv1.TypeFill, publisher.published[0].Type)
	assert.Equal(t, eventsv1.TypeOut, publisher.published[1].Type)
	assert.Equal(t, 0, ob.Events().Len(), "queue must be drained")
}

// Test 4: Cancel by order id removes the resting order
func TestEngine_ProcessCancelByOrderID(t *testing.T) {
	e, ob, _, publisher := newTestEngine(t, &fakeStore{})

	require.NoError(t, e.processPayload(placePayload("ask", 10, 5, 1)))

	keys := ob.RestingOrderIDs(orderbookv1.SideAsk)
	require.Len(t, keys, 1)

	require.NoError(t, e.processPayload(&orderreaderv1.OrderPayload{
		Action:  orderreaderv1.ActionCancel,
		Side:    "ask",
		OrderID: orderreaderv1.FormatOrderID(keys[0]),
	}))

	assert.Equal(t, uint64(0), ob.AskVolume())
	require.Len(t, publisher.published, 1)
	assert.Equal(t, eventsv1.TypeOut, publisher.published[0].Type)
}

// Test 5: Cancel without an order id falls back to owner and client id
func TestEngine_ProcessCancelByClientID(t *testing.T) {
	e, ob, _, _ := newTestEngine(t, &fakeStore{})

	payload := placePayload("bid", 10, 5, 3)
	payload.ClientOrderID = 99
	require.NoError(t, e.processPayload(payload))

	require.NoError(t, e.processPayload(&orderreaderv1.OrderPayload{
		Action:        orderreaderv1.ActionCancel,
		Owner:         hexOwner(3),
		ClientOrderID: 99,
	}))

	assert.Equal(t, uint64(0), ob.BidVolume())
}

// Test 6: Prune removes all orders under the revoked token
func TestEngine_ProcessPrune(t *testing.T) {
	e, ob, _, publisher := newTestEngine(t, &fakeStore{})

	require.NoError(t, e.processPayload(placePayload("bid", 10, 5, 4)))
	require.NoError(t, e.processPayload(placePayload("ask", 20, 5, 4)))

	require.NoError(t, e.processPayload(&orderreaderv1.OrderPayload{
		Action:       orderreaderv1.ActionPrune,
		GatewayToken: hexOwner(4),
	}))

	assert.Equal(t, uint64(0), ob.BidVolume())
	assert.Equal(t, uint64(0), ob.AskVolume())
	assert.Len(t, publisher.published, 2)
}

// Test 7: Unknown actions and malformed payloads are rejected
func TestEngine_ProcessInvalidPayload(t *testing.T) {
	e, _, _, _ := newTestEngine(t, &fakeStore{})

	err := e.processPayload(&orderreaderv1.OrderPayload{Action: "merge"})
	assert.Error(t, err)

	err = e.processPayload(&orderreaderv1.OrderPayload{
		Action: orderreaderv1.ActionPlace,
		Side:   "bid",
		Type:   "limit",
		Owner:  "not-hex",
	})
	assert.Error(t, err)
}

// Test 8: Snapshot trigger honors the offset delta
func TestEngine_ShouldCreateSnapshot(t *testing.T) {
	e, _, _, _ := newTestEngine(t, &fakeStore{})
	e.snapshotOffsetDelta = 100

	assert.False(t, e.shouldCreateSnapshot(), "no offset yet")

	e.setOrderOffset(50)
	assert.False(t, e.shouldCreateSnapshot())

	e.setOrderOffset(150)
	assert.True(t, e.shouldCreateSnapshot())
}

// Test 9: createAndStoreSnapshot stamps the offset and advances the marker
func TestEngine_CreateAndStoreSnapshot(t *testing.T) {
	store := &fakeStore{}
	e, _, _, _ := newTestEngine(t, store)

	require.NoError(t, e.processPayload(placePayload("bid", 10, 5, 1)))
	e.setOrderOffset(7)

	e.createAndStoreSnapshot()

	require.Len(t, store.stored, 1)
	assert.Equal(t, int64(7), store.stored[0].OrderOffset)
	assert.NotEmpty(t, store.stored[0].Bids)
	assert.Equal(t, int64(7), e.GetLastSnapshotOffset())
}

// Test 10: Start and Stop shut the processor down cleanly
func TestEngine_StartStop(t *testing.T) {
	reader := &fakeReader{}
	publisher := &fakePublisher{}
	log, err := logger.NewLogger()
	require.NoError(t, err)

	e := NewEngine(newTestBook(t), reader, publisher, &fakeStore{}, log, &config.Config{Market: "BTC-USD"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Start(ctx))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, e.Stop(stopCtx))

	assert.True(t, reader.closed)
	require.NotEmpty(t, reader.setOffsets)
	assert.Equal(t, int64(-1), reader.setOffsets[0])
}
