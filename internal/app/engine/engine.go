package engine

import (
	"context"
	"sync"
	"time"

	eventpublisherv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/event-publisher/v1"
	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	orderreaderv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/config"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/errors"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/logger"
	"go.uber.org/zap/zapcore"
)

// Engine drives the matching loop: it replays order commands from the order
// stream into the book, publishes the resulting events, and snapshots the
// book periodically so a restart can resume from the last stored offset.
type Engine struct {
	// Core components
	orderbook      orderbookv1.Book
	orderReader    orderreaderv1.OrderReader
	eventPublisher eventpublisherv1.EventPublisher
	snapshotStore  snapshotv1.Store
	logger         logger.Interface
	config         *config.Config

	// bookMu serializes book access between the order processor and the
	// snapshot manager; the book itself holds no locks.
	bookMu sync.Mutex

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	totalFills int64
	fillsMutex sync.RWMutex
}

// NewEngine creates a new instance of Engine with the provided dependencies.
func NewEngine(
	orderbook orderbookv1.Book,
	orderReader orderreaderv1.OrderReader,
	eventPublisher eventpublisherv1.EventPublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	cfg *config.Config,
) *Engine {
	return NewEngineWithOptions(orderbook, orderReader, eventPublisher, snapshotStore, log, cfg, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
func NewEngineWithOptions(
	orderbook orderbookv1.Book,
	orderReader orderreaderv1.OrderReader,
	eventPublisher eventpublisherv1.EventPublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	cfg *config.Config,
	options *Options,
) *Engine {
	e := &Engine{
		orderbook:      orderbook,
		orderReader:    orderReader,
		eventPublisher: eventPublisher,
		snapshotStore:  snapshotStore,
		logger:         log,
		config:         cfg,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	// Load snapshot during initialization
	if err := e.loadSnapshot(context.Background()); err != nil {
		e.logger.GetZap().Fatal("Failed to load snapshot", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	return e
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("Engine started", logger.Field{
		Key:   "market",
		Value: e.config.Market,
	})

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runOrderProcessor reads and processes order commands in a single goroutine,
// so the book sees them in stream order.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting order processor", logger.Field{
		Key:   "market",
		Value: e.config.Market,
	})

	// Resume from the record after the snapshot offset.
	currentOffset := e.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.GetZap().Fatal("Failed to set offset for order reader", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, payload, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			if err := e.processPayload(payload); err != nil {
				e.logPayloadError(err, payload)
			}

			// The command is consumed even when rejected; the offset
			// advances either way.
			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager handles periodic snapshots.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshot()
			}
		}
	}
}

// processPayload applies one command to the book and publishes whatever
// events it produced. Events are drained even when the command fails
// part-way: the book state always matches the published stream.
func (e *Engine) processPayload(payload *orderreaderv1.OrderPayload) error {
	e.bookMu.Lock()
	defer e.bookMu.Unlock()
	defer e.publishEvents()

	switch payload.Action {
	case orderreaderv1.ActionPlace:
		req, err := payload.ToNewOrderRequest()
		if err != nil {
			return err
		}
		res, err := e.orderbook.PlaceOrder(req)
		if res != nil {
			e.logResult(payload, res)
		}
		return err

	case orderreaderv1.ActionCancel:
		if payload.OrderID != "" {
			orderID, err := payload.ParseOrderID()
			if err != nil {
				return err
			}
			return e.orderbook.Cancel(orderbookv1.Side(payload.Side), orderID)
		}
		owner, err := payload.ParseOwner()
		if err != nil {
			return err
		}
		return e.orderbook.CancelByClientID(owner, payload.ClientOrderID)

	case orderreaderv1.ActionPrune:
		token, err := payload.ParseGatewayToken()
		if err != nil {
			return err
		}
		removed, err := e.orderbook.Prune(token)
		e.logger.Info("Pruned revoked credential",
			logger.Field{Key: "removed", Value: removed},
			logger.Field{Key: "offset", Value: payload.Offset},
		)
		return err

	default:
		return errors.NewErrorDetails("unknown command action", string(errors.GeneralBadRequestError), "action")
	}
}

// publishEvents drains the book's event queue to the event topic. A failed
// publish is logged and the remaining events stay queued for the next drain.
func (e *Engine) publishEvents() {
	e.orderbook.Events().Drain(func(ev eventsv1.Event) bool {
		if err := e.eventPublisher.PublishEvent(e.ctx, ev); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "publish_event",
			})
			return false
		}
		return true
	})
}

func (e *Engine) logResult(payload *orderreaderv1.OrderPayload, res *orderbookv1.Result) {
	e.fillsMutex.Lock()
	e.totalFills += int64(res.FillCount)
	currentTotal := e.totalFills
	e.fillsMutex.Unlock()

	e.logger.Debug("Order processed",
		logger.Field{Key: "side", Value: payload.Side},
		logger.Field{Key: "type", Value: payload.Type},
		logger.Field{Key: "fills", Value: res.FillCount},
		logger.Field{Key: "filledQuantity", Value: res.FilledQuantity},
		logger.Field{Key: "remainingQuantity", Value: res.RemainingQuantity},
		logger.Field{Key: "totalFills", Value: currentTotal},
	)
}

// logPayloadError keeps expected rejections at warn level; anything else is
// an engine error.
func (e *Engine) logPayloadError(err error, payload *orderreaderv1.OrderPayload) {
	expected := errors.ErrorCodeEquals(err, errors.ErrOrderNotFound) ||
		errors.ErrorCodeEquals(err, errors.ErrInsufficientAskVolume) ||
		errors.ErrorCodeEquals(err, errors.ErrInsufficientBidVolume) ||
		errors.ErrorCodeEquals(err, errors.ErrInvalidOrderParameters)

	fields := []logger.Field{
		{Key: "action", Value: payload.Action},
		{Key: "offset", Value: payload.Offset},
		{Key: "error", Value: err.Error()},
	}
	if expected {
		e.logger.WarnContext(e.ctx, "Command rejected", fields...)
		return
	}
	e.logger.ErrorContext(e.ctx, err, fields...)
}

// shouldCreateSnapshot checks if a snapshot should be created.
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	delta := currentOffset - lastSnapshotOffset
	return delta >= e.snapshotOffsetDelta
}

// createAndStoreSnapshot creates and stores a snapshot.
func (e *Engine) createAndStoreSnapshot() {
	currentOffset := e.getOrderOffset()

	e.logger.Info("Creating snapshot", logger.Field{
		Key:   "currentOffset",
		Value: currentOffset,
	})

	e.bookMu.Lock()
	snapshot := e.orderbook.CreateSnapshot()
	e.bookMu.Unlock()
	snapshot.OrderOffset = currentOffset

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
	} else {
		e.setLastSnapshotOffset(currentOffset)
	}
}

// Thread-safe getters and setters
func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

// loadSnapshot loads and restores the orderbook from snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}

	if snapshot != nil {
		if err := e.orderbook.RestoreOrderbook(snapshot); err != nil {
			return err
		}
		e.mu.Lock()
		e.orderOffset = snapshot.OrderOffset
		e.lastSnapshotOffset = snapshot.OrderOffset
		e.mu.Unlock()

		e.logger.Info("Orderbook restored from snapshot", logger.Field{
			Key:   "orderOffset",
			Value: snapshot.OrderOffset,
		})
	}

	return nil
}

// GetOrderOffset returns the current order offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset.
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

// GetTotalFills returns the total number of fills processed.
func (e *Engine) GetTotalFills() int64 {
	e.fillsMutex.RLock()
	defer e.fillsMutex.RUnlock()
	return e.totalFills
}
