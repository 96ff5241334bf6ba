package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	app "github.com/muhammadchandra19/exchange/services/clob-engine/internal/app/engine"
	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	feesv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/fees/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
	eventpublisher "github.com/muhammadchandra19/exchange/services/clob-engine/internal/usecase/event-publisher"
	orderreader "github.com/muhammadchandra19/exchange/services/clob-engine/internal/usecase/order-reader"
	orderbook "github.com/muhammadchandra19/exchange/services/clob-engine/internal/usecase/orderbook"
	snapshot "github.com/muhammadchandra19/exchange/services/clob-engine/internal/usecase/snapshot"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/config"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/logger"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg = &config.Config{}
	err = config.Load(cfg)
	if err != nil {
		panic(err)
	}

	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}

	log = logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = strings.Split(cfg.RedisConfig.Addrs, ",")
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.DB = cfg.RedisConfig.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	// A side sized for n resting orders needs 2n node slots: every resting
	// order is a leaf, and each leaf above the first brings one inner node.
	maxNodes := 2 * cfg.BookConfig.Capacity
	bidBuf := make([]byte, slabv1.RequiredBufferSize(maxNodes))
	askBuf := make([]byte, slabv1.RequiredBufferSize(maxNodes))

	eventQueue, err := eventsv1.NewQueue(cfg.BookConfig.EventQueueCapacity)
	if err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "create_event_queue",
		})
		return
	}

	ob, err := orderbook.NewOrderbook(bidBuf, askBuf, feesv1.DefaultSchedule(), eventQueue)
	if err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "create_orderbook",
		})
		return
	}

	oReader := orderreader.NewReader(cfg.KafkaConfig, log)
	publisher := eventpublisher.NewPublisher(cfg.KafkaConfig, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Market, log)
	engine := app.NewEngine(
		ob,
		oReader,
		publisher,
		snapshotStore,
		log,
		cfg,
	)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("CLOB engine started successfully", logger.Field{
		Key:   "market",
		Value: cfg.Market,
	})

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := publisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_event_publisher",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("CLOB engine shutdown complete")
}
