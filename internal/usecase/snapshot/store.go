package snapshot

import (
	"context"
	"encoding/json"

	snapshotv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/errors"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/logger"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/redis"
)

// Store persists book snapshots in Redis under the market key.
type Store struct {
	market      string
	logger      logger.Interface
	redisclient redis.Client
}

// NewSnapshotStore creates a snapshot store for one market.
func NewSnapshotStore(redisclient redis.Client, market string, log logger.Interface) *Store {
	return &Store{
		market:      market,
		redisclient: redisclient,
		logger:      log,
	}
}

func (s *Store) key() string {
	return "clob:snapshot:" + s.market
}

// Store serializes the snapshot and writes it to Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "market", Value: s.market},
			logger.Field{Key: "action", Value: "marshal snapshot"},
		)
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key(), buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "market", Value: s.market},
			logger.Field{Key: "action", Value: "store snapshot"},
		)
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		logger.Field{Key: "market", Value: s.market},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "sequence", Value: snapshot.Sequence},
	)
	return nil
}

// LoadStore loads the latest snapshot from Redis. A missing snapshot is not
// an error: both return values are nil and the engine starts from an empty
// book.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key())
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "market", Value: s.market},
			logger.Field{Key: "action", Value: "load snapshot"},
		)
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "no snapshot found",
			logger.Field{Key: "market", Value: s.market},
		)
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "market", Value: s.market},
			logger.Field{Key: "action", Value: "unmarshal snapshot"},
		)
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
