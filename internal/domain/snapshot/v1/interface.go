package snapshotv1

import "context"

// Store defines the interface for storing and loading snapshots of the order book.
type Store interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	LoadStore(ctx context.Context) (*Snapshot, error)
}
