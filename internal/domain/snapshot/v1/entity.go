package snapshotv1

// Snapshot captures the full book state at a stream offset: the raw slab
// buffers byte for byte, plus the sequence counter that keys new orders.
type Snapshot struct {
	OrderOffset int64  `json:"orderOffset"`
	Sequence    uint64 `json:"sequence"`
	Bids        []byte `json:"bids"`
	Asks        []byte `json:"asks"`
}
