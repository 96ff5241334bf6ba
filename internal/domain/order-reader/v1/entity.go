package orderreaderv1

import (
	"encoding/hex"
	"fmt"

	orderbookv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/orderbook/v1"
	slabv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/slab/v1"
)

// Command actions carried on the order topic.
const (
	// ActionPlace submits a new order.
	ActionPlace = "place"
	// ActionCancel cancels a resting order by id or by owner+client id.
	ActionCancel = "cancel"
	// ActionPrune force-cancels every resting order placed under a revoked
	// gateway token.
	ActionPrune = "prune"
)

// OrderPayload is the JSON command record consumed from the order topic.
// Binary identities (owner, gateway token) travel hex-encoded.
type OrderPayload struct {
	Action        string `json:"action"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         uint64 `json:"price"`
	Quantity      uint64 `json:"quantity"`
	Owner         string `json:"owner"`
	FeeTier       uint8  `json:"feeTier"`
	ClientOrderID uint64 `json:"clientOrderID"`
	GatewayToken  string `json:"gatewayToken"`
	SelfTrade     string `json:"selfTrade"`

	// OrderID targets an existing resting order (cancel). Hex-encoded
	// 128-bit key, high 64 bits first.
	OrderID string `json:"orderID,omitempty"`

	Offset int64 `json:"offset"` // Offset of the record in the stream
}

// ToNewOrderRequest converts a place command into a validated book request.
func (p *OrderPayload) ToNewOrderRequest() (*orderbookv1.NewOrderRequest, error) {
	owner, err := decode32(p.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	token, err := decode32(p.GatewayToken)
	if err != nil {
		return nil, fmt.Errorf("gatewayToken: %w", err)
	}

	req := &orderbookv1.NewOrderRequest{
		Side:          orderbookv1.Side(p.Side),
		Type:          orderbookv1.OrderType(p.Type),
		Price:         p.Price,
		Quantity:      p.Quantity,
		Owner:         owner,
		FeeTier:       p.FeeTier,
		ClientOrderID: p.ClientOrderID,
		GatewayToken:  token,
		SelfTrade:     orderbookv1.SelfTradeBehavior(p.SelfTrade),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseOrderID decodes the hex order id of a cancel command.
func (p *OrderPayload) ParseOrderID() (slabv1.Key, error) {
	raw, err := hex.DecodeString(p.OrderID)
	if err != nil || len(raw) != 16 {
		return slabv1.Key{}, fmt.Errorf("orderID must be 16 hex-encoded bytes")
	}

	var key slabv1.Key
	for i := 0; i < 8; i++ {
		key.Hi = key.Hi<<8 | uint64(raw[i])
		key.Lo = key.Lo<<8 | uint64(raw[8+i])
	}
	return key, nil
}

// ParseOwner decodes the hex owner identity of a cancel command.
func (p *OrderPayload) ParseOwner() ([32]byte, error) {
	return decode32(p.Owner)
}

// ParseGatewayToken decodes the hex credential of a prune command.
func (p *OrderPayload) ParseGatewayToken() ([32]byte, error) {
	return decode32(p.GatewayToken)
}

// FormatOrderID renders a key the way ParseOrderID reads it.
func FormatOrderID(key slabv1.Key) string {
	var raw [16]byte
	for i := 0; i < 8; i++ {
		raw[i] = byte(key.Hi >> (56 - 8*i))
		raw[8+i] = byte(key.Lo >> (56 - 8*i))
	}
	return hex.EncodeToString(raw[:])
}

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
