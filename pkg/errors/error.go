package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// ErrBookOutOfSpace represents an error when the order book slab has no free node slots left.
	ErrBookOutOfSpace ErrorCode = "orderbook_out_of_space"
	// ErrDuplicateOrderID represents an error when an order key collides with a resting order.
	ErrDuplicateOrderID ErrorCode = "orderbook_duplicate_order_id"
	// ErrOrderNotFound represents an error when a cancel or lookup misses.
	ErrOrderNotFound ErrorCode = "order_not_found"
	// ErrEventQueueFull represents an error when the event queue rejects an append.
	ErrEventQueueFull ErrorCode = "event_queue_full"
	// ErrInvalidOrderParameters represents an error when an order request is malformed.
	ErrInvalidOrderParameters ErrorCode = "invalid_order_parameters"

	// ErrInsufficientAskVolume represents an error when there is not enough ask volume to fill an order.
	ErrInsufficientAskVolume ErrorCode = "insufficient_ask_volume"
	// ErrInsufficientBidVolume represents an error when there is not enough bid volume to fill an order.
	ErrInsufficientBidVolume ErrorCode = "insufficient_bid_volume"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)
