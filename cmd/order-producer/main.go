package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	orderreaderv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/order-reader/v1"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// trader is one synthetic market participant: a stable owner identity and the
// gateway token its orders are placed under.
type trader struct {
	owner string
	token string
}

func newTrader() trader {
	return trader{
		owner: identity(),
		token: identity(),
	}
}

// identity derives a 32-byte hex identity from a ULID, so generated owners
// sort roughly by creation time like real account ids do.
func identity() string {
	id := ulid.Make()
	var raw [32]byte
	copy(raw[:16], id[:])
	copy(raw[16:], id[:])
	return hex.EncodeToString(raw[:])
}

// generateCommands creates a realistic command mix: mostly limit orders
// around the base price, some market and IOC orders, and the occasional
// prune of a retired trader's token.
func generateCommands(rng *rand.Rand, count int, basePrice uint64, priceSpread uint64) []orderreaderv1.OrderPayload {
	traders := make([]trader, 16)
	for i := range traders {
		traders[i] = newTrader()
	}

	commands := make([]orderreaderv1.OrderPayload, 0, count)
	for i := 0; i < count; i++ {
		t := traders[rng.Intn(len(traders))]

		// 1% of commands revoke a trader's token.
		if rng.Intn(100) == 0 {
			commands = append(commands, orderreaderv1.OrderPayload{
				Action:       orderreaderv1.ActionPrune,
				GatewayToken: t.token,
			})
			continue
		}

		orderType := "limit"
		switch r := rng.Float64(); {
		case r < 0.2:
			orderType = "market"
		case r < 0.3:
			orderType = "ioc"
		}

		side := "ask"
		isBid := rng.Intn(2) == 0
		if isBid {
			side = "bid"
		}

		var price uint64
		if orderType != "market" {
			offset := rng.Uint64() % priceSpread
			if isBid {
				price = basePrice - offset
			} else {
				price = basePrice + offset
			}
		}

		commands = append(commands, orderreaderv1.OrderPayload{
			Action:        orderreaderv1.ActionPlace,
			Side:          side,
			Type:          orderType,
			Price:         price,
			Quantity:      1 + rng.Uint64()%1000,
			Owner:         t.owner,
			FeeTier:       uint8(rng.Intn(7)),
			ClientOrderID: uint64(i + 1),
			GatewayToken:  t.token,
		})
	}
	return commands
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with commands (optional, generates commands if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending commands")
		count       = flag.Int("count", 1000, "Number of commands to generate")
		basePrice   = flag.Uint64("base-price", 39455, "Base price for orders")
		priceSpread = flag.Uint64("price-spread", 2000, "Price spread range")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var commands []orderreaderv1.OrderPayload
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &commands); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d commands from file: %s", len(commands), *file)
	} else {
		log.Printf("Generating %d commands...", *count)
		commands = generateCommands(rng, *count, *basePrice, *priceSpread)
	}

	log.Printf("Sending commands to Kafka broker: %s, topic: %s", *brokers, *topic)

	for i, cmd := range commands {
		value, err := json.Marshal(cmd)
		if err != nil {
			log.Printf("Failed to marshal command %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(cmd.Owner),
			Value: value,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send command %d: %v", i+1, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(commands)-1 {
			log.Printf("Sent command %d/%d: %s %s %s qty=%d price=%d",
				i+1, len(commands), cmd.Action, cmd.Type, cmd.Side, cmd.Quantity, cmd.Price)
		}

		if i < len(commands)-1 {
			time.Sleep(*delay)
		}
	}

	places := 0
	prunes := 0
	for _, cmd := range commands {
		switch cmd.Action {
		case orderreaderv1.ActionPlace:
			places++
		case orderreaderv1.ActionPrune:
			prunes++
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Commands: %d", len(commands))
	log.Printf("Place Commands: %d", places)
	log.Printf("Prune Commands: %d", prunes)
}
