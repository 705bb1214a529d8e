// directory-event-sim publishes fake directory sync events to Kafka so
// a local tracker-service can be exercised without the admin service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/monume/tracker/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers = flag.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "comma-separated kafka brokers")
		kind    = flag.String("kind", getenv("ENTITY_KIND", "staff"), "entity kind: staff or customer")
		action  = flag.String("action", getenv("ACTION", "upserted"), "action: upserted or removed")
		id      = flag.String("id", "", "entity id (generated when empty)")
		name    = flag.String("name", getenv("ENTITY_NAME", "Maria Santos"), "staff name or customer 'First Last'")
		phone   = flag.String("phone", getenv("ENTITY_PHONE", ""), "customer phone")
	)
	flag.Parse()

	entityID := strings.TrimSpace(*id)
	if entityID == "" {
		entityID = uuid.NewString()
	}

	topic, payload, err := buildEvent(*kind, *action, entityID, *name, *phone)
	if err != nil {
		fatal(err.Error())
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  kafkax.SplitBrokers(*brokers),
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(entityID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(topic)},
		},
	})
	if err != nil {
		fatal(err.Error())
	}

	fmt.Printf("published topic=%s id=%s\n", topic, entityID)
}

func buildEvent(kind, action, id, name, phone string) (string, []byte, error) {
	if action != "upserted" && action != "removed" {
		return "", nil, fmt.Errorf("unsupported action: %s", action)
	}

	switch kind {
	case "staff":
		topic := "directory.staff." + action + ".v1"
		if action == "removed" {
			payload, err := json.Marshal(map[string]any{"id": id})
			return topic, payload, err
		}
		payload, err := json.Marshal(map[string]any{"id": id, "name": name})
		return topic, payload, err
	case "customer":
		topic := "directory.customer." + action + ".v1"
		if action == "removed" {
			payload, err := json.Marshal(map[string]any{"id": id})
			return topic, payload, err
		}
		first, last := splitName(name)
		payload, err := json.Marshal(map[string]any{
			"id":         id,
			"first_name": first,
			"last_name":  last,
			"phone":      phone,
		})
		return topic, payload, err
	default:
		return "", nil, fmt.Errorf("unsupported entity kind: %s", kind)
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
