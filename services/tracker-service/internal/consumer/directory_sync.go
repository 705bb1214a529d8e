package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/monume/tracker/services/tracker-service/internal/directory"
	"github.com/monume/tracker/services/tracker-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// Topics for directory replication events.
const (
	TopicCustomerUpserted = "directory.customer.upserted.v1"
	TopicCustomerRemoved  = "directory.customer.removed.v1"
	TopicStaffUpserted    = "directory.staff.upserted.v1"
	TopicStaffRemoved     = "directory.staff.removed.v1"
)

func DirectoryTopics() []string {
	return []string{
		TopicCustomerUpserted,
		TopicCustomerRemoved,
		TopicStaffUpserted,
		TopicStaffRemoved,
	}
}

type removedPayload struct {
	ID string `json:"id"`
}

// DirectorySync returns a Handler that replicates upstream customer and
// staff changes into the local directory repository.
func DirectorySync(repo *directory.Repository, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch msg.Topic {
		case TopicCustomerUpserted:
			var c model.Customer
			if err := json.Unmarshal(msg.Value, &c); err != nil {
				return fmt.Errorf("decode customer upsert: %w", err)
			}
			if c.ID == "" {
				return fmt.Errorf("customer upsert missing id")
			}
			return repo.UpsertCustomer(ctx, c)
		case TopicCustomerRemoved:
			var p removedPayload
			if err := json.Unmarshal(msg.Value, &p); err != nil {
				return fmt.Errorf("decode customer removal: %w", err)
			}
			if err := repo.RemoveCustomer(ctx, p.ID); err != nil {
				if model.IsNotFound(err) {
					logger.Info("customer already absent", "customer_id", p.ID)
					return nil
				}
				return err
			}
			return nil
		case TopicStaffUpserted:
			var s model.Staff
			if err := json.Unmarshal(msg.Value, &s); err != nil {
				return fmt.Errorf("decode staff upsert: %w", err)
			}
			if s.ID == "" {
				return fmt.Errorf("staff upsert missing id")
			}
			return repo.UpsertStaff(ctx, s)
		case TopicStaffRemoved:
			var p removedPayload
			if err := json.Unmarshal(msg.Value, &p); err != nil {
				return fmt.Errorf("decode staff removal: %w", err)
			}
			if err := repo.RemoveStaff(ctx, p.ID); err != nil {
				if model.IsNotFound(err) {
					logger.Info("staff already absent", "staff_id", p.ID)
					return nil
				}
				return err
			}
			return nil
		default:
			logger.Warn("unexpected topic", "topic", msg.Topic)
			return nil
		}
	}
}
