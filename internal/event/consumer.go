// Package event keeps the search index in step with the catalogue write path
// by consuming product domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/store"
	pkgkafka "github.com/Saugat913/femite-sub000/pkg/kafka"
)

// Product event types. Producers may send them bare or topic-qualified.
const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeProductDeleted = "product.deleted"
)

// Topics lists the topics the consumer subscribes to.
func Topics() []string {
	return []string{
		pkgkafka.Topic("product", "created"),
		pkgkafka.Topic("product", "updated"),
		pkgkafka.Topic("product", "deleted"),
	}
}

// ProductEventData is the payload of product.created and product.updated.
type ProductEventData struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Stock       int                 `json:"stock"`
	ImageURL    string              `json:"image_url,omitempty"`
	Categories  []string            `json:"categories"`
	Attributes  map[string][]string `json:"attributes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Product converts the payload to a domain product. Missing timestamps
// default to at.
func (d ProductEventData) Product(at time.Time) *domain.Product {
	p := &domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		Categories:  d.Categories,
		Attributes:  d.Attributes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = at
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = at
	}
	return p
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Consumer applies product events to an Indexer.
type Consumer struct {
	indexer store.Indexer
	logger  *slog.Logger
}

// NewConsumer creates a product event consumer.
func NewConsumer(indexer store.Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{indexer: indexer, logger: logger}
}

// Handle processes a Kafka event based on its type. Unknown types are
// acknowledged and skipped.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch strings.TrimPrefix(event.EventType, pkgkafka.TopicPrefix+".") {
	case TypeProductCreated, TypeProductUpdated:
		return c.handleProductChanged(ctx, event)
	case TypeProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProductChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductEventData
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}
	if data.ID == "" {
		c.logger.WarnContext(ctx, "product event without id skipped", slog.String("event_id", event.EventID))
		return nil
	}

	p := data.Product(event.Timestamp)

	if err := c.indexer.Reindex(ctx, p); err != nil {
		return fmt.Errorf("reindex product from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "reindexed product",
		slog.String("product_id", p.ID),
		slog.String("event_type", event.EventType),
	)
	return nil
}

func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	if err := c.indexer.Remove(ctx, data.ID); err != nil {
		return fmt.Errorf("remove product from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "removed product from index", slog.String("product_id", data.ID))
	return nil
}
