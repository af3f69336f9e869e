// Package outbox drains lifecycle events written transactionally alongside
// reservation state changes and publishes them to the broker.
package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventbooking/internal/adapters/crdb"
	"eventbooking/internal/adapters/rabbit"
	"eventbooking/internal/observability"
)

type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.Error("outbox drain failed", err)
			}
		}
	}
}

func (p *Publisher) drain(ctx context.Context) error {
	records, err := p.repo.GetUnpublishedOutbox(ctx, 100)
	if err != nil {
		return err
	}
	for _, rec := range records {
		observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("outbox_id", rec.ID).Error("publish failed", err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, rec.ID, time.Now().UTC()); err != nil {
			p.logger.WithField("outbox_id", rec.ID).Error("mark published failed", err)
		}
	}
	return nil
}
