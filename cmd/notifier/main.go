// The notifier consumes reservation lifecycle events from the broker and
// records them in the Mongo audit trail.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	mongoadapter "eventbooking/internal/adapters/mongo"
	"eventbooking/internal/adapters/rabbit"
	"eventbooking/internal/config"
	"eventbooking/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("eventbooking"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "audit.q", "reservation.#")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	go func() {
		for d := range deliveries {
			d := d
			g.Go(func() error {
				process(gctx, audit, logger, d)
				return nil
			})
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
	g.Wait()
	logger.Info("Shutdown notifier")
}

func process(ctx context.Context, audit *mongoadapter.AuditLogger, logger observability.Logger, d amqp.Delivery) {
	var data map[string]interface{}
	if err := json.Unmarshal(d.Body, &data); err != nil {
		logger.Error("malformed lifecycle event", err)
		d.Nack(false, false)
		return
	}

	if err := audit.Record(ctx, d.RoutingKey, data); err != nil {
		// Requeue once; the broker redelivers.
		d.Nack(false, !d.Redelivered)
		return
	}
	d.Ack(false)
}
