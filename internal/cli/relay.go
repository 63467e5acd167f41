package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spscricket/player-service/internal/clock"
	"github.com/spscricket/player-service/internal/guard"
	"github.com/spscricket/player-service/internal/infra"
	"github.com/spscricket/player-service/internal/repository"
)

func newRelayCmd(e *env) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish player lifecycle events from the outbox to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			return relay(cmd.Context(), e, once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Relay a single batch and exit")
	return cmd
}

func relay(parent context.Context, e *env, once bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := e.cfg, e.logger

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	breaker := guard.NewCircuitBreaker(cfg.KafkaBreakerThreshold, cfg.KafkaBreakerReset, clock.New())

	r := infra.NewOutboxRelay(
		repository.NewTransactor(pool),
		repository.NewOutboxRepository(),
		guard.NewBreakerPublisher(producer, breaker),
		logger,
		cfg.KafkaTopicPrefix,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
	)

	if once {
		n, err := r.RelayBatch(ctx)
		if err != nil {
			return err
		}
		logger.Info("outbox batch relayed", "published", n)
		return nil
	}

	r.Run(ctx)
	return nil
}
