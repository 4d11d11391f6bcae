// Package auditsink picks the audit publisher for a service process.
package auditsink

import (
	"context"
	"fmt"
	"log/slog"

	"paralelogram/internal/platform/config"
	audit "paralelogram/pkg/platform/audit"
	"paralelogram/pkg/platform/audit/kafka"
)

// Open returns a Kafka publisher when brokers are configured and a log
// publisher otherwise. The returned close func is never nil.
func Open(ctx context.Context, cfg config.Audit, logger *slog.Logger) (audit.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.InfoContext(ctx, "no kafka brokers configured, audit events go to the log")
		return audit.NewLogPublisher(logger), func() {}, nil
	}

	pub, err := kafka.New(cfg.KafkaBrokers, cfg.Topic, kafka.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := pub.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		pub.Close()
		return nil, nil, fmt.Errorf("prepare audit topic: %w", err)
	}
	logger.InfoContext(ctx, "audit events go to kafka",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.Topic,
	)
	return pub, pub.Close, nil
}
