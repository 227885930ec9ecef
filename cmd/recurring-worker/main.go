// recurring-worker applies due recurring rules for every owner on a
// fixed interval. It can run alongside finbookd or on its own when the
// server's in-process ticker is not wanted.
package main

import (
	"context"
	"os"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/cli"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/services"
	"finbook/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	st := cli.OpenStore(logger, cfg)

	var events services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		events = amqpClient
	}

	recurring := services.NewRecurringService(st, events)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		if err := st.Close(); err != nil {
			logger.Error("Store close failed", "error", err)
		}
	})

	// Run once at startup so a stopped worker catches up immediately.
	runOnce(ctx, logger, st, recurring)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, logger, st, recurring)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

func runOnce(ctx context.Context, logger *log.Logger, st store.Store, recurring *services.RecurringService) {
	list, err := st.ListUsers(ctx)
	if err != nil {
		logger.Error("Failed to list users", "error", err)
		return
	}

	today := core.DateOf(time.Now())
	total := 0
	for _, u := range list {
		created, err := recurring.ApplyDue(ctx, u.Username, today)
		if err != nil {
			logger.Error("Recurring apply failed",
				log.FieldOwner, u.Username, "error", err)
			continue
		}
		total += len(created)
	}
	if total > 0 {
		logger.Info("Recurring run complete", "created", total, "owners", len(list))
	}
}
