// backup-worker keeps per-owner JSON snapshots in the backup directory.
// It consumes mutation messages from AMQP and re-snapshots the affected
// owner; a periodic full backup catches anything a lost message missed.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/cli"
	"finbook/internal/log"
	"finbook/internal/worker"
)

const fullBackupInterval = 6 * time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentBackup)
	logger.Info("Starting backup-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	st := cli.OpenStore(logger, cfg)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		logger.Info("Consuming mutation messages", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - running periodic backups only")
	}

	backup := worker.NewBackupWorker(st, cfg.BackupDir)

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

	// Full snapshot at startup so the backup dir is complete even if
	// the worker was down while mutations happened.
	if err := backup.BackupAll(ctx); err != nil {
		logger.Error("Startup backup failed", "error", err)
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeMutations(ctx, backup.HandleMutation); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Mutation consumption failed", "error", err)
				}
			}
		}()
	}

	ticker := time.NewTicker(fullBackupInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := backup.BackupAll(ctx); err != nil {
					logger.Error("Periodic backup failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
