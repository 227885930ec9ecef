package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finbook/internal/amqp"
	"finbook/internal/auth"
	"finbook/internal/cli"
	"finbook/internal/core"
	httpapi "finbook/internal/http"
	"finbook/internal/log"
	"finbook/internal/services"
	"finbook/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting finbookd")

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
		logger.Info("Mutation publishing enabled",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Mutation publishing disabled - no AMQP_URL provided")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	recurring := services.NewRecurringService(st, events)

	srv := httpapi.NewServer(":"+cfg.Port, httpapi.Deps{
		Store:     st,
		Tokens:    tokens,
		Users:     services.NewUserService(st),
		Txns:      services.NewTransactionService(st, events),
		Budgets:   services.NewBudgetService(st, events),
		Goals:     services.NewGoalService(st, events),
		Recurring: recurring,
		Reminders: services.NewReminderService(st, events),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		if err := st.Close(); err != nil {
			logger.Error("Store close failed", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// In-process catch-up for due recurring rules. The standalone
	// recurring-worker does the same; running both is harmless since
	// applying due rules is idempotent per day.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				applyDueForAllOwners(gctx, logger, st, recurring)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Fatal server error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}

func applyDueForAllOwners(ctx context.Context, logger *log.Logger, st store.Store, recurring *services.RecurringService) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		logger.Error("Failed to list users for recurring run", "error", err)
		return
	}

	today := core.DateOf(time.Now())
	for _, u := range users {
		created, err := recurring.ApplyDue(ctx, u.Username, today)
		if err != nil {
			logger.Error("Recurring apply failed",
				log.FieldOwner, u.Username, "error", err)
			continue
		}
		if len(created) > 0 {
			logger.Info("Recurring rules applied",
				log.FieldOwner, u.Username, "created", len(created))
		}
	}
}
