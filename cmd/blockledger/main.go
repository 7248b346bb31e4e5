package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/blockledger/internal/chainevents"
	"github.com/gabapcia/blockledger/internal/chainstate"
	"github.com/gabapcia/blockledger/internal/config"
	"github.com/gabapcia/blockledger/internal/handlers/cli"
	"github.com/gabapcia/blockledger/internal/infra/storage/redis"
	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/pkg/logger"
	"github.com/gabapcia/blockledger/internal/pkg/resilience/retry"
	"github.com/gabapcia/blockledger/internal/pkg/telemetry"
	"github.com/gabapcia/blockledger/internal/simulation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type eventSink interface {
	chainevents.Sink
	io.Closer
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			err = errors.Join(err, shutdown(context.WithoutCancel(ctx)))
		}()
	}

	r := retry.New(retry.WithAttempts(cfg.RetryAttempts))
	eventOpts := []chainevents.Option{
		chainevents.WithBufferSize(cfg.EventBuffer),
		chainevents.WithRetry(r),
	}

	if cfg.Redis.Enabled {
		var sink eventSink
		err := r.Execute(ctx, func() error {
			c, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB,
				redis.WithStream(cfg.Redis.Stream),
				redis.WithStreamMaxLen(cfg.Redis.StreamMaxLen),
			)
			if err != nil {
				return err
			}
			sink = c
			return nil
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer sink.Close()

		eventOpts = append(eventOpts, chainevents.WithSink(sink))
		logger.Info(ctx, "publishing block events to redis", "redis.addr", cfg.Redis.Addr, "redis.stream", cfg.Redis.Stream)
	}

	events := chainevents.New(eventOpts...)
	if err := events.Start(ctx); err != nil {
		return err
	}
	defer events.Close()

	newChain := func(genesis *ledger.Block) *chainstate.Chain {
		return chainstate.New(genesis,
			chainstate.WithRetentionWindow(cfg.RetentionWindow),
			chainstate.WithObserver(events.Observe),
		)
	}

	return cli.Run(ctx, newChain, simulation.WithReward(cfg.Reward()))
}
