package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodlink/internal/lifecycle"
	"bloodlink/internal/notify"
	"bloodlink/internal/server"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server, notification dispatcher and expiry sweeper",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)

	eng, err := newEngine(ctx, config, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	inbox := notify.NewInbox(config.InboxSize)
	sinks := notify.MultiSink{notify.NewLogSink(logger), inbox}

	if len(config.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafkaSink(config.KafkaBrokers, config.KafkaTopic)
		if err != nil {
			return fmt.Errorf("failed to create kafka sink: %w", err)
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
		logger.WithField("topic", config.KafkaTopic).Info("publishing notifications to kafka")
	}

	dispatcher := notify.NewAsync(sinks, logger,
		notify.WithBuffer(config.DispatchBuffer),
		notify.WithWorkers(config.DispatchWorkers),
		notify.WithMetrics(eng.metrics),
	)

	manager := lifecycle.New(
		logger,
		eng.requests,
		eng.donors,
		eng.hospitals,
		eng.matcher,
		dispatcher,
		lifecycle.WithMetrics(eng.metrics),
		lifecycle.WithDonationStore(eng.donations),
		lifecycle.WithIdleExpiry(time.Duration(config.RequestIdleExpiryMin)*time.Minute),
	)

	srv := server.New(config, logger, manager, eng.donors, inbox, eng.promReg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if config.RequestIdleExpiryMin > 0 {
		sweeper := lifecycle.NewSweeper(manager, time.Duration(config.ExpirySweepSec)*time.Second, logger)
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return errors.Join(
			srv.Stop(shutdownCtx),
			dispatcher.Close(shutdownCtx),
		)
	})

	return g.Wait()
}
