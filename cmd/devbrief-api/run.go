package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/devbrief/devbrief/internal/api_server"
	"github.com/devbrief/devbrief/internal/config"
	"github.com/devbrief/devbrief/internal/dispatch"
	"github.com/devbrief/devbrief/internal/events"
	"github.com/devbrief/devbrief/internal/processors"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/pkg/log"
	"github.com/devbrief/devbrief/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the devbrief api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(log.Level(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		metrics.RegisterMetrics()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		if err := s.InitialMigration(ctx); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		zap.S().Info("Connecting to redis")
		client, err := queue.NewClient(cfg)
		if err != nil {
			zap.S().Fatalw("connecting to redis", "error", err)
		}
		defer client.Close()

		subscriber, err := queue.NewSubscriberClient(cfg)
		if err != nil {
			zap.S().Fatalw("connecting subscriber to redis", "error", err)
		}
		defer subscriber.Close()

		producer := events.NewEventProducer(newEventWriter(cfg), events.WithOutputTopic(cfg.Service.Kafka.Topic))
		defer func() { _ = producer.Close() }()

		notifier := queue.NewNotifier(client, subscriber)
		dispatcher := dispatch.NewDispatcher(s, queue.New(client, queue.WorkQueue), notifier, producer)

		manager := processors.NewManager(cfg, s, client, subscriber, producer)
		go manager.Run(ctx)

		go func() {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, s, dispatcher, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
			cancel()
		}()

		go func() {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
			cancel()
		}()

		<-ctx.Done()
		return nil
	},
}

func newEventWriter(cfg *config.Config) events.Writer {
	brokers := cfg.Service.Kafka.Brokers
	if len(brokers) == 0 || brokers[0] == "" {
		zap.S().Info("no kafka brokers configured, events are written to stdout")
		return &events.StdoutWriter{}
	}

	writer, err := events.NewKafkaWriter(brokers, cfg.Service.Kafka.ClientID, cfg.Service.Kafka.Version)
	if err != nil {
		zap.S().Errorw("failed to create kafka writer, falling back to stdout", "error", err)
		return &events.StdoutWriter{}
	}
	return writer
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
