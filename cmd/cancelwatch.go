package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IBM/sarama"

	"github.com/zamyatin-zkex/cancelwatch/config"
	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/internal/metrics"
	"github.com/zamyatin-zkex/cancelwatch/internal/repository"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/checker"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/consumer"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/faketrader"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/interrupter"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/reader"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/watcher"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/web"
	"github.com/zamyatin-zkex/cancelwatch/pkg/app"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
	"github.com/zamyatin-zkex/cancelwatch/pkg/utils"
)

func main() {
	source := flag.String("source", "", "order source: file or kafka")
	path := flag.String("path", "", "orders CSV file for the file source")
	serve := flag.Bool("serve", false, "serve the web surface, and keep it up after the file is processed")
	flag.Parse()

	if err := run(*source, *path, *serve); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(source, path string, serve bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if source != "" {
		cfg.Source.Kind = source
	}
	if path != "" {
		cfg.Source.Path = path
	}
	if serve {
		cfg.Web.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries the report
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)
	metrics.Register()

	ctx := context.Background()
	eBus := ebus.New()
	chk := checker.NewChecker(cfg.Window.Policy(), eBus, logger)
	application := app.NewApp(logger).WithService("interrupter", interrupter.Interrupter{})

	if cfg.UsesKafka() {
		kafkaCl := utils.Must(sarama.NewClient(cfg.Kafka.Brokers, cfg.Kafka.SaramaConfig()))
		defer utils.Close(logger, "kafka client", kafkaCl.Close)
		prod := utils.Must(sarama.NewSyncProducerFromClient(kafkaCl))
		defer utils.Close(logger, "kafka producer", prod.Close)

		if cfg.Source.Kind == config.SourceKafka || cfg.Kafka.PublishResults {
			chk.AddStore(repository.NewClassification(prod, cfg.Kafka.ResultTopic))
		}

		if cfg.Source.Kind == config.SourceKafka {
			cons := utils.Must(consumer.NewConsumer(kafkaCl, cfg.Kafka.OrderTopic, cfg.Kafka.OrderGroup, eBus, logger))
			eBus.Subscribe(event.ResultPublished{}, ebus.Typed(cons.Commit))
			application.WithService("consumer", cons)
		}

		if cfg.Fake.Enabled {
			trader := faketrader.NewTrader(repository.NewOrder(prod, cfg.Kafka.OrderTopic), cfg.Fake.Rate, cfg.Fake.Companies...).
				CancelRate(cfg.Fake.CancelRate).
				Stop(cfg.Fake.Count)
			application.WithService("faketrader", trader)
		}
	}

	if cfg.Redis.Enabled {
		rdb, err := repository.NewRedisClient(ctx, repository.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer utils.Close(logger, "redis", rdb.Close)
		chk.AddStore(repository.NewRedisResult(rdb, cfg.Redis.TTL))
	}

	if cfg.Source.Kind == config.SourceFile {
		application.WithService("reader", reader.NewReader(cfg.Source.Path, eBus, logger).Linger(cfg.Web.Enabled))
	}

	if cfg.Web.Enabled {
		webServer := web.New(cfg.Web.Addr, logger)
		watch := watcher.NewWatcher(eBus).
			EmitEvery(cfg.Watch.Interval, func(ctx context.Context) (any, error) {
				return event.StatsUpdated{Stats: chk.Stats()}, nil
			})

		eBus.
			Subscribe(event.StatsUpdated{}, ebus.Typed(webServer.UpdateStats)).
			Subscribe(event.CompanyFlagged{}, ebus.Typed(webServer.Flagged)).
			Subscribe(event.ResultPublished{}, ebus.Typed(webServer.Published))

		application.
			WithService("web", webServer).
			WithService("watcher", watch)
	}

	eBus.
		Subscribe(event.OrderReceived{}, ebus.Typed(chk.HandleOrder)).
		Subscribe(event.OrderRejected{}, ebus.Typed(chk.HandleReject)).
		Subscribe(event.StreamFinished{}, ebus.Typed(chk.HandleEnd)).
		Subscribe(event.ResultPublished{}, watcher.LogAny(logger))

	err = application.Run(ctx)
	if errors.Is(err, interrupter.ErrInterrupted) {
		logger.Info("shutting down", "reason", err)
		err = nil
	}

	if cfg.Source.Kind == config.SourceFile {
		if result, ok := chk.Result(); ok {
			report(os.Stdout, result)
		}
	}

	return err
}

func report(w io.Writer, result entity.Classification) {
	fmt.Fprintln(w, "excessive cancellers:")
	for _, company := range result.Excessive {
		fmt.Fprintln(w, company)
	}
	fmt.Fprintf(w, "well-behaved companies: %d\n", result.WellBehaved)
}
