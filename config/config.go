// Package config loads settings from the environment, optionally seeded
// from a .env file. Keys are CANCELWATCH_<SECTION>_<FIELD>, e.g.
// CANCELWATCH_KAFKA_ORDER_TOPIC. Leaf fields carry no envconfig tag so that
// unprefixed variables such as PATH are never picked up.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/zamyatin-zkex/cancelwatch/internal/service/aggregator"
)

const Prefix = "cancelwatch"

const (
	SourceFile  = "file"
	SourceKafka = "kafka"
)

type Config struct {
	Source Source
	Window Window
	Kafka  Kafka
	Redis  Redis
	Web    Web
	Watch  Watch
	Fake   Fake
	Log    Log
}

type Source struct {
	Kind string `default:"file" validate:"oneof=file kafka"`
	Path string `default:"data/trades.csv"`
}

type Window struct {
	Length      time.Duration `default:"60s" validate:"gt=0"`
	Numerator   int64         `default:"1" validate:"gte=0"`
	Denominator int64         `default:"3" validate:"gt=0"`
}

func (w Window) Policy() aggregator.Policy {
	return aggregator.Policy{
		Window:    w.Length,
		Threshold: aggregator.Ratio{Num: w.Numerator, Den: w.Denominator},
	}
}

type Kafka struct {
	Brokers     []string `default:"127.0.0.1:9092"`
	OrderTopic  string   `split_words:"true" default:"orders"`
	OrderGroup  string   `split_words:"true" default:"cancelwatch"`
	ResultTopic string   `split_words:"true" default:"classifications"`

	// PublishResults sends results of file runs to ResultTopic too.
	PublishResults bool `split_words:"true" default:"false"`
}

func (k Kafka) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	return cfg
}

type Redis struct {
	Enabled  bool   `default:"false"`
	Addr     string `default:"127.0.0.1:6379"`
	Password string
	DB       int           `default:"0" validate:"gte=0"`
	TTL      time.Duration `default:"24h" validate:"gte=0"`
}

type Web struct {
	Enabled bool   `default:"false"`
	Addr    string `default:"127.0.0.1:4242"`
}

type Watch struct {
	Interval time.Duration `default:"1s" validate:"gt=0"`
}

type Fake struct {
	Enabled    bool     `default:"false"`
	Companies  []string `default:"Ape accountants,Bank of Mars,Cauldron cooking"`
	Rate       float64  `default:"10" validate:"gt=0"`
	CancelRate float64  `split_words:"true" default:"0.25" validate:"gte=0,lte=1"`
	Count      int      `default:"0" validate:"gte=0"`
}

type Log struct {
	Level string `default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.UsesKafka() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("invalid config: kafka brokers are required")
	}
	if c.Source.Kind == SourceFile && c.Source.Path == "" {
		return fmt.Errorf("invalid config: source path is required")
	}

	return nil
}

// UsesKafka reports whether any component needs a broker connection.
func (c *Config) UsesKafka() bool {
	return c.Source.Kind == SourceKafka || c.Kafka.PublishResults || c.Fake.Enabled
}
