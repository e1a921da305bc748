package di

import (
	"context"
	"fmt"
	"time"

	"ManifoldPulse/internal/domain/repository"
	mid "ManifoldPulse/internal/middleware"
	internalrepo "ManifoldPulse/internal/repository"
	"ManifoldPulse/internal/service/binance"
	"ManifoldPulse/internal/services/interpreter"
	"ManifoldPulse/internal/services/manifold"
	"ManifoldPulse/internal/usecase"
	pkgch "ManifoldPulse/pkg/clickhouse"
	"ManifoldPulse/pkg/config"
	pkghttp "ManifoldPulse/pkg/http"
	pkgkafka "ManifoldPulse/pkg/kafka"
	"ManifoldPulse/pkg/metrics"
	"ManifoldPulse/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema: raw ticks plus candle rollups per interval
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := []string{
		"CREATE DATABASE IF NOT EXISTS manifold",
		`CREATE TABLE IF NOT EXISTS manifold.ticks_raw (
            ts DateTime, symbol String, price Float64, volume Float64,
            source String, event_id String, seq UInt64, org_id String
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`,
	}
	for _, iv := range []struct{ suffix, bucketFn string }{
		{"1m", "toStartOfMinute(ts)"},
		{"1h", "toStartOfHour(ts)"},
		{"1d", "toStartOfDay(ts)"},
	} {
		ddl = append(ddl,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS manifold.candles_%s (
                bucket DateTime, symbol String,
                open Float64, high Float64, low Float64, close Float64, vol Float64
            ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`, iv.suffix),
			fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS manifold.mv_candles_%s
                TO manifold.candles_%s AS
                SELECT %s AS bucket, symbol,
                    argMin(price, ts) AS open, max(price) AS high,
                    min(price) AS low, argMax(price, ts) AS close,
                    sum(volume) AS vol
                FROM manifold.ticks_raw GROUP BY bucket, symbol`, iv.suffix, iv.suffix, iv.bucketFn),
		)
	}
	if err := client.InitSchema(ctx, ddl); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse storage repository.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".ticks_raw")
}

// ProvideTickPublisher creates Kafka publisher repository.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTicksHandler registers handler for ticks topic.
func ProvideKafkaTicksHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBinanceStream creates the Binance WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *pkghttp.Client {
	return pkghttp.NewClient(pkghttp.WithTimeout(15 * time.Second))
}

// ProvideEngine creates the metrics engine from config.
func ProvideEngine(cfg *config.Config) (*manifold.Engine, error) {
	sensitivity := cfg.Engine.Sensitivity
	if sensitivity == 0 {
		sensitivity = manifold.DefaultSensitivity
	}
	return manifold.NewEngine(sensitivity)
}

// ProvideMultiScaleAnalyzer creates the multi-scale coordinator.
func ProvideMultiScaleAnalyzer(engine *manifold.Engine) *manifold.MultiScaleAnalyzer {
	return manifold.NewMultiScaleAnalyzer(engine)
}

// ProvideInterpreter creates the phase interpreter.
func ProvideInterpreter() *interpreter.Interpreter {
	return interpreter.New()
}

// ProvideTickProcessor creates tick processor use case.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTickCollector creates tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	metrics repository.Metrics,
) *usecase.TickCollector {
	// Build middleware pipeline between WebSocket and Kafka
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, metrics, pipe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	metrics repository.Metrics,
	engine *manifold.Engine,
	multi *manifold.MultiScaleAnalyzer,
	interp *interpreter.Interpreter,
	httpClient *pkghttp.Client,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(consumerTimingHook(metrics)))
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.TickProc = collector.Processor()
	app.SetAnalysisStack(metrics, engine, multi, interp, httpClient)
	app.SetLogProducer(producer)
	return app
}

// consumerTimingHook measures per-message handling latency and carries
// trace ids from message headers into the handler context.
func consumerTimingHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, _ string, _ kafka.Message, _ []byte, _ error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_handle", time.Since(start).Seconds())
			}
		},
		Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, _ error) {
			m.RecordError("kafka_handle_" + topic)
		},
	}
}
