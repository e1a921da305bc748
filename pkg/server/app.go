package server

import (
	"context"
	"log"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/internal/handler/api"
	internalrepo "ManifoldPulse/internal/repository"
	"ManifoldPulse/internal/service/alerts"
	"ManifoldPulse/internal/service/binance"
	icache "ManifoldPulse/internal/service/cache"
	"ManifoldPulse/internal/services/interpreter"
	"ManifoldPulse/internal/services/manifold"
	"ManifoldPulse/internal/usecase"
	pkgcache "ManifoldPulse/pkg/cache"
	pkgch "ManifoldPulse/pkg/clickhouse"
	"ManifoldPulse/pkg/config"
	xhttp "ManifoldPulse/pkg/http"
	pkgkafka "ManifoldPulse/pkg/kafka"
	applogger "ManifoldPulse/pkg/logger"
	"ManifoldPulse/pkg/queue"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.TickCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	TickProc    *usecase.TickProcessor

	metrics    repository.Metrics
	engine     *manifold.Engine
	multi      *manifold.MultiScaleAnalyzer
	interp     *interpreter.Interpreter
	httpClient *xhttp.Client

	watcher     *usecase.AlertWatcher
	alertQueue  *queue.RedisQueue
	redisClient *redis.Client
	producer    *pkgkafka.Producer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetLogProducer enables shipping aggregated error logs to Kafka.
func (a *App) SetLogProducer(p *pkgkafka.Producer) { a.producer = p }

// SetAnalysisStack injects the analysis core built by DI.
func (a *App) SetAnalysisStack(
	metrics repository.Metrics,
	engine *manifold.Engine,
	multi *manifold.MultiScaleAnalyzer,
	interp *interpreter.Interpreter,
	httpClient *xhttp.Client,
) {
	a.metrics = metrics
	a.engine = engine
	a.multi = multi
	a.interp = interp
	a.httpClient = httpClient
}

// buildAnalysisHandler wires candle stores, cache, and alerting into
// the manifold API handler.
func (a *App) buildAnalysisHandler(l *applogger.Logger) xhttp.Handler {
	var store repository.CandleStore
	if a.chClient != nil {
		chStore := internalrepo.NewCHCandleStore(a.chClient)
		chStore.SetLogger(l)
		store = chStore
	}

	// Exchange REST fallback for symbols without local history
	if a.cfg.Binance.RestURL != "" {
		klines := binance.NewKlinesClient(a.cfg.Binance.RestURL, a.httpClient)
		if a.cfg.Cache.Redis.Enabled {
			if rc, err := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(redisHost(a.cfg.Cache.Redis.Addr)),
				pkgcache.WithRedisPort(redisPort(a.cfg.Cache.Redis.Addr)),
				pkgcache.WithRedisPassword(a.cfg.Cache.Redis.Password),
				pkgcache.WithRedisDB(a.cfg.Cache.Redis.DB),
			); err == nil {
				klines.SetCache(pkgcache.NewLayeredCache(rc), a.cfg.Cache.TTL.Analysis)
			} else {
				l.Warn("redis kline cache unavailable", applogger.Error(err))
			}
		}
		if store != nil {
			store = internalrepo.NewFallbackCandleStore(store, klines, l)
		} else {
			store = klines
		}
	}
	if store == nil {
		return nil
	}

	uc := usecase.NewManifoldUseCase(store, a.engine, a.multi, a.interp, a.metrics)
	h := api.NewManifoldHandler(l, uc)
	h.SetCacheTTLs(a.cfg.Cache.TTL.Analysis, a.cfg.Cache.TTL.Multiscale, a.cfg.Cache.TTL.Pulse)

	// Response cache: redis when configured, in-process TTL otherwise
	if a.cfg.Cache.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}

	if a.cfg.Alerts.Enabled {
		a.watcher = a.buildAlertWatcher(uc, l)
		h.SetWatcher(a.watcher)
	}
	candles := api.NewCandlesHandler(usecase.NewCandlesUseCase(store))
	return handlerGroup{h, candles}
}

// handlerGroup registers several route handlers on one Echo instance.
type handlerGroup []xhttp.Handler

func (g handlerGroup) RegisterRoutes(e *echo.Echo) {
	for _, h := range g {
		h.RegisterRoutes(e)
	}
}

// buildAlertWatcher assembles sinks: console always, webhook via the
// redis-backed delivery queue when both are configured, direct webhook
// otherwise.
func (a *App) buildAlertWatcher(uc *usecase.ManifoldUseCase, l *applogger.Logger) *usecase.AlertWatcher {
	sinks := []repository.AlertSink{alerts.NewConsoleSink(l)}

	if a.cfg.Alerts.WebhookURL != "" {
		webhook := alerts.NewWebhookSink(a.httpClient, a.cfg.Alerts.WebhookURL)
		if a.cfg.Cache.Redis.Enabled {
			client := redis.NewClient(&redis.Options{
				Addr:     a.cfg.Cache.Redis.Addr,
				Password: a.cfg.Cache.Redis.Password,
				DB:       a.cfg.Cache.Redis.DB,
			})
			a.redisClient = client
			a.alertQueue = queue.NewRedisConsumer(l,
				&queue.QueueConfig{Workers: 2, QueueSize: 256, RetryLimit: 3, RetryDelay: a.cfg.Alerts.Interval},
				client,
				[]queue.Job{alerts.NewWebhookDeliveryJob(webhook)},
			)
			sinks = append(sinks, alerts.NewQueueSink(a.alertQueue))
		} else {
			sinks = append(sinks, webhook)
		}
	}

	return usecase.NewAlertWatcher(uc, sinks, a.cfg.Binance.Symbols, a.cfg.Alerts.Interval, a.cfg.Alerts.Cooldown, l)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Ship aggregated error logs to Kafka for ops review
	if a.producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "manifold.logs",
			Publisher:      kafkaLogPublisher{a.producer},
		})
		defer l.RemoveCollector()
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil {
		httpHandler = a.buildAnalysisHandler(l)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(l, time.Second),
	)
	a.httpServer.Echo().GET("/health", a.healthHandler)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Binance.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start alert delivery queue and watcher
	if a.alertQueue != nil {
		if err := a.alertQueue.Start(); err != nil {
			l.Warn("alert queue start error", applogger.Error(err))
		}
	}
	if a.watcher != nil {
		a.watcher.Start(ctx)
		l.Info("alert watcher started", applogger.Strings("symbols", a.cfg.Binance.Symbols))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop alerting first so no new work lands in the queue
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.alertQueue != nil {
		if err := a.alertQueue.Stop(ctx); err != nil {
			l.Warn("alert queue stop error", applogger.Error(err))
		}
	}

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close tick processor resources (publisher/storage)
	if a.TickProc != nil {
		a.TickProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}

// healthHandler reports the state of the infrastructure this instance
// actually depends on. Degraded dependencies return 503 so load
// balancers can rotate the instance out.
func (a *App) healthHandler(c echo.Context) error {
	checks := map[string]string{}
	healthy := true

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if a.chClient != nil {
		if err := a.chClient.Health(ctx); err != nil {
			checks["clickhouse"] = err.Error()
			healthy = false
		} else {
			checks["clickhouse"] = "ok"
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := nethttp.StatusOK
	state := "healthy"
	if !healthy {
		status = nethttp.StatusServiceUnavailable
		state = "degraded"
	}
	return c.JSON(status, map[string]interface{}{"status": state, "checks": checks})
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type kafkaLogPublisher struct{ p *pkgkafka.Producer }

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.p.Publish(ctx, topic, nil, payload)
}

func redisHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "localhost"
	}
	return host
}

func redisPort(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 6379
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 6379
	}
	return p
}
