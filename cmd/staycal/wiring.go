package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityapp "staycal/internal/app/handlers/availability"
	sessionapp "staycal/internal/app/handlers/sessions"
	"staycal/internal/app/middleware"
	appoutbox "staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
	"staycal/internal/infra/baseline"
	"staycal/internal/infra/broker/kafka"
	rediscache "staycal/internal/infra/cache/redis"
	"staycal/internal/infra/config"
	mongodb "staycal/internal/infra/db/mongo"
	"staycal/internal/infra/fetch"
	ginserver "staycal/internal/infra/http/gin"
	"staycal/internal/infra/ics"
	"staycal/internal/infra/inbox"
	"staycal/internal/infra/obs"
	infraoutbox "staycal/internal/infra/outbox"
	"staycal/internal/infra/schedule"
	"staycal/internal/infra/storage/memory"
	"staycal/internal/infra/storage/s3"
	"staycal/internal/infra/validation"
)

const idempotencyTTL = 24 * time.Hour

// outboxStore is what both outbox backends provide: staging for handlers and
// claiming for the relay.
type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Store
}

type application struct {
	commands    commands.Bus
	handlers    ginserver.Handlers
	health      obs.HealthHandlers
	worker      *infraoutbox.Worker
	consumer    *kafka.Consumer
	republisher *schedule.Republisher
	closers     []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}, Timeout: 2 * time.Second}}

	var (
		calendars calendar.Repository
		lister    schedule.PropertyLister
		idStore   middleware.IdempotencyStore
		box       outboxStore
		dedupe    inbox.Deduper
	)
	if cfg.UseMongo() {
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.health.Checks["mongo"] = client.Ping
		repo := mongodb.NewCalendarRepository(client.DB)
		calendars, lister = repo, repo
		idStore = mongodb.NewIdempotencyStore(ctx, client.DB, idempotencyTTL)
		box = infraoutbox.NewMongoStore(ctx, client.DB)
		dedupe = inbox.NewMongoStore(ctx, client.DB, cfg.KafkaGroupID)
		logger.Info("mongo storage enabled", "db", cfg.MongoDB)
	} else {
		repo := memory.NewCalendarRepository()
		calendars, lister = repo, repo
		idStore = memory.NewIdempotencyStore(idempotencyTTL)
		box = memory.NewOutbox()
		dedupe = inbox.NewMemoryStore()
	}

	if cfg.UseRedis() {
		client := rediscache.NewClient(rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		cache := &rediscache.CalendarCache{Next: calendars, Client: client, TTL: cfg.CacheTTL, Logger: logger}
		calendars = cache
		app.health.Checks["redis"] = cache.Ping
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
	}

	var snapshots policies.SnapshotStore = s3.NoopSnapshotStore{}
	if cfg.UseS3() {
		store, err := s3.NewSnapshotStore(s3.Options{
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		snapshots = store
		app.health.Checks["s3"] = store.Ping
	}

	codec := ics.NewCodec()
	enc := appoutbox.JSONEventEncoder{}
	cmdBus := commands.NewInMemoryBus()
	qBus := queries.NewInMemoryBus()

	availabilityapp.Handlers{
		Payload: &availabilityapp.GetPayloadHandler{Calendars: calendars},
		Days:    &availabilityapp.GetResolvedDaysHandler{Calendars: calendars},
		Export:  &availabilityapp.ExportICSHandler{Calendars: calendars, Codec: codec},
		Import:  &availabilityapp.ImportCalendarHandler{Calendars: calendars, Codec: codec, Outbox: box, Encoder: enc},
		Publish: &availabilityapp.PublishICSHandler{Calendars: calendars, Codec: codec, Snapshots: snapshots, Outbox: box, Encoder: enc},
	}.Register(cmdBus, qBus)

	v := validation.New()
	queryBus := middleware.ChainQueries(qBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(v),
	)

	var fetcher widget.Fetcher = fetch.QueryFetcher{Queries: queryBus}
	if cfg.FetchBaseURL != "" {
		fetcher = fetch.NewHTTPFetcher(cfg.FetchBaseURL, cfg.FetchTimeout)
	}
	doc, err := baseline.LoadFile(cfg.BaselinePath)
	if err != nil {
		return nil, err
	}
	defaults, err := doc.Payload(calendar.NewBounds(calendar.Today(nil)))
	if err != nil {
		return nil, err
	}

	sessionStore := memory.NewSessionStore()
	sessionapp.Register(cmdBus,
		&sessionapp.OpenSessionHandler{
			Sessions: sessionStore,
			Fetcher:  fetcher,
			Endpoint: cfg.CalendarEndpoint,
			Baseline: defaults,
			Logger:   logger,
		},
		&sessionapp.Handler{Sessions: sessionStore, Outbox: box, Encoder: enc},
	)
	queries.RegisterHandler[sessionapp.GetViewQuery, dto.SessionView](qBus, sessionapp.GetViewKey, &sessionapp.GetViewHandler{Sessions: sessionStore})

	logger.Debug("buses ready", "commands", cmdBus.Keys(), "queries", qBus.Keys())

	app.commands = middleware.ChainCommands(cmdBus,
		middleware.Logging(logger),
		middleware.Validation(v),
		middleware.Authorization(middleware.TokenAuthorizer{Token: cfg.OperatorToken}),
		middleware.Idempotency(idStore),
		middleware.OutboxFlush(box),
	)

	app.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: queryBus, Commands: app.commands},
		Sessions:     ginserver.SessionHandler{Queries: queryBus, Commands: app.commands},
		RateLimit:    ginserver.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst).Middleware(),
	}

	if cfg.UseKafka() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		app.worker = &infraoutbox.Worker{
			Store:       box,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
	}
	if cfg.UseFeedConsumer() {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, &inbox.FeedHandler{
			Commands:      app.commands,
			Inbox:         dedupe,
			OperatorToken: cfg.OperatorToken,
			Logger:        logger,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.consumer = consumer
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	}
	if cfg.RefreshCron != "" && len(cfg.PublishProperties) > 0 {
		app.republisher = &schedule.Republisher{
			Commands:      app.commands,
			Properties:    cfg.PublishProperties,
			Lister:        lister,
			OperatorToken: cfg.OperatorToken,
			Logger:        logger,
		}
	}
	return app, nil
}

// close releases backends in reverse order of acquisition.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}
