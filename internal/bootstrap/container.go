package bootstrap

import (
	"context"
	"fmt"
	"time"

	"finance-qa-be/internal/config"
	"finance-qa-be/internal/controller"
	"finance-qa-be/internal/handler"
	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/internal/repository/contract"
	"finance-qa-be/internal/repository/memory"
	redisRepo "finance-qa-be/internal/repository/redis"
	"finance-qa-be/internal/service"
	"finance-qa-be/internal/websocket"
	"finance-qa-be/pkg/llm/factory"
	pktNats "finance-qa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	SessionFeedHandler *handler.SessionFeedHandler
	WebSocketHub       *websocket.Hub

	Logger       logger.ILogger
	ProviderName string

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Logging
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	for _, warning := range cfg.Warnings() {
		sysLogger.Warn("Config", warning, nil)
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.BaseURL(),
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	c.ProviderName = llmProvider.Name()
	sysLogger.Info("Bootstrap", "Using LLM provider", map[string]interface{}{
		"provider": llmProvider.Name(),
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Infrastructure
	rdb := connectRedis(cfg, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var sessionRepo contract.SessionRepository
	switch cfg.App.SessionStore {
	case "redis":
		if rdb == nil {
			c.Close()
			return nil, fmt.Errorf("SESSION_STORE=redis but Redis at %s is unreachable", cfg.App.RedisURL)
		}
		sessionRepo = redisRepo.NewSessionRepository(rdb, redisRepo.WithTTL(cfg.App.SessionTTL))
	default:
		sessionRepo = memory.NewSessionRepository(cfg.App.SessionTTL)
	}
	sysLogger.Info("Bootstrap", "Session store ready", map[string]interface{}{"store": cfg.App.SessionStore})

	// NATS is optional; events still reach websocket clients without it
	var archive service.EventArchive
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			archive = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/session_feed.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 5. Services
	publisherService := service.NewPublisherService(service.EventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, service.EventTopic, c.WebSocketHub, archive, sysLogger)

	assistantService := service.NewAssistantService(
		sessionRepo,
		llmProvider,
		publisherService,
		sysLogger,
		service.AssistantOptions{
			DefaultMode:        cfg.Assistant.DefaultMode,
			DefaultTemperature: cfg.Ai.Temperature,
			Model:              cfg.Ai.LLMModel,
			RequestTimeout:     cfg.Ai.RequestTimeout,
			SessionTTL:         cfg.App.SessionTTL,
		},
	)

	// 6. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService)
	c.SessionFeedHandler = handler.NewSessionFeedHandler(assistantService, c.WebSocketHub, wsLogger)

	return c, nil
}

// Close releases infrastructure in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// connectRedis returns nil when Redis is not reachable; the hub then runs
// single-instance.
func connectRedis(cfg *config.Config, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
