package bootstrap

import (
	"context"
	"log"

	"eq-coach-be/internal/config"
	"eq-coach-be/internal/controller"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/mailer"
	"eq-coach-be/internal/pkg/serverutils"
	"eq-coach-be/internal/repository/memory"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/internal/service"
	"eq-coach-be/internal/websocket"
	"eq-coach-be/pkg/chat/history"
	"eq-coach-be/pkg/chat/quota"
	"eq-coach-be/pkg/chat/session"
	"eq-coach-be/pkg/embedding"
	"eq-coach-be/pkg/events"
	"eq-coach-be/pkg/functions"
	"eq-coach-be/pkg/llm/factory"
	memorymanager "eq-coach-be/pkg/memory"
	pktNats "eq-coach-be/pkg/nats"
	"eq-coach-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	MemoryController    controller.IMemoryController
	FunctionsController controller.IFunctionsController
	WsController        controller.IWsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ReminderService service.IReminderService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS (domain events are dropped when it is unreachable)
	var sink events.Sink
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		sink = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	eventPublisher := events.NewPublisher(sink, sysLogger)

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	localStore, redisUp := store.NewKeyValue(context.Background(), rdb, "eqcoach:")
	if redisUp {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		log.Printf("[WARN] Redis unreachable, chat snapshots stay in-process")
		_ = rdb.Close()
		rdb = nil
	}
	// session identifiers never outlive the process, like a browser tab
	ephemeralStore := store.NewCacheStore(store.DefaultCleanupInterval)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	c.WebSocketHub = wsHub

	// 4. Services
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	publisherService := service.NewPublisherService(cfg.Memory.ReindexTopic, pubSub)
	functionService := service.NewMemoryFunctionService(uowFactory, publisherService, sysLogger)
	c.ConsumerService = service.NewMemoryIndexConsumer(
		pubSub,
		cfg.Memory.ReindexTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	var backend memorymanager.Backend = functionService
	if cfg.Memory.Backend == "remote" {
		backend = functions.NewMemoryBackend(functions.NewClient(cfg.Memory.FunctionsBaseURL, cfg.Memory.FunctionsAPIKey))
		log.Printf("[INFO] Using remote memory functions at %s", cfg.Memory.FunctionsBaseURL)
	}
	memoryManager := memorymanager.NewManager(uowFactory, backend, wsHub, eventPublisher, sysLogger)

	sessionRepo := memory.NewSessionRepository(cfg.Chat.SessionTTL, sysLogger)
	chatService := service.NewChatService(service.ChatServiceDeps{
		UowFactory: uowFactory,
		Sessions:   sessionRepo,
		SessionDeps: session.Deps{
			History:         history.NewLoader(uowFactory, localStore, sysLogger),
			Local:           localStore,
			UowFactory:      uowFactory,
			Logger:          sysLogger,
			PersistInterval: cfg.Chat.PersistDebounce,
			SnapshotTTL:     cfg.Chat.SnapshotTTL,
		},
		Resolver:     session.NewResolver(ephemeralStore, cfg.Chat.SessionIdTTL, sysLogger),
		Quota:        quota.NewChecker(wsHub),
		LLM:          llmProvider,
		Pusher:       wsHub,
		Events:       eventPublisher,
		Logger:       sysLogger,
		SystemPrompt: cfg.Ai.SystemPrompt,
	})

	c.ReminderService = service.NewReminderService(uowFactory, emailService, cfg.Reminder, sysLogger)

	// 5. Controllers
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.ChatController = controller.NewChatController(chatService, jwtMiddleware)
	c.MemoryController = controller.NewMemoryController(memoryManager, jwtMiddleware)
	c.FunctionsController = controller.NewFunctionsController(functionService, serverutils.NewApiKeyMiddleware(cfg.Memory.FunctionsAPIKey), sysLogger)
	c.WsController = controller.NewWsController(wsHub, cfg.App.JwtSecret, wsLogger)

	return c
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
