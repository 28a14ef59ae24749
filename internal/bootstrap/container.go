package bootstrap

import (
	"context"
	"log"
	"time"

	"emergence-monitor-be/internal/config"
	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/controller"
	"emergence-monitor-be/internal/handler"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/internal/pkg/mailer"
	"emergence-monitor-be/internal/repository/memory"
	"emergence-monitor-be/internal/service"
	"emergence-monitor-be/internal/websocket"
	"emergence-monitor-be/pkg/alerts"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/graph"
	"emergence-monitor-be/pkg/metrics"
	"emergence-monitor-be/pkg/mode"
	"emergence-monitor-be/pkg/threshold"

	pktNats "emergence-monitor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	MonitorController controller.IMonitorController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	StreamService   service.IStreamService

	// Simulation link (main.go owns the reconnect loop)
	Stream *channel.Channel

	// WebSockets & Dashboard
	DashboardHandler *handler.DashboardHandler
	WebSocketHub     *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Monitor Engines
	store := metrics.NewStore(cfg.Monitor.WindowSize)

	thresholds := map[string]float64{
		metrics.DerivedNegentropy: cfg.Monitor.NegentropyThreshold,
		metrics.DerivedFeedback:   cfg.Monitor.FeedbackThreshold,
		metrics.DerivedResilience: cfg.Monitor.ResilienceThreshold,
	}
	detector := threshold.NewDetector(thresholds, nil)
	log.Printf("[INFO] Threshold detector armed: negentropy=%.2f feedback=%.2f resilience=%.2f",
		cfg.Monitor.NegentropyThreshold, cfg.Monitor.FeedbackThreshold, cfg.Monitor.ResilienceThreshold)

	rendererCfg := graph.DefaultRendererConfig(cfg.Monitor.CanvasWidth, cfg.Monitor.CanvasHeight)
	rendererCfg.MaxNodes = cfg.Monitor.MaxNodes
	rendererCfg.TickInterval = time.Duration(cfg.Monitor.TickIntervalMs) * time.Millisecond
	rendererCfg.FrameInterval = time.Duration(cfg.Monitor.FrameIntervalMs) * time.Millisecond

	modes := mode.NewController()

	// Simulation link. Connecting is main.go's job; everything here only
	// needs the handle.
	stream := channel.NewChannel(cfg.Simulation.URL, sysLogger)

	// In-Memory Storage (alerts expire, interactions are capped)
	alertStore := memory.NewAlertStore(cfg.Monitor.AlertTTL)
	interactions := memory.NewInteractionLog(cfg.Monitor.InteractionCap)

	// 2.5 Infrastructure (Moved up for dependency injection)
	// NATS
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			log.Printf("[INFO] NATS event publishing enabled (%s)", cfg.App.NatsURL)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		} else {
			log.Printf("[INFO] Redis hub mirroring enabled (%s)", cfg.App.RedisURL)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/dashboard.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3.5 Services
	publisherService := service.NewPublisherService(constant.TopicDashboardEvents, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.TopicDashboardEvents,
		wsHub,
	)

	// The renderer publishes frames through the same bus the other
	// dashboard events ride on.
	renderer := graph.NewRenderer(rendererCfg, publisherService)
	renderer.Start()

	eventsPub := alerts.NewNatsPublisher(natsPub, sysLogger)

	alertService := service.NewAlertService(
		alertStore,
		publisherService,
		eventsPub,
		emailService,
		thresholds,
		cfg.Monitor.AlertMailTo,
		cfg.Monitor.AlertMailSeverity,
		sysLogger,
	)

	// Sibling Alert Fan-in (Worker)
	if natsSub != nil {
		faninService := service.NewFaninService(natsSub, alertStore, publisherService, sysLogger)
		go faninService.Start()
	}

	streamService := service.NewStreamService(
		stream,
		store,
		detector,
		renderer,
		modes,
		interactions,
		alertService,
		publisherService,
		eventsPub,
		sysLogger,
	)

	commandService := service.NewCommandService(stream, modes, sysLogger)

	monitorService := service.NewMonitorService(
		stream,
		store,
		detector,
		renderer,
		modes,
		interactions,
		alertService,
		streamService,
		wsHub,
	)

	// Handler
	dashboardHandler := handler.NewDashboardHandler(wsHub, renderer, cfg.Auth.JwtSecret, wsLogger)

	// 4. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		MonitorController: controller.NewMonitorController(monitorService, commandService, sysLogger),
		DashboardHandler:  dashboardHandler,
		WebSocketHub:      wsHub,

		ConsumerService: consumerService,
		StreamService:   streamService,
		Stream:          stream,
	}
}
