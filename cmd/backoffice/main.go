package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	documentapp "github.com/wyfcoding/visabackoffice/internal/document/application"
	documentmysql "github.com/wyfcoding/visabackoffice/internal/document/infrastructure/persistence/mysql"
	documenthttp "github.com/wyfcoding/visabackoffice/internal/document/interfaces/http"
	notificationapp "github.com/wyfcoding/visabackoffice/internal/notification/application"
	notificationcache "github.com/wyfcoding/visabackoffice/internal/notification/infrastructure/cache"
	notificationmysql "github.com/wyfcoding/visabackoffice/internal/notification/infrastructure/persistence/mysql"
	notificationconsumer "github.com/wyfcoding/visabackoffice/internal/notification/interfaces/consumer"
	notificationhttp "github.com/wyfcoding/visabackoffice/internal/notification/interfaces/http"
	paymentapp "github.com/wyfcoding/visabackoffice/internal/payment/application"
	paymentdomain "github.com/wyfcoding/visabackoffice/internal/payment/domain"
	paymentmysql "github.com/wyfcoding/visabackoffice/internal/payment/infrastructure/persistence/mysql"
	"github.com/wyfcoding/visabackoffice/internal/payment/infrastructure/pricing"
	paymenthttp "github.com/wyfcoding/visabackoffice/internal/payment/interfaces/http"
	visaapp "github.com/wyfcoding/visabackoffice/internal/visa/application"
	visadomain "github.com/wyfcoding/visabackoffice/internal/visa/domain"
	visamysql "github.com/wyfcoding/visabackoffice/internal/visa/infrastructure/persistence/mysql"
	visahttp "github.com/wyfcoding/visabackoffice/internal/visa/interfaces/http"
	workflowapp "github.com/wyfcoding/visabackoffice/internal/workflow/application"
	workflowdomain "github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	workflowmysql "github.com/wyfcoding/visabackoffice/internal/workflow/infrastructure/persistence/mysql"
	workflowhttp "github.com/wyfcoding/visabackoffice/internal/workflow/interfaces/http"

	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/backoffice/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "backoffice",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. Infrastructure
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&visamysql.VisaApplicationModel{},
			&visamysql.StatusHistoryModel{},
			&visamysql.MemoModel{},
			&documentmysql.DocumentModel{},
			&workflowmysql.WorkflowTemplateModel{},
			&workflowmysql.ApplicationWorkflowModel{},
			&paymentmysql.PaymentModel{},
			&notificationmysql.NotificationModel{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	// 5. Kafka & Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)
	publisher := outbox.NewPublisher(outboxMgr)

	// 6. Repositories
	applicationRepo := visamysql.NewVisaApplicationRepository(db.RawDB())
	historyRepo := visamysql.NewStatusHistoryRepository(db.RawDB())
	memoRepo := visamysql.NewMemoRepository(db.RawDB())
	documentRepo := documentmysql.NewDocumentRepository(db.RawDB())
	templateRepo := workflowmysql.NewTemplateRepository(db.RawDB())
	workflowRepo := workflowmysql.NewWorkflowRepository(db.RawDB())
	paymentRepo := paymentmysql.NewPaymentRepository(db.RawDB())
	notificationRepo := notificationmysql.NewNotificationRepository(db.RawDB())

	// 7. Application Services
	unreadCounter := notificationcache.NewRedisUnreadCounter(redisCache.GetClient())
	notificationSvc := notificationapp.NewNotificationService(notificationRepo, unreadCounter, logger.Logger)
	dispatcher := notificationapp.NewDispatcher(notificationSvc, logger.Logger)

	documentQuerySvc := documentapp.NewDocumentQueryService(documentRepo)
	documentCommandSvc := documentapp.NewDocumentCommandService(documentRepo, publisher, logger.Logger)
	documentCommandSvc.AddObserver(dispatcher)

	paymentQuerySvc := paymentapp.NewPaymentQueryService(paymentRepo)
	workflowQuerySvc := workflowapp.NewWorkflowQueryService(workflowRepo, templateRepo)

	visaQuerySvc := visaapp.NewApplicationQueryService(applicationRepo, historyRepo, memoRepo)
	visaCommandSvc := visaapp.NewApplicationCommandService(
		applicationRepo,
		historyRepo,
		documentQuerySvc,
		paymentQuerySvc,
		workflowQuerySvc,
		publisher,
		logger.Logger,
	)
	visaCommandSvc.AddObserver(dispatcher)
	memoSvc := visaapp.NewMemoCommandService(memoRepo, applicationRepo, logger.Logger)

	workflowCommandSvc := workflowapp.NewWorkflowCommandService(workflowRepo, templateRepo, visaQuerySvc, publisher, logger.Logger)
	workflowCommandSvc.AddObserver(dispatcher)
	templateSvc := workflowapp.NewTemplateCommandService(templateRepo, logger.Logger)

	pricer := pricing.NewTablePricer()
	paymentCommandSvc := paymentapp.NewPaymentCommandService(paymentRepo, pricer, visaQuerySvc, publisher, logger.Logger)
	paymentCommandSvc.AddObserver(dispatcher)

	// 8. Projection Consumers
	lifecycleHandler := notificationconsumer.NewLifecycleEventHandler(unreadCounter, logger.Logger)
	projectionTopics := []string{
		visadomain.TopicApplicationStatusChanged,
		workflowdomain.TopicWorkflowCompleted,
		paymentdomain.TopicInvoiceCreated,
		paymentdomain.TopicPaymentCompleted,
	}
	projectionConsumers := make([]*kafka.Consumer, 0, len(projectionTopics))
	for _, topic := range projectionTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "backoffice-notification-group"
		}
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		consumer.Start(context.Background(), 3, lifecycleHandler.Handle)
		projectionConsumers = append(projectionConsumers, consumer)
	}

	// 9. Interfaces
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	visahttp.NewApplicationHandler(visaCommandSvc, memoSvc, visaQuerySvc).RegisterRoutes(api)
	documenthttp.NewDocumentHandler(documentCommandSvc, documentQuerySvc).RegisterRoutes(api)
	workflowhttp.NewWorkflowHandler(workflowCommandSvc, templateSvc, workflowQuerySvc).RegisterRoutes(api)
	paymenthttp.NewPaymentHandler(paymentCommandSvc, paymentQuerySvc).RegisterRoutes(api)
	notificationhttp.NewNotificationHandler(notificationSvc).RegisterRoutes(api)

	// 10. Start
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server := &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		for _, c := range projectionConsumers {
			if c != nil {
				_ = c.Close()
			}
		}
		_ = redisCache.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
