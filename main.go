package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"collab-service/internal/config"
	"collab-service/internal/db"
	"collab-service/internal/handlers"
	"collab-service/internal/jobs"
	"collab-service/internal/logging"
	"collab-service/internal/middleware"
	"collab-service/internal/observability"
	"collab-service/internal/payment"
	"collab-service/internal/rabbitmq"
	"collab-service/internal/repositories"
	"collab-service/internal/session"
	"collab-service/internal/storage"
	"collab-service/internal/telemetry"
	"collab-service/internal/ws"
)

const serviceName = "collab-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", os.Stderr).WithError(err).Fatal("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		logger.WithError(err).Fatal("failed to init tracer")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to db")
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.WithFields(logrus.Fields{
		"mode":        rabbitmq.PublisherMode(publisher),
		"noop_reason": rabbitmq.PublisherNoopReason(publisher),
	}).Info("event publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, "audit.log", serviceName, cfg.Environment, logger)

	userRepo := repositories.NewUserRepo(database)
	relationshipRepo := repositories.NewRelationshipRepo(database)
	projectRepo := repositories.NewProjectRepo(database)
	cardRepo := repositories.NewCardRepo(database)
	taskRepo := repositories.NewTaskRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	paymentRepo := repositories.NewPaymentRepo(database)

	sessions := session.NewRedisStore(rdb, cfg.SessionMaxAge)
	cookies := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookies())

	hub := ws.NewHub(projectRepo, logger)
	ingress := ws.NewMessageService(chatRepo, messageRepo, hub, logger)
	gateway := ws.NewGateway(hub, ingress, chatRepo, sessions, cookies, userRepo, cfg.ClientOrigin, logger)

	robokassa := payment.NewRobokassa(payment.Config{
		Login:       cfg.RobokassaLogin,
		Password1:   cfg.RobokassaPassword1,
		Password2:   cfg.RobokassaPassword2,
		TestMode:    cfg.RobokassaTestMode,
		CheckoutURL: cfg.RobokassaURL,
	})
	presigner := storage.NewPresigner(storage.Config{
		Bucket:    cfg.S3BucketName,
		AccessKey: cfg.S3PublicKey,
		SecretKey: cfg.S3SecretKey,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
	})

	friendHandler := handlers.NewFriendHandler(userRepo, relationshipRepo, hub, audit, logger)
	controllers := handlers.Controllers{
		Auth:           handlers.NewAuthHandler(userRepo, sessions, cookies, audit),
		Profile:        handlers.NewProfileHandler(userRepo, relationshipRepo, sessions, audit),
		Friends:        friendHandler,
		Projects:       handlers.NewProjectHandler(projectRepo, userRepo, hub, audit, logger),
		Cards:          handlers.NewCardHandler(cardRepo, projectRepo, audit),
		Tasks:          handlers.NewTaskHandler(taskRepo, projectRepo, audit),
		Chats:          handlers.NewChatHandler(chatRepo, messageRepo, relationshipRepo, ingress),
		Search:         handlers.NewSearchHandler(userRepo, projectRepo, cardRepo, relationshipRepo, friendHandler),
		Upload:         handlers.NewUploadHandler(presigner),
		Payments:       handlers.NewPaymentHandler(paymentRepo, cardRepo, projectRepo, robokassa, hub, audit, logger),
		CallbackMethod: cfg.RobokassaCallbackMethod,
	}

	loginLimiter := middleware.NewRateLimiter(10, 5, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.WithError(err).Fatal("invalid trusted proxies")
	}
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		observability.HTTPMetricsMiddleware(),
		middleware.CORS(cfg.ClientOrigin),
		middleware.SessionResolver(sessions, cookies, logger),
	)

	router.GET("/healthz", handlers.Health(map[string]handlers.Pinger{
		"postgres": database,
		"redis":    handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}))
	router.GET("/metrics", gin.WrapH(observability.Handler()))
	router.GET("/ws", gateway.Handle)
	guard := middleware.AccessGuard(userRepo, logger)
	handlers.RegisterRoutes(router, controllers, guard, loginLimiter.Middleware())
	if cfg.DebugRoutes {
		handlers.RegisterDebugRoutes(router, guard, handlers.NewDebugHandler(audit))
	}

	scheduler := jobs.NewScheduler(logger, time.Minute)
	if err := scheduler.Add("@every 10m", jobs.NewExpirePayments(paymentRepo, cfg.PaymentExpiry, logger)); err != nil {
		logger.WithError(err).Fatal("failed to schedule payment expiry")
	}
	if err := scheduler.Add("@every 15m", jobs.NewPruneRateLimiter(loginLimiter, 30*time.Minute)); err != nil {
		logger.WithError(err).Fatal("failed to schedule rate limiter pruning")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.WithError(err).Error("tracer shutdown failed")
	}
}
