package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/handler"
	"github.com/bazaarhub/negotiation-backend/internal/middleware"
	"github.com/bazaarhub/negotiation-backend/internal/migration"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	"github.com/bazaarhub/negotiation-backend/internal/routes"
	"github.com/bazaarhub/negotiation-backend/internal/sender"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/bazaarhub/negotiation-backend/internal/tasks"
	"github.com/bazaarhub/negotiation-backend/internal/ws"
	pkgcache "github.com/bazaarhub/negotiation-backend/pkg/cache"
	"github.com/bazaarhub/negotiation-backend/pkg/jwt"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	pkgredis "github.com/bazaarhub/negotiation-backend/pkg/redis"
	pkgstorage "github.com/bazaarhub/negotiation-backend/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	logger := pkglogger.GetLogger()
	logger.Info().Str("env", env).Strs("env_files", dotenvFiles).Msg("starting negotiation api")

	// 설정 로드
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Info().Fields(config.LogResolved(cfg)).Msg("config resolved")

	// MySQL 연결 (필수)
	db, err := initDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	// Redis 연결 (선택: 없으면 단일 인스턴스 모드)
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, continuing without cross-instance push and queue")
		redisClient = nil
	}

	// WebSocket Hub
	wsHub := ws.NewHub(redisClient, cfg.Notification.LiveQueueSize)
	go wsHub.Run()

	// Repositories
	requirementRepo := repository.NewRequirementRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	negotiationRepo := repository.NewNegotiationRepository(db, cfg.Auction.CommitRetries)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// 사이드 채널: asynq 큐 또는 인라인 goroutine
	var dispatcher service.SideChannelDispatcher
	if cfg.Notification.AsyncQueue && redisClient != nil {
		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()
		dispatcher = tasks.NewQueueDispatcher(taskClient)
		logger.Info().Msg("side channels dispatched through asynq")
	} else {
		dispatcher = tasks.NewInlineDispatcher(sender.FromConfig(cfg.Notification, profileRepo))
	}

	// 모더레이션 규칙
	staticRules := service.NewStaticRuleSource(domain.ModerationRules{
		Enabled:    cfg.Moderation.Enabled,
		Keywords:   cfg.Moderation.Keywords,
		BlockPhone: cfg.Moderation.BlockPhone,
		BlockLinks: cfg.Moderation.BlockLinks,
	})
	var ruleSource service.RuleSource = staticRules
	var moderationHandler *handler.ModerationHandler
	if cfg.Moderation.RedisOverride && redisClient != nil {
		cached := service.NewCachedRuleSource(pkgcache.NewService(redisClient), staticRules)
		ruleSource = cached
		moderationHandler = handler.NewModerationHandler(cached)
	}
	moderator := service.NewModerator(ruleSource)

	// 첨부파일 presigner
	var resolver service.AttachmentResolver
	if cfg.Storage.Enabled {
		presigner, err := pkgstorage.NewS3Presigner(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
			Expiry:          cfg.Storage.PresignExpiry(),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("attachment storage disabled")
		} else {
			resolver = presigner
		}
	}

	// Services
	notificationService := service.NewNotificationService(notificationRepo, wsHub, dispatcher)
	requirementService := service.NewRequirementService(requirementRepo, offerRepo, notificationService, moderator)
	offerService := service.NewOfferService(requirementRepo, offerRepo, negotiationRepo, profileRepo, notificationService, moderator)
	auctionService := service.NewAuctionService(negotiationRepo, requirementRepo, offerRepo, notificationService, cfg.Auction.MinOffers)
	contactService := service.NewContactService(requirementRepo, offerRepo, profileRepo, notificationService)
	chatService := service.NewChatService(messageRepo, requirementRepo, contactService, notificationService, moderator, resolver)
	profileService := service.NewProfileService(profileRepo)

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshIn)

	// Gin 라우터 생성
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	routes.Setup(router, &routes.Handlers{
		Requirement:  handler.NewRequirementHandler(requirementService),
		Offer:        handler.NewOfferHandler(offerService),
		Auction:      handler.NewAuctionHandler(auctionService),
		Contact:      handler.NewContactHandler(contactService),
		Chat:         handler.NewChatHandler(chatService),
		Notification: handler.NewNotificationHandler(notificationService),
		Profile:      handler.NewProfileHandler(profileService),
		Moderation:   moderationHandler,
		WS:           handler.NewWSHandler(wsHub, cfg.CORS.AllowOrigins),
	}, jwtManager)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reportDBStats(ctx, db)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	wsHub.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func corsConfig(allowOrigins string) cors.Config {
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	origins := make([]string, 0)
	for _, o := range strings.Split(allowOrigins, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
	}
}

func reportDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetDBConnectionsOpen(sqlDB.Stats().OpenConnections)
		}
	}
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
