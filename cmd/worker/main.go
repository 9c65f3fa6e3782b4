package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	"github.com/bazaarhub/negotiation-backend/internal/sender"
	"github.com/bazaarhub/negotiation-backend/internal/tasks"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	pkgredis "github.com/bazaarhub/negotiation-backend/pkg/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 알림 사이드 채널(push/email) 작업 처리 워커
func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	logger := pkglogger.GetLogger()

	cfg, err := config.Load(fmt.Sprintf("configs/config.%s.yaml", env))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	redisClient, err := pkgredis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker needs redis")
	}
	defer redisClient.Close()

	// 이메일 주소 조회용
	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
		defer sqlDB.Close()
	}

	s := sender.FromConfig(cfg.Notification, repository.NewProfileRepository(db))
	processor := tasks.NewTaskProcessor(s)

	srv := tasks.NewServer(redisClient, 10)
	logger.Info().Str("sender", s.Name()).Msg("notification worker started")
	// Run blocks until SIGTERM/SIGINT
	if err := srv.Run(tasks.NewServeMux(processor)); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
