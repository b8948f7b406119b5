package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/config"
	"github.com/ft583086849/zhixing-sub003/internal/handler"
	"github.com/ft583086849/zhixing-sub003/internal/infrastructure/cache"
	"github.com/ft583086849/zhixing-sub003/internal/infrastructure/database"
	"github.com/ft583086849/zhixing-sub003/internal/infrastructure/lock"
	"github.com/ft583086849/zhixing-sub003/internal/infrastructure/mq"
	"github.com/ft583086849/zhixing-sub003/internal/job"
	"github.com/ft583086849/zhixing-sub003/internal/repository"
	"github.com/ft583086849/zhixing-sub003/internal/service"
	"github.com/ft583086849/zhixing-sub003/pkg/idgen"
	"github.com/ft583086849/zhixing-sub003/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// 加载配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("服务异常退出", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// 初始化 ID 生成器
	if err := idgen.Init(cfg.Server.NodeID); err != nil {
		return fmt.Errorf("初始化ID生成器: %w", err)
	}
	gin.SetMode(cfg.Server.Mode)

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	calc := commission.NewCalculator(policy)

	// 初始化数据库
	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return err
	}

	// 初始化 Redis
	redisClient, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// 初始化 Kafka
	producer, err := mq.NewProducer(&cfg.Kafka)
	if err != nil {
		return err
	}
	defer producer.Close()

	// 仓储
	orderRepo := repository.NewOrderRepository(db)
	salesRepo := repository.NewSalesRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	txManager := repository.NewTxManager(db)

	// 服务
	reportCache := cache.NewReportCache(redisClient, cfg.Cache.KeyPrefix, cfg.CacheTTL())
	settlementSvc := service.NewSettlementService(orderRepo, salesRepo, reportCache, calc, service.FetchOptions{
		Timeout:       cfg.FetchTimeout(),
		MaxRetries:    cfg.Fetch.MaxRetries,
		RetryInterval: cfg.FetchRetryInterval(),
	}, zlog)

	newLock := func(salesCode, requestID string) service.Locker {
		return lock.NewPayoutLock(redisClient, salesCode, requestID)
	}
	salesSvc := service.NewSalesService(txManager, salesRepo, payoutRepo, outboxRepo, settlementSvc, newLock, cfg.Kafka.Topic.CommissionPayout, zlog)
	orderSvc := service.NewOrderService(txManager, orderRepo, outboxRepo, settlementSvc, calc, cfg.Kafka.Topic.OrderStatus, zlog)

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(outboxRepo, producer, cfg.Business.MaxRetryCount, zlog)
	go outboxSender.Start(ctx)

	refreshJob := job.NewSettlementRefreshJob(settlementSvc, cfg.RefreshInterval(), zlog)
	go refreshJob.Start(ctx)

	// 设置路由
	router, err := handler.SetupRouter(handler.NewHandler(settlementSvc, orderSvc, salesSvc, zlog), zlog, cfg.RateLimit.Rate)
	if err != nil {
		return fmt.Errorf("初始化路由: %w", err)
	}

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("服务启动失败: %w", err)
	}

	zlog.Info("正在关闭服务...")

	// 停止后台任务
	cancel()
	outboxSender.Stop()
	refreshJob.Stop()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("服务关闭异常", zap.Error(err))
	}

	zlog.Info("服务已关闭")
	return nil
}
