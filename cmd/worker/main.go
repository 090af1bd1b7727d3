package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/textforge/document-extractor/config"
	"github.com/textforge/document-extractor/internal/service/extraction"
	"github.com/textforge/document-extractor/pkg/logger"
	"github.com/textforge/document-extractor/pkg/worker"
)

func main() {
	// 初始化日志
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 创建提取服务
	svc, err := extraction.GetService(log)
	if err != nil {
		log.Error("Failed to create extraction service", logger.Error(err))
		os.Exit(1)
	}

	// 创建 worker 配置
	redisCfg := config.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: redisCfg.Concurrency,
		RetryDelay:  redisCfg.RetryDelay,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}

	// 创建 worker
	batchWorker, err := worker.NewBatchWorker(workerCfg, svc, log)
	if err != nil {
		log.Error("Failed to create batch worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动 worker
	if err := batchWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// 优雅关闭
	log.Info("Shutting down worker...")
	batchWorker.Stop()
	log.Info("Worker stopped")
}
