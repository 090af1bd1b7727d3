package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/textforge/document-extractor/internal/service/extraction"
	"github.com/textforge/document-extractor/pkg/logger"
	"github.com/textforge/document-extractor/pkg/queue"
)

// BatchWorker consumes async batch extraction tasks.
type BatchWorker struct {
	BaseWorker
	service extraction.Service
}

func NewBatchWorker(cfg *Config, svc extraction.Service, log logger.Logger) (*BatchWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency:    cfg.Concurrency,
			Queues:         cfg.Queues,
			RetryDelayFunc: retryDelayFunc(cfg.RetryDelay),
		},
	)

	w := &BatchWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		service: svc,
	}

	w.registerHandlers()
	return w, nil
}

func (w *BatchWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeBatchExtract, w.handleBatchExtract)
}

func (w *BatchWorker) handleBatchExtract(ctx context.Context, t *asynq.Task) error {
	var task queue.BatchTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	if task.ID == "" || len(task.Files) == 0 {
		w.logger.Error("Invalid task data",
			logger.String("taskId", task.ID),
			logger.Int("files", len(task.Files)),
		)
		return fmt.Errorf("invalid task data: missing required fields")
	}

	w.logger.Info("Processing batch task",
		logger.String("taskId", task.ID),
		logger.Int("files", len(task.Files)),
	)

	if err := w.service.RunBatchTask(ctx, &task); err != nil {
		w.logger.Error("Batch task failed",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	return nil
}

func (w *BatchWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
