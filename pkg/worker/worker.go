package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/textforge/document-extractor/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
	Queues      map[string]int
	// Base delay between retries of a failed task; scales linearly with
	// the retry count.
	RetryDelay time.Duration
}

// retryDelayFunc builds the asynq retry schedule from the configured base
// delay.
func retryDelayFunc(base time.Duration) asynq.RetryDelayFunc {
	if base <= 0 {
		base = time.Minute
	}
	return func(n int, err error, task *asynq.Task) time.Duration {
		return time.Duration(n) * base
	}
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
}

func (w *BaseWorker) Stop() error {
	close(w.stopChan)
	w.server.Stop()
	return nil
}
