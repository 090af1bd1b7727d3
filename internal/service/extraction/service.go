package extraction

import (
	"context"
	"mime/multipart"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/queue"
)

// Service 提取服务接口
type Service interface {
	// ExtractFile processes one uploaded document synchronously.
	ExtractFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, opts models.ExtractionOptions) (*models.ExtractionResult, error)

	// ExtractBatch processes an ordered file sequence synchronously and
	// returns an index-aligned result list.
	ExtractBatch(ctx context.Context, files []*multipart.FileHeader, opts models.ExtractionOptions) (models.BatchResult, error)

	// SubmitBatch enqueues an async batch job.
	SubmitBatch(ctx context.Context, files []*multipart.FileHeader, opts models.ExtractionOptions) (*queue.TaskStatus, error)

	// GetBatchStatus reports an async job's progress.
	GetBatchStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error)

	// GetBatchResult fetches a completed async job's stored BatchResult.
	GetBatchResult(ctx context.Context, taskID string) (models.BatchResult, error)

	// CancelBatch cancels a pending async job.
	CancelBatch(ctx context.Context, taskID string) error

	// RunBatchTask executes an async job; called by the worker.
	RunBatchTask(ctx context.Context, task *queue.BatchTask) error
}
