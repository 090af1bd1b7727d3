package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	cfg "github.com/textforge/document-extractor/config"
	"github.com/textforge/document-extractor/internal/batch"
	"github.com/textforge/document-extractor/internal/classifier"
	"github.com/textforge/document-extractor/internal/convert"
	"github.com/textforge/document-extractor/internal/coordinator"
	"github.com/textforge/document-extractor/internal/extractor"
	"github.com/textforge/document-extractor/internal/metadata"
	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/internal/ocr"
	"github.com/textforge/document-extractor/internal/tables"
	"github.com/textforge/document-extractor/pkg/logger"
	"github.com/textforge/document-extractor/pkg/queue"
	"github.com/textforge/document-extractor/pkg/storage"
)

type ExtractionService struct {
	runner  *batch.Runner
	coord   *coordinator.Coordinator
	queue   queue.Queue
	storage storage.Storage
	logger  logger.Logger
	cfg     *cfg.ExtractionConfig
}

func NewService(
	coord *coordinator.Coordinator,
	runner *batch.Runner,
	q queue.Queue,
	store storage.Storage,
	log logger.Logger,
	conf *cfg.ExtractionConfig,
) Service {
	return &ExtractionService{
		runner:  runner,
		coord:   coord,
		queue:   q,
		storage: store,
		logger:  log,
		cfg:     conf,
	}
}

// GetService wires the full pipeline from configuration.
func GetService(log logger.Logger) (Service, error) {
	conf := cfg.GetExtractionConfig()

	engine, err := buildEngine(conf, log)
	if err != nil {
		return nil, err
	}

	rasterizer := ocr.NewHTTPRasterizer(conf.RasterizerEndpoint, conf.OCRTimeout)
	ocrService := ocr.NewService(engine, rasterizer, conf.OCRConcurrency, log)

	converter := convert.NewClient(&convert.Config{
		Endpoint: conf.ConverterEndpoint,
		Timeout:  conf.ConversionTimeout,
	})

	coord := coordinator.New(
		classifier.New(log),
		extractor.NewRegistry(log, converter, conf.PageWorkers),
		ocrService,
		tables.NewDetector(log, tables.DefaultConfig()),
		metadata.NewReader(log),
		log,
		coordinator.Config{
			DocumentTimeout:      conf.DocumentTimeout,
			SubstantiveMinLength: conf.SubstantiveMinLength,
		},
	)

	runner := batch.NewRunner(coord, log, batch.Config{
		MaxConcurrent: conf.MaxConcurrent,
		MaxBatchSize:  conf.MaxBatchSize,
	})

	redisCfg := cfg.GetRedisConfig()
	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:      redisCfg.Addr,
		RedisDB:        redisCfg.DB,
		MaxRetries:     redisCfg.MaxRetries,
		RetryDelay:     redisCfg.RetryDelay,
		ProcessTimeout: redisCfg.ProcessTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	store, err := storage.NewStorage(storage.StorageType(cfg.StorageBackend()), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewService(coord, runner, q, store, log, conf), nil
}

func buildEngine(conf *cfg.ExtractionConfig, log logger.Logger) (ocr.Engine, error) {
	switch conf.OCRBackend {
	case "textract":
		return ocr.NewTextractEngine(context.Background(), cfg.GetTextractConfig(), log)
	default:
		return ocr.NewTesseractEngine(log, &ocr.TesseractConfig{
			Languages: conf.OCRLanguages,
		}), nil
	}
}

// ExtractFile 同步处理单个文件
func (s *ExtractionService) ExtractFile(
	ctx context.Context,
	file multipart.File,
	header *multipart.FileHeader,
	opts models.ExtractionOptions,
) (*models.ExtractionResult, error) {
	if header.Size > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("file size %d exceeds maximum of %d bytes", header.Size, s.cfg.MaxFileSize)
	}

	doc, err := readDocument(file, header)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Processing document",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
	)

	return s.coord.Process(ctx, doc, opts), nil
}

// ExtractBatch 同步批量处理
func (s *ExtractionService) ExtractBatch(
	ctx context.Context,
	files []*multipart.FileHeader,
	opts models.ExtractionOptions,
) (models.BatchResult, error) {
	docs, err := s.readBatch(files)
	if err != nil {
		return nil, err
	}

	return s.runner.Run(ctx, docs, opts)
}

// SubmitBatch 上传输入并入队异步任务
func (s *ExtractionService) SubmitBatch(
	ctx context.Context,
	files []*multipart.FileHeader,
	opts models.ExtractionOptions,
) (*queue.TaskStatus, error) {
	if len(files) == 0 {
		return nil, models.NewError(models.ErrEmptyBatch, "batch contains no documents")
	}
	if len(files) > s.cfg.MaxBatchSize {
		return nil, models.NewError(models.ErrBatchSizeExceeded,
			fmt.Sprintf("batch of %d exceeds maximum of %d", len(files), s.cfg.MaxBatchSize))
	}

	taskID := uuid.New().String()
	task := &queue.BatchTask{
		ID:        taskID,
		Options:   opts,
		CreatedAt: time.Now(),
	}

	for i, header := range files {
		if header.Size > s.cfg.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum of %d bytes", header.Filename, s.cfg.MaxFileSize)
		}
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", header.Filename, err)
		}
		key := fmt.Sprintf("uploads/%s/%03d_%s", taskID, i, header.Filename)
		_, err = s.storage.Store(ctx, f, key)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store file %s: %w", header.Filename, err)
		}
		task.Files = append(task.Files, queue.BatchFile{
			StorageKey: key,
			Filename:   header.Filename,
			Size:       header.Size,
		})
	}

	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue batch: %w", err)
	}

	s.logger.Info("Batch task submitted",
		logger.String("taskId", taskID),
		logger.Int("files", len(files)),
	)

	return &queue.TaskStatus{
		TaskID:    taskID,
		Status:    "pending",
		StartedAt: task.CreatedAt,
	}, nil
}

// RunBatchTask 工作进程执行异步任务
func (s *ExtractionService) RunBatchTask(ctx context.Context, task *queue.BatchTask) error {
	s.logger.Info("Running batch task",
		logger.String("taskId", task.ID),
		logger.Int("files", len(task.Files)),
	)

	if err := s.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    "running",
		StartedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to save running status",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
	}

	docs := make([]*models.Document, 0, len(task.Files))
	for _, bf := range task.Files {
		reader, err := s.storage.Get(ctx, bf.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", bf.StorageKey, err)
		}
		content, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", bf.StorageKey, err)
		}
		docs = append(docs, &models.Document{
			Filename: bf.Filename,
			Content:  content,
		})
	}

	results, err := s.runner.Run(ctx, docs, task.Options)
	if err != nil {
		s.saveFailure(ctx, task.ID, err)
		return err
	}

	data, err := json.Marshal(results)
	if err != nil {
		s.saveFailure(ctx, task.ID, err)
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	resultKey := fmt.Sprintf("results/%s.json", task.ID)
	if _, err := s.storage.Store(ctx, bytes.NewReader(data), resultKey); err != nil {
		s.saveFailure(ctx, task.ID, err)
		return fmt.Errorf("failed to store results: %w", err)
	}

	// inputs are no longer needed once the result is persisted
	for _, bf := range task.Files {
		if err := s.storage.Delete(ctx, bf.StorageKey); err != nil {
			s.logger.Warn("Failed to delete batch input",
				logger.String("key", bf.StorageKey),
				logger.Error(err),
			)
		}
	}

	return s.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     "completed",
		Progress:   1.0,
		ResultKey:  resultKey,
		StartedAt:  task.CreatedAt,
		FinishedAt: time.Now(),
	})
}

// GetBatchStatus 查询异步任务状态
func (s *ExtractionService) GetBatchStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}
	return status, nil
}

// GetBatchResult 获取已完成任务的结果
func (s *ExtractionService) GetBatchResult(ctx context.Context, taskID string) (models.BatchResult, error) {
	status, err := s.GetBatchStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if status.Status != "completed" {
		return nil, fmt.Errorf("task is not completed: %s", status.Status)
	}

	resultKey := status.ResultKey
	if resultKey == "" {
		resultKey = fmt.Sprintf("results/%s.json", taskID)
	}

	reader, err := s.storage.Get(ctx, resultKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	var results models.BatchResult
	if err := json.NewDecoder(reader).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return results, nil
}

// CancelBatch 取消异步任务
func (s *ExtractionService) CancelBatch(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	s.logger.Info("Batch task cancelled",
		logger.String("taskId", taskID),
	)
	return nil
}

func (s *ExtractionService) saveFailure(ctx context.Context, taskID string, cause error) {
	if err := s.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:     taskID,
		Status:     "failed",
		Error:      cause.Error(),
		FinishedAt: time.Now(),
	}); err != nil {
		s.logger.Error("Failed to save failure status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}
}

func (s *ExtractionService) readBatch(files []*multipart.FileHeader) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(files))
	for _, header := range files {
		if header.Size > s.cfg.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum of %d bytes", header.Filename, s.cfg.MaxFileSize)
		}
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", header.Filename, err)
		}
		doc, readErr := readDocument(f, header)
		f.Close()
		if readErr != nil {
			return nil, readErr
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readDocument(file multipart.File, header *multipart.FileHeader) (*models.Document, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	return &models.Document{
		Filename: header.Filename,
		Content:  content,
	}, nil
}
