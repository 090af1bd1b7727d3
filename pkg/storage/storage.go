package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/textforge/document-extractor/pkg/logger"
	"github.com/textforge/document-extractor/pkg/storage/minio"
	"github.com/textforge/document-extractor/pkg/storage/s3"
)

// StorageType 定义存储类型
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage holds uploaded batch inputs and finished batch results for the
// async job path. Inputs are deleted once a batch completes.
type Storage interface {
	// Store 存储对象
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get 获取对象
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象
	Delete(ctx context.Context, key string) error
	// CleanupBefore 清理过期对象
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage 创建存储实例的工厂方法
func NewStorage(storageType StorageType, logger logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(logger)
	case StorageTypeMinio:
		return minio.GetClient(logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}
