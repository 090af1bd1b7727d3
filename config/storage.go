package config

import (
	"sync"
)

var (
	s3Once    sync.Once
	s3Config  *S3Config
	minioOnce sync.Once
	minioCfg  *MinioConfig
)

// S3Config S3 结果存储配置
type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadEnv()

		s3Config = &S3Config{
			BucketName: getEnv("S3_BUCKET", "extraction-results"),
			Region:     getEnv("AWS_REGION", "us-east-1"),
			Endpoint:   getEnv("AWS_ENDPOINT", ""),
			AccessKey:  getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:  getEnv("AWS_SECRET_KEY", ""),
		}
	})
	return s3Config
}

// MinioConfig MinIO 结果存储配置
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
	UseSSL     bool
}

func GetMinioConfig() *MinioConfig {
	minioOnce.Do(func() {
		loadEnv()

		minioCfg = &MinioConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET", "extraction-results"),
			Region:     getEnv("MINIO_REGION", ""),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		}
	})
	return minioCfg
}

// StorageBackend returns which result-storage backend is active ("s3" or "minio").
func StorageBackend() string {
	loadEnv()
	return getEnv("STORAGE_BACKEND", "minio")
}
