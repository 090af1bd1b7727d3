package config

import (
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	extractionOnce   sync.Once
	extractionConfig *ExtractionConfig
)

// ExtractionConfig 提取管线配置
type ExtractionConfig struct {
	// Batch-level pool bound: how many documents run concurrently.
	MaxConcurrent int `yaml:"maxConcurrent"`
	// OCR engine bound, deliberately tighter than MaxConcurrent.
	OCRConcurrency int `yaml:"ocrConcurrency"`
	// Page-level parallelism inside one PDF.
	PageWorkers int `yaml:"pageWorkers"`

	MaxBatchSize int   `yaml:"maxBatchSize"`
	MaxFileSize  int64 `yaml:"maxFileSize"`

	// Outer per-document wall-clock bound; supersedes every sub-step timeout.
	DocumentTimeout   time.Duration `yaml:"documentTimeout"`
	ConversionTimeout time.Duration `yaml:"conversionTimeout"`
	OCRTimeout        time.Duration `yaml:"ocrTimeout"`

	// Minimum rune count for native text to count as substantive.
	SubstantiveMinLength int `yaml:"substantiveMinLength"`

	OCRLanguages []string `yaml:"ocrLanguages"`
	OCRBackend   string   `yaml:"ocrBackend"` // "tesseract" or "textract"

	ConverterEndpoint  string `yaml:"converterEndpoint"`
	RasterizerEndpoint string `yaml:"rasterizerEndpoint"`
}

// GetExtractionConfig returns extraction settings: defaults, overridden by an
// optional YAML file (EXTRACTION_CONFIG), then by environment variables.
func GetExtractionConfig() *ExtractionConfig {
	extractionOnce.Do(func() {
		loadEnv()

		extractionConfig = &ExtractionConfig{
			MaxConcurrent:        8,
			OCRConcurrency:       2,
			PageWorkers:          4,
			MaxBatchSize:         32,
			MaxFileSize:          50 * 1024 * 1024, // 50MB
			DocumentTimeout:      2 * time.Minute,
			ConversionTimeout:    30 * time.Second,
			OCRTimeout:           45 * time.Second,
			SubstantiveMinLength: 25,
			OCRLanguages:         []string{"eng"},
			OCRBackend:           "tesseract",
			ConverterEndpoint:    "http://localhost:2002",
			RasterizerEndpoint:   "http://localhost:2003",
		}

		if path := os.Getenv("EXTRACTION_CONFIG"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Warning: can't read extraction config %s: %v", path, err)
			} else if err := yaml.Unmarshal(data, extractionConfig); err != nil {
				log.Printf("Warning: can't parse extraction config %s: %v", path, err)
			}
		}

		extractionConfig.MaxConcurrent = getEnvInt("EXTRACT_MAX_CONCURRENT", extractionConfig.MaxConcurrent)
		extractionConfig.OCRConcurrency = getEnvInt("EXTRACT_OCR_CONCURRENCY", extractionConfig.OCRConcurrency)
		extractionConfig.MaxBatchSize = getEnvInt("EXTRACT_MAX_BATCH_SIZE", extractionConfig.MaxBatchSize)
		extractionConfig.DocumentTimeout = getEnvDuration("EXTRACT_DOCUMENT_TIMEOUT", extractionConfig.DocumentTimeout)
		extractionConfig.OCRBackend = getEnv("EXTRACT_OCR_BACKEND", extractionConfig.OCRBackend)
		extractionConfig.ConverterEndpoint = getEnv("CONVERTER_ENDPOINT", extractionConfig.ConverterEndpoint)
		extractionConfig.RasterizerEndpoint = getEnv("RASTERIZER_ENDPOINT", extractionConfig.RasterizerEndpoint)

		// OCR can never out-run the batch pool.
		if extractionConfig.OCRConcurrency > extractionConfig.MaxConcurrent {
			extractionConfig.OCRConcurrency = extractionConfig.MaxConcurrent
		}
	})
	return extractionConfig
}
