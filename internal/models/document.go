package models

import (
	"time"
)

// Format 检测到的文档格式
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatDOC     Format = "doc"
	FormatRTF     Format = "rtf"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// Document 一次请求内的不可变文档载荷
type Document struct {
	Filename string
	Content  []byte

	// MimeType and Format are set exactly once by the classifier.
	MimeType string
	Format   Format
}

// Size returns the payload size in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.Content))
}

// ExtractionOptions 提取配置，按值传入协调器
type ExtractionOptions struct {
	EnableOCR       bool `json:"enable_ocr"`
	ExtractTables   bool `json:"extract_tables"`
	ExtractMetadata bool `json:"extract_metadata"`
}

// DefaultOptions returns the option set used when the caller supplies nothing:
// OCR fallback, table detection and metadata extraction all enabled.
func DefaultOptions() ExtractionOptions {
	return ExtractionOptions{
		EnableOCR:       true,
		ExtractTables:   true,
		ExtractMetadata: true,
	}
}

// ResultStatus 单文档处理状态
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
)

// Table 有序的行集合，每行是有序的单元格集合。
// Irregular 标记行长度不一致的表格；这是可恢复情况，不是错误。
type Table struct {
	Rows      [][]string `json:"rows"`
	Irregular bool       `json:"irregular,omitempty"`
}

// RowCount returns the number of rows.
func (t Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the width of the widest row.
func (t Table) ColumnCount() int {
	max := 0
	for _, row := range t.Rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// ExtractionResult 单个文档的处理结果。
// 成功时 Text 一定有定义（可为空），错误字段为空；
// 失败时 Text/Tables/Metadata 为空，ErrorKind 一定存在。
type ExtractionResult struct {
	Status    ResultStatus      `json:"status"`
	Filename  string            `json:"filename"`
	MimeType  string            `json:"mime_type,omitempty"`
	Text      string            `json:"text"`
	Tables    []Table           `json:"tables,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
	Timestamp time.Time         `json:"extraction_timestamp"`

	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// FailureResult builds a failure-status result from an error, normalizing
// non-domain errors to InternalExtractionError.
func FailureResult(filename string, err error) *ExtractionResult {
	kind, msg := KindOf(err)
	return &ExtractionResult{
		Status:       StatusFailure,
		Filename:     filename,
		Timestamp:    time.Now(),
		ErrorKind:    kind,
		ErrorMessage: msg,
	}
}

// BatchResult 与输入文档序列下标对齐的结果序列
type BatchResult []*ExtractionResult
