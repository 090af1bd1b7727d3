package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/internal/service/extraction"
	"github.com/textforge/document-extractor/pkg/logger"
)

type ExtractHandler struct {
	service extraction.Service
	logger  logger.Logger
}

// ValidationError 输入校验错误条目
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// DocumentData 单文档响应载荷
type DocumentData struct {
	Filename  string            `json:"filename"`
	MimeType  string            `json:"mime_type,omitempty"`
	Text      string            `json:"text"`
	Tables    []models.Table    `json:"tables,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
	Timestamp string            `json:"extraction_timestamp"`
}

func NewExtractHandler(service extraction.Service, logger logger.Logger) *ExtractHandler {
	return &ExtractHandler{
		service: service,
		logger:  logger,
	}
}

// ExtractDocument 同步处理单个文档
func (h *ExtractHandler) ExtractDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.validationFailure(c, []string{"body", "file"}, "file field is required", "value_error.missing")
		return
	}
	defer file.Close()

	opts, verr := parseOptions(c)
	if verr != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []ValidationError{*verr}})
		return
	}

	result, err := h.service.ExtractFile(c.Request.Context(), file, header, opts)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to extract document", err)
		return
	}

	if result.Status == models.StatusFailure {
		c.JSON(http.StatusOK, gin.H{
			"status":  string(result.Status),
			"message": result.ErrorMessage,
			"error":   string(result.ErrorKind),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  string(result.Status),
		"message": "Document processed successfully",
		"data":    documentData(result),
	})
}

// ExtractBatch 同步批量处理，结果与输入顺序对齐
func (h *ExtractHandler) ExtractBatch(c *gin.Context) {
	files, opts, ok := h.readBatchForm(c)
	if !ok {
		return
	}

	results, err := h.service.ExtractBatch(c.Request.Context(), files, opts)
	if err != nil {
		if kind, msg := models.KindOf(err); kind == models.ErrEmptyBatch || kind == models.ErrBatchSizeExceeded {
			h.validationFailure(c, []string{"body", "files"}, msg, "value_error")
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to extract batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
	})
}

// SubmitBatch 提交异步批量任务
func (h *ExtractHandler) SubmitBatch(c *gin.Context) {
	files, opts, ok := h.readBatchForm(c)
	if !ok {
		return
	}

	status, err := h.service.SubmitBatch(c.Request.Context(), files, opts)
	if err != nil {
		if kind, msg := models.KindOf(err); kind == models.ErrEmptyBatch || kind == models.ErrBatchSizeExceeded {
			h.validationFailure(c, []string{"body", "files"}, msg, "value_error")
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to submit batch", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":    status.TaskID,
		"status":    status.Status,
		"files":     len(files),
		"createdAt": status.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetBatchStatus 查询异步任务状态
func (h *ExtractHandler) GetBatchStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.validationFailure(c, []string{"path", "taskId"}, "task ID is required", "value_error.missing")
		return
	}

	status, err := h.service.GetBatchStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, http.StatusNotFound, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetBatchResult 下载已完成任务的结果
func (h *ExtractHandler) GetBatchResult(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.validationFailure(c, []string{"path", "taskId"}, "task ID is required", "value_error.missing")
		return
	}

	results, err := h.service.GetBatchResult(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, http.StatusConflict, "Failed to get result", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
	})
}

// CancelBatch 取消异步任务
func (h *ExtractHandler) CancelBatch(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.validationFailure(c, []string{"path", "taskId"}, "task ID is required", "value_error.missing")
		return
	}

	if err := h.service.CancelBatch(c.Request.Context(), taskID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId": taskID,
		"status": "cancelled",
	})
}

func (h *ExtractHandler) readBatchForm(c *gin.Context) ([]*multipart.FileHeader, models.ExtractionOptions, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		h.validationFailure(c, []string{"body"}, "invalid multipart form", "value_error")
		return nil, models.ExtractionOptions{}, false
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.validationFailure(c, []string{"body", "files"}, "no files provided", "value_error.missing")
		return nil, models.ExtractionOptions{}, false
	}

	opts, verr := parseOptions(c)
	if verr != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []ValidationError{*verr}})
		return nil, models.ExtractionOptions{}, false
	}

	return files, opts, true
}

// parseOptions reads the boolean query flags; each defaults to true when
// absent.
func parseOptions(c *gin.Context) (models.ExtractionOptions, *ValidationError) {
	opts := models.DefaultOptions()

	flags := []struct {
		name   string
		target *bool
	}{
		{"enable_ocr", &opts.EnableOCR},
		{"extract_tables", &opts.ExtractTables},
		{"extract_metadata", &opts.ExtractMetadata},
	}

	for _, f := range flags {
		raw, present := c.GetQuery(f.name)
		if !present {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, &ValidationError{
				Loc:  []string{"query", f.name},
				Msg:  fmt.Sprintf("value is not a valid boolean: %q", raw),
				Type: "type_error.bool",
			}
		}
		*f.target = v
	}

	return opts, nil
}

func documentData(result *models.ExtractionResult) DocumentData {
	return DocumentData{
		Filename:  result.Filename,
		MimeType:  result.MimeType,
		Text:      result.Text,
		Tables:    result.Tables,
		Metadata:  result.Metadata,
		Warnings:  result.Warnings,
		Timestamp: result.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *ExtractHandler) validationFailure(c *gin.Context, loc []string, msg, typ string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []ValidationError{{Loc: loc, Msg: msg, Type: typ}},
	})
}

func (h *ExtractHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message, logger.Error(err))
	c.JSON(status, gin.H{
		"error":   message,
		"message": err.Error(),
	})
}
