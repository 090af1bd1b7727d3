package handlers

import (
	"github.com/textforge/document-extractor/internal/service/extraction"
	"github.com/textforge/document-extractor/pkg/logger"
)

type Handlers struct {
	Extract *ExtractHandler
}

func NewHandlers(
	extractionService extraction.Service,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Extract: NewExtractHandler(extractionService, logger),
	}
}
