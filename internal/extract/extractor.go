// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/pkg/utils"
)

// Extractor extracts plain text from document files.
type Extractor struct {
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used to report extraction failures.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// Extract reads the file at path and returns its text, dispatching on the
// declared type. An empty declared type falls back to the file extension, and
// an unrecognized one to content sniffing and then plain text. Extract never
// fails: read and decode errors are logged and yield "".
func (e *Extractor) Extract(path, declared string) string {
	ft := ParseFileType(declared)
	if ft == Unknown && declared == "" {
		ft = FromPath(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("extract: read file failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	if ft == Unknown {
		ft = sniff(content)
	}
	text, err := e.ExtractBytes(content, ft)
	if err != nil {
		e.logger.Warn("extract: decode failed",
			zap.String("path", path), zap.String("file_type", ft.String()), zap.Error(err))
		return ""
	}
	return text
}

// ExtractBytes decodes content as the given type. Unknown is decoded as plain
// text. A panicking decoder is reported as an error.
func (e *Extractor) ExtractBytes(content []byte, ft FileType) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract %s: decoder panic: %v", ft, r)
		}
	}()
	switch ft {
	case PDF:
		return extractPDF(content)
	case DOCX:
		return extractDOCX(content)
	case XLSX:
		return extractExcel(content)
	case PPTX:
		return extractPPTX(content)
	case Rich:
		return extractRich(content)
	default:
		return extractPlain(content)
	}
}
