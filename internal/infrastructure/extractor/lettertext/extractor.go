package lettertext

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

// Extractor pulls plain text out of uploaded letter files. Plain text and
// PDF are supported; anything else is rejected before processing.
type Extractor struct{}

var _ ports.LetterFileExtractor = (*Extractor)(nil)

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(filename, data)
	case ".txt", ".text", "":
		if !utf8.Valid(data) {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract letter text", fmt.Errorf("%s is not valid utf-8", filename))
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract letter text", fmt.Errorf("unsupported file type: %s", filename))
	}
}

func extractPDF(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract letter text", fmt.Errorf("open pdf %s: %w", filename, err))
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filename, err)
	}
	raw, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("read pdf stream %s: %w", filename, err)
	}
	return strings.TrimSpace(string(raw)), nil
}
