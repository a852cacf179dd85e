package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// LegacyPlaceholder is returned for legacy word-processor formats in place of
// real extraction.
const LegacyPlaceholder = "Text extraction for legacy word-processor formats is not yet supported. Please re-upload the document as PDF or plain text."

// IsImage reports whether the declared content type is an image the vision
// path can handle.
func IsImage(contentType string) bool {
	switch normalize(contentType) {
	case mimeJPEG, mimePNG:
		return true
	default:
		return false
	}
}

// Text extracts raw text from an in-memory document payload.
// Library used for PDF: github.com/ledongthuc/pdf.
func Text(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch normalize(contentType) {
	case mimePDF:
		return extractPDF(data)
	case mimeText:
		return decodePlainText(data)
	case mimeDOC, mimeDOCX:
		return LegacyPlaceholder, nil
	default:
		return "", fmt.Errorf("unsupported content type: %s", normalize(contentType))
	}
}

// ImageText is the best-effort OCR leaf used when vision analysis fails. It is
// an opaque routine by contract; this implementation reports the degradation
// so the downstream analysis still has something to work with.
func ImageText(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Image document (%s, %d bytes). Vision analysis was unavailable; content could not be transcribed automatically.", normalize(contentType), len(data)), nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return buf.String(), nil
}

func decodePlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("plain text payload is not valid UTF-8")
	}
	return string(data), nil
}

func normalize(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}
