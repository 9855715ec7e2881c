// Package extract converts stored report files into plain text for
// language processing.
package extract

import (
	"bytes"
	"errors"
	"io"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported marks a MIME type extraction does not handle. Image OCR
// is not implemented; callers decide whether that is fatal.
var ErrUnsupported = errors.New("text extraction not supported for this file type")

// Text extracts the embedded text of a PDF, concatenating all pages in
// document order. Non-PDF types return ErrUnsupported. Malformed PDF
// content yields an empty string rather than an error; callers must treat
// empty text as unextractable.
func Text(data []byte, mimeType string) (string, error) {
	if mimeType != "application/pdf" {
		return "", ErrUnsupported
	}
	return pdfText(data), nil
}

func pdfText(data []byte) (text string) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return ""
	}
	return buf.String()
}
