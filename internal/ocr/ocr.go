// Package ocr extracts event fields from uploaded images.
//
// The pipeline has two halves: a TextExtractor turns image bytes into raw
// text (delegated to the external tesseract engine), and ExtractFields
// applies fixed patterns to that text to find a date, a time, and an
// optional labelled description. The whole feature is flagged off by
// default; when disabled, uploaded images are simply ignored and the manual
// form fields are used.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rahat/quickcal/internal/apperror"
)

// TextExtractor turns image bytes into raw text.
// Implemented by Tesseract below; tests substitute a fake.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Fields is what pattern extraction found in the OCR text.
// Time and Description may be empty — the caller falls back to the form
// values for whatever is missing.
type Fields struct {
	Date        string // YYYY-MM-DD
	Time        string // H:MM or HH:MM
	Description string // text after a "Description:" label, if present
}

var (
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	// Single-digit hours are common in OCR output of printed slips.
	timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)
	descPattern = regexp.MustCompile(`(?i)description:\s*(.+)`)
)

// ExtractFields searches text for the event fields.
//
// Only the date is required: with no YYYY-MM-DD match the extraction fails
// with apperror.ErrExtraction and the caller falls back to the manually
// supplied form fields entirely. Time and description are returned when
// found and left empty otherwise, so a slip carrying only a date and a
// description still contributes both.
func ExtractFields(text string) (*Fields, error) {
	date := datePattern.FindString(text)
	if date == "" {
		return nil, apperror.ExtractionIncomplete("no YYYY-MM-DD date found in image text")
	}

	fields := &Fields{Date: date, Time: timePattern.FindString(text)}

	if m := descPattern.FindStringSubmatch(text); m != nil {
		// The pattern is greedy to end of line; trim a trailing date/time
		// fragment the OCR engine may have run together.
		fields.Description = strings.TrimSpace(strings.TrimRight(m[1], ",."))
	}

	return fields, nil
}

// Tesseract invokes the tesseract binary to extract text from an image.
//
// WHY SHELL OUT INSTEAD OF BINDING?
// The Go bindings for tesseract (gosseract) require CGo and the libtesseract
// headers at build time. Invoking the binary keeps the build pure Go and
// matches how the engine is deployed anyway — as a system package. The
// contract is small: image on stdin, UTF-8 text on stdout.
type Tesseract struct {
	cmd string // binary name or path, usually "tesseract"
}

// NewTesseract returns a Tesseract extractor using the given command.
// Pass "" to use "tesseract" from PATH.
func NewTesseract(cmd string) *Tesseract {
	if cmd == "" {
		cmd = "tesseract"
	}
	return &Tesseract{cmd: cmd}
}

// ExtractText runs `tesseract stdin stdout` with the image on stdin.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, t.cmd, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr: running %s: %w (stderr: %s)",
			t.cmd, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
