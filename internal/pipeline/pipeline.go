// Package pipeline runs one upload through extraction, summarization and
// rendering.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"papersummary/internal/config"
	"papersummary/internal/document"
	"papersummary/internal/domain"
	"papersummary/internal/infra/logging"
	"papersummary/internal/render"
	"papersummary/internal/summarizer"
)

type Extractor interface {
	Extract(ctx context.Context, path, ext string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) summarizer.Result
}

// Upload is one received file. RequestID only tags log lines.
type Upload struct {
	Filename  string
	Content   io.Reader
	RequestID string
}

type Output struct {
	Summary   summarizer.Result
	PDF       *bytes.Reader
	TextChars int
}

type Pipeline struct {
	tempDir     string
	maxPDFBytes int
	extractor   Extractor
	summarizer  Summarizer
	renderer    render.Renderer
}

func New(cfg config.Config, e Extractor, s Summarizer, r render.Renderer) *Pipeline {
	return &Pipeline{
		tempDir:     cfg.Storage.TempDir,
		maxPDFBytes: cfg.Limits.MaxPDFBytes,
		extractor:   e,
		summarizer:  s,
		renderer:    r,
	}
}

// Run validates, stores, extracts, summarizes and renders. Summarization
// failures are carried in Output.Summary; everything else is an error.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*Output, error) {
	start := time.Now()
	if up.Filename == "" {
		return nil, domain.ErrEmptyFilename
	}
	if !document.Allowed(up.Filename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFileType, up.Filename)
	}
	ext := document.Ext(up.Filename)

	path, size, err := p.store(up)
	if err != nil {
		return nil, err
	}
	removed := false
	cleanup := func() {
		if removed {
			return
		}
		removed = true
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove temp file", "path", path, "error", err, "request_id", up.RequestID)
		}
	}
	defer cleanup()

	logging.Debug("Upload stored", "path", path, "bytes", size, "ext", ext, "request_id", up.RequestID)

	text, err := p.extractor.Extract(ctx, path, ext)
	cleanup()
	if err != nil {
		logging.Warn("Text extraction failed", "ext", ext, "error", err, "request_id", up.RequestID)
		return nil, err
	}
	chars := utf8.RuneCountInString(text)
	logging.Info("Text extracted", "ext", ext, "bytes", size, "chars", chars, "request_id", up.RequestID)

	result := p.summarizer.Summarize(ctx, text)
	if result.Failed() {
		logging.Warn("Summary failed", "cause", result.Cause(), "request_id", up.RequestID)
	}

	pdf, err := p.renderer.Render(ctx, result.Text())
	if err != nil {
		logging.Error("PDF rendering failed", "error", err, "request_id", up.RequestID)
		return nil, err
	}
	if p.maxPDFBytes > 0 && pdf.Size() > int64(p.maxPDFBytes) {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrPDFTooLarge, pdf.Size())
	}

	logging.Info("Summary PDF generated",
		"ext", ext,
		"status", result.Status(),
		"pdf_bytes", pdf.Size(),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"request_id", up.RequestID,
	)
	return &Output{Summary: result, PDF: pdf, TextChars: chars}, nil
}

// store copies the upload to a file whose name is unique to this call. The
// suffix is the lower-cased extension so the extractor picks the right parser.
func (p *Pipeline) store(up Upload) (string, int64, error) {
	if err := os.MkdirAll(p.tempDir, 0o700); err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(p.tempDir, tempName(up.Filename))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(f, up.Content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	return path, n, nil
}

func tempName(filename string) string {
	ext := document.Ext(filename)
	safe := document.SanitizeFilename(filename)
	stem := safe
	if i := strings.LastIndex(safe, "."); i >= 0 {
		stem = safe[:i]
	}
	stem = strings.Trim(stem, "._")
	if stem == "" {
		return xid.New().String() + "." + ext
	}
	return xid.New().String() + "-" + stem + "." + ext
}
