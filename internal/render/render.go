// Package render lays a plain-text summary out as a PDF document.
package render

import (
	"bytes"
	"context"

	"papersummary/internal/config"
)

// Renderer produces a PDF from text. The returned reader is positioned at the
// start of the document.
type Renderer interface {
	Render(ctx context.Context, text string) (*bytes.Reader, error)
}

// New picks the engine named in cfg.PDF.Engine.
func New(cfg config.Config) Renderer {
	if cfg.PDF.Engine == "chrome" {
		return NewChrome(cfg)
	}
	return NewFPDF(cfg)
}
