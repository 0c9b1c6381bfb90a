package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"papersummary/internal/config"
	"papersummary/internal/domain"
)

const mmPerInch = 25.4

// FPDF writes each line of text as a wrapped cell using a core font. Core
// fonts are cp1252, so characters outside that code page are lost.
type FPDF struct {
	paper       config.PaperSize
	orientation string
	margin      float64
	family      string
	size        float64
	lineHeight  float64
	compress    bool
}

func NewFPDF(cfg config.Config) *FPDF {
	orientation := "P"
	if cfg.PDF.Orientation == "landscape" {
		orientation = "L"
	}
	compress := true
	if cfg.PDF.Compress != nil {
		compress = *cfg.PDF.Compress
	}
	return &FPDF{
		paper:       cfg.PDF.PaperSizes[cfg.PDF.Paper],
		orientation: orientation,
		margin:      cfg.PDF.MarginMM,
		family:      cfg.PDF.FontFamily,
		size:        cfg.PDF.FontSize,
		lineHeight:  cfg.PDF.LineHeight,
		compress:    compress,
	}
}

func (r *FPDF) Render(ctx context.Context, text string) (*bytes.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: r.orientation,
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: r.paper.Width * mmPerInch, Ht: r.paper.Height * mmPerInch},
	})
	doc.SetCompression(r.compress)
	doc.SetMargins(r.margin, r.margin, r.margin)
	doc.SetAutoPageBreak(true, 2*r.margin)
	doc.AddPage()
	doc.SetFont(r.family, "", r.size)

	tr := doc.UnicodeTranslatorFromDescriptor("")
	for _, line := range splitLines(text) {
		doc.MultiCell(0, r.lineHeight, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// splitLines breaks on \n, \r\n and \r. A trailing line break does not add
// an empty line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
