package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"papersummary/internal/config"
	"papersummary/internal/domain"
)

const pageTemplate = `<!DOCTYPE html><html><head><meta charset="utf-8"><style>` +
	`body{margin:0}pre{white-space:pre-wrap;word-wrap:break-word;font-family:%s,sans-serif;font-size:%.1fpt;line-height:1.5}` +
	`</style></head><body><pre>%s</pre></body></html>`

// Chrome prints the summary through headless Chrome. It handles any Unicode
// text but needs a Chrome binary on the host.
type Chrome struct {
	paper     config.PaperSize
	marginIn  float64
	family    string
	size      float64
	execPath  string
	noSandbox bool
	timeout   time.Duration
}

func NewChrome(cfg config.Config) *Chrome {
	paper := cfg.PDF.PaperSizes[cfg.PDF.Paper]
	if cfg.PDF.Orientation == "landscape" {
		paper.Width, paper.Height = paper.Height, paper.Width
	}
	return &Chrome{
		paper:     paper,
		marginIn:  cfg.PDF.MarginMM / mmPerInch,
		family:    cfg.PDF.FontFamily,
		size:      cfg.PDF.FontSize,
		execPath:  cfg.PDF.ChromePath,
		noSandbox: cfg.PDF.ChromeNoSandbox,
		timeout:   time.Duration(cfg.PDF.TimeoutSecs) * time.Second,
	}
}

func (r *Chrome) Render(ctx context.Context, text string) (*bytes.Reader, error) {
	pdfBuf, err := r.renderWithChrome(ctx, summaryPage(text, r.family, r.size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return bytes.NewReader(pdfBuf), nil
}

func summaryPage(text, family string, size float64) string {
	return fmt.Sprintf(pageTemplate, html.EscapeString(family), size, html.EscapeString(text))
}

// renderWithChrome starts a throwaway Chrome with its own profile directory.
func (r *Chrome) renderWithChrome(ctx context.Context, doc string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		// Software rendering only; minimal containers have no usable GPU stack.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.execPath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(r.execPath))
	}
	if r.noSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions...)
	defer allocCancel()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if r.timeout > 0 {
		chromeCtx, cancel = context.WithTimeout(chromeCtx, r.timeout)
		defer cancel()
	}

	return printDocument(chromeCtx, doc, r.paper, r.marginIn)
}

// printDocument loads doc into the current tab and prints it.
func printDocument(ctx context.Context, doc string, paper config.PaperSize, margin float64) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paper.Width).
				WithPaperHeight(paper.Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
