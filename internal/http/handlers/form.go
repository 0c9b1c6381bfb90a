package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"papersummary/internal/document"
	"papersummary/internal/domain"
	"papersummary/internal/http/middleware"
	"papersummary/internal/infra/logging"
	"papersummary/internal/pipeline"
)

const (
	NoticeNoFilePart    = "No file part"
	NoticeNoFileChosen  = "No file selected"
	NoticeInvalidFormat = "Invalid file type"

	// HeaderSummaryStatus tells clients whether the PDF holds a summary or an error line.
	HeaderSummaryStatus = "X-Summary-Status"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type Runner interface {
	Run(ctx context.Context, up pipeline.Upload) (*pipeline.Output, error)
}

// FormService serves the upload form and turns submissions into summary PDFs.
type FormService struct {
	runner   Runner
	filename string
}

func NewFormService(runner Runner, filename string) *FormService {
	if filename == "" {
		filename = "summary.pdf"
	}
	return &FormService{runner: runner, filename: filename}
}

// HandleForm renders the empty upload form.
func (svc *FormService) HandleForm(c *fiber.Ctx) error {
	return renderForm(c, fiber.StatusOK)
}

// HandleUpload accepts the multipart field "file".
func (svc *FormService) HandleUpload(c *fiber.Ctx) error {
	requestID := middleware.RequestID(c)

	form, err := c.MultipartForm()
	if err != nil {
		return toHTTPError(c, domain.ErrNoFile)
	}
	files := form.File["file"]
	if len(files) == 0 {
		// Browsers send an empty file input as a plain value.
		if _, ok := form.Value["file"]; ok {
			return toHTTPError(c, domain.ErrEmptyFilename)
		}
		return toHTTPError(c, domain.ErrNoFile)
	}
	fh := files[0]
	if fh.Filename == "" {
		return toHTTPError(c, domain.ErrEmptyFilename)
	}
	if !document.Allowed(fh.Filename) {
		logging.Info("Rejected upload", "filename", fh.Filename, "request_id", requestID)
		return toHTTPError(c, domain.ErrInvalidFileType)
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer f.Close()

	out, err := svc.runner.Run(c.UserContext(), pipeline.Upload{
		Filename:  fh.Filename,
		Content:   f,
		RequestID: requestID,
	})
	if err != nil {
		return toHTTPError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+svc.filename+`"`)
	c.Set(HeaderSummaryStatus, out.Summary.Status())
	return c.SendStream(out.PDF, int(out.PDF.Size()))
}

func toHTTPError(c *fiber.Ctx, err error) error {
	if domain.IsAdmission(err) {
		return renderForm(c, fiber.StatusBadRequest, noticeFor(err))
	}
	switch {
	case errors.Is(err, domain.ErrExtraction):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Could not extract text from the uploaded file")
	case errors.Is(err, domain.ErrPDFTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "PDF exceeds allowed size")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "PDF generation failed")
	}
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoFile):
		return NoticeNoFilePart
	case errors.Is(err, domain.ErrEmptyFilename):
		return NoticeNoFileChosen
	default:
		return NoticeInvalidFormat
	}
}

func renderForm(c *fiber.Ctx, status int, notices ...string) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, struct{ Notices []string }{notices}); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
