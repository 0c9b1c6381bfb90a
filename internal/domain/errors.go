package domain

import "errors"

var (
	// ErrNoFile signals a request without a file part.
	ErrNoFile = errors.New("no file part")
	// ErrEmptyFilename signals a file part whose filename is empty.
	ErrEmptyFilename = errors.New("no file selected")
	// ErrInvalidFileType signals an extension outside pdf, docx and txt.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrExtraction wraps parser failures for corrupt or unreadable documents.
	ErrExtraction = errors.New("text extraction failed")
	// ErrRender wraps failures while laying out the summary PDF.
	ErrRender = errors.New("pdf rendering failed")
	// ErrPDFTooLarge signals a rendered document above limits.max_pdf_bytes.
	ErrPDFTooLarge = errors.New("pdf exceeds allowed size")
)

// IsAdmission reports whether err is one of the validation errors that end a
// request with a notice rather than a failure.
func IsAdmission(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrEmptyFilename) || errors.Is(err, ErrInvalidFileType)
}
