package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"

	"papersummary/internal/domain"
)

// Extractor turns a stored upload into plain text. Each supported format is an
// eino parser selected by the file suffix.
type Extractor struct {
	loader *file.FileLoader
}

func NewExtractor(ctx context.Context) (*Extractor, error) {
	ext, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers: map[string]parser.Parser{
			"." + ExtPDF:  pdfParser{},
			"." + ExtDOCX: docxParser{},
			"." + ExtTXT:  textParser{},
		},
		FallbackParser: noopParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("build parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      ext,
	})
	if err != nil {
		return nil, fmt.Errorf("build loader: %w", err)
	}
	return &Extractor{loader: loader}, nil
}

// Extract reads the file at path as the given extension. Unsupported
// extensions yield an empty string. Parse failures wrap domain.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, path, ext string) (string, error) {
	ext = strings.ToLower(ext)
	switch ext {
	case ExtPDF, ExtDOCX, ExtTXT:
	default:
		return "", nil
	}
	// The parser is chosen from the path suffix, so it has to agree with ext.
	if filepath.Ext(path) != "."+ext {
		return "", fmt.Errorf("%w: %s does not end in .%s", domain.ErrExtraction, filepath.Base(path), ext)
	}

	docs, err := e.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtraction, ext, err)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n"), nil
}
