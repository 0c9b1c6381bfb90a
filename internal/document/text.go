package document

import (
	"context"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// textParser reads UTF-8 text and drops invalid byte sequences instead of failing.
type textParser struct {
	inner parser.TextParser
}

func (p textParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	docs, err := p.inner.Parse(ctx, reader, opts...)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		doc.Content = strings.ToValidUTF8(doc.Content, "")
	}
	return docs, nil
}

// noopParser backs extensions without a reader; it yields no documents.
type noopParser struct{}

func (noopParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	return nil, nil
}
