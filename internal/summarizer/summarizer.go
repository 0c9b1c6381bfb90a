// Package summarizer asks a chat model for a sectioned summary of a paper.
package summarizer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"papersummary/internal/config"
	"papersummary/internal/infra/logging"
)

type Summarizer struct {
	cfg   config.LLMConfig
	model ChatModel
}

func New(cfg config.LLMConfig, m ChatModel) *Summarizer {
	return &Summarizer{cfg: cfg, model: m}
}

// Summarize sends one request per call. Every failure is folded into the
// returned Result.
func (s *Summarizer) Summarize(ctx context.Context, text string) Result {
	if cut, truncated := truncateRunes(text, s.cfg.MaxInputChars); truncated {
		logging.Warn("input truncated before summarization",
			"chars", utf8.RuneCountInString(text), "limit", s.cfg.MaxInputChars)
		text = cut
	}
	return s.generate(ctx, text)
}

func (s *Summarizer) generate(ctx context.Context, text string) Result {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	opts := []model.Option{model.WithTemperature(s.cfg.Temperature)}
	if s.cfg.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(s.cfg.MaxTokens))
	}
	if s.cfg.Model != "" {
		opts = append(opts, model.WithModel(s.cfg.Model))
	}

	start := time.Now()
	msg, err := s.model.Generate(ctx, []*schema.Message{schema.UserMessage(BuildPrompt(text))}, opts...)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logging.Warn("summarization failed", "provider", s.cfg.Provider, "elapsed_ms", elapsed, "error", err)
		return Failed(err.Error())
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		logging.Warn("summarization failed", "provider", s.cfg.Provider, "elapsed_ms", elapsed, "error", errEmptyReply)
		return Failed(errEmptyReply.Error())
	}

	logging.Info("summarization done", "provider", s.cfg.Provider, "elapsed_ms", elapsed,
		"reply_chars", utf8.RuneCountInString(msg.Content))
	return Summary(strings.TrimSpace(msg.Content))
}
