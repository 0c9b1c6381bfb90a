package summarizer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papersummary/internal/config"
	"papersummary/internal/infra/logging"
)

type fakeModel struct {
	mu    sync.Mutex
	reply *schema.Message
	err   error
	calls [][]*schema.Message
	opts  *model.Options
	wait  bool
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.opts = model.GetCommonOptions(nil, opts...)
	f.mu.Unlock()
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.reply, f.err
}

func testConfig() config.LLMConfig {
	return config.Default().LLM
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetLoggerForTest(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetLoggerForTest(zerolog.Nop()) })
	return &buf
}

func TestBuildPrompt(t *testing.T) {
	want := "Summarize the following research paper in plain English. Provide the summary with sections for:\n" +
		"1. Problem Statement\n2. Methodology\n3. Results\n4. Conclusion\n\nPaper text:\nHello world"
	assert.Equal(t, want, BuildPrompt("Hello world"))
	assert.True(t, strings.HasSuffix(BuildPrompt(""), "Paper text:\n"))
}

func TestSummarize_Success(t *testing.T) {
	m := &fakeModel{reply: schema.AssistantMessage("  SUMMARY\n", nil)}
	s := New(testConfig(), m)

	res := s.Summarize(context.Background(), "Hello world")
	require.False(t, res.Failed())
	assert.Equal(t, "SUMMARY", res.Text())
	assert.Equal(t, "ok", res.Status())
	assert.Empty(t, res.Cause())

	require.Len(t, m.calls, 1)
	require.Len(t, m.calls[0], 1)
	assert.Equal(t, schema.User, m.calls[0][0].Role)
	assert.Equal(t, BuildPrompt("Hello world"), m.calls[0][0].Content)
	require.NotNil(t, m.opts.Temperature)
	assert.InDelta(t, 0.3, *m.opts.Temperature, 0.0001)
}

func TestSummarize_RemoteErrorBecomesFailedResult(t *testing.T) {
	captureLogs(t)
	m := &fakeModel{err: errors.New("401 invalid api key")}
	s := New(testConfig(), m)

	res := s.Summarize(context.Background(), "text")
	require.True(t, res.Failed())
	assert.Equal(t, "failed", res.Status())
	assert.Equal(t, "401 invalid api key", res.Cause())
	assert.Equal(t, "Error summarizing text: 401 invalid api key", res.Text())
}

func TestSummarize_EmptyReplyFails(t *testing.T) {
	captureLogs(t)
	for _, reply := range []*schema.Message{nil, schema.AssistantMessage("   ", nil)} {
		s := New(testConfig(), &fakeModel{reply: reply})
		res := s.Summarize(context.Background(), "text")
		assert.True(t, res.Failed())
		assert.True(t, strings.HasPrefix(res.Text(), "Error summarizing text: "))
	}
}

func TestSummarize_EmptyInputStillCallsModel(t *testing.T) {
	m := &fakeModel{reply: schema.AssistantMessage("nothing to summarize", nil)}
	s := New(testConfig(), m)

	res := s.Summarize(context.Background(), "")
	assert.False(t, res.Failed())
	require.Len(t, m.calls, 1)
	assert.Equal(t, BuildPrompt(""), m.calls[0][0].Content)
}

func TestSummarize_TruncatesLongInput(t *testing.T) {
	logs := captureLogs(t)
	cfg := testConfig()
	cfg.MaxInputChars = 5
	m := &fakeModel{reply: schema.AssistantMessage("ok", nil)}
	s := New(cfg, m)

	s.Summarize(context.Background(), "héllo world")
	require.Len(t, m.calls, 1)
	assert.Equal(t, BuildPrompt("héllo"), m.calls[0][0].Content)
	assert.Contains(t, logs.String(), "input truncated")
}

func TestSummarize_UnlimitedInput(t *testing.T) {
	cfg := testConfig()
	cfg.MaxInputChars = 0
	m := &fakeModel{reply: schema.AssistantMessage("ok", nil)}
	s := New(cfg, m)

	long := strings.Repeat("a", 200000)
	s.Summarize(context.Background(), long)
	assert.Equal(t, BuildPrompt(long), m.calls[0][0].Content)
}

func TestSummarize_TimeoutBecomesFailedResult(t *testing.T) {
	captureLogs(t)
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	s := New(cfg, &fakeModel{wait: true})

	res := s.Summarize(context.Background(), "text")
	assert.True(t, res.Failed())
	assert.Contains(t, res.Cause(), "deadline exceeded")
}

func TestNewChatModel_MissingKeyFailsEveryCall(t *testing.T) {
	captureLogs(t)
	cfg := testConfig()
	cfg.APIKey = ""
	s := New(cfg, NewChatModel(context.Background(), cfg))

	res := s.Summarize(context.Background(), "text")
	require.True(t, res.Failed())
	assert.Contains(t, res.Text(), "Error summarizing text: no API key configured")
}

func TestNewChatModel_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "cohere"
	cfg.APIKey = "k"
	m := NewChatModel(context.Background(), cfg)

	_, err := m.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider")
}

func TestNewChatModel_BuildsBackends(t *testing.T) {
	models := map[string]string{
		"openai": "gpt-4",
		"claude": "claude-3-5-sonnet-latest",
		"gemini": "gemini-2.0-flash",
	}
	for provider, name := range models {
		cfg := testConfig()
		cfg.Provider = provider
		cfg.Model = name
		cfg.APIKey = "test-key"

		m, err := newChatModel(context.Background(), cfg)
		require.NoError(t, err, provider)
		assert.NotNil(t, m, provider)

		_, isFailing := NewChatModel(context.Background(), cfg).(failingModel)
		assert.False(t, isFailing, provider)
	}
}

func TestTruncateRunes(t *testing.T) {
	s, cut := truncateRunes("abc", 3)
	assert.Equal(t, "abc", s)
	assert.False(t, cut)

	s, cut = truncateRunes("日本語テキスト", 3)
	assert.Equal(t, "日本語", s)
	assert.True(t, cut)

	s, cut = truncateRunes("abc", -1)
	assert.Equal(t, "abc", s)
	assert.False(t, cut)
}
