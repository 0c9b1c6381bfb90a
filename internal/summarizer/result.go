package summarizer

const failurePrefix = "Error summarizing text: "

// Result is either a summary or the reason summarization failed.
type Result struct {
	text  string
	cause string
	ok    bool
}

func Summary(text string) Result { return Result{text: text, ok: true} }

func Failed(cause string) Result { return Result{cause: cause} }

func (r Result) Failed() bool { return !r.ok }

// Cause is empty for a successful result.
func (r Result) Cause() string { return r.cause }

// Text is what gets rendered: the summary, or an error line for a failure.
func (r Result) Text() string {
	if r.ok {
		return r.text
	}
	return failurePrefix + r.cause
}

// Status is the short tag exposed to HTTP clients.
func (r Result) Status() string {
	if r.ok {
		return "ok"
	}
	return "failed"
}
