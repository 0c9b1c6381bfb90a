package summarizer

const promptHeader = "Summarize the following research paper in plain English. " +
	"Provide the summary with sections for:\n" +
	"1. Problem Statement\n" +
	"2. Methodology\n" +
	"3. Results\n" +
	"4. Conclusion\n\n" +
	"Paper text:\n"

// BuildPrompt embeds text verbatim after the fixed instructions.
func BuildPrompt(text string) string {
	return promptHeader + text
}

// truncateRunes cuts s to at most limit runes. limit <= 0 means no limit.
func truncateRunes(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
