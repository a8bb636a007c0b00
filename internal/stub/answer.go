package stub

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	noMatchAnswer = "I couldn't find anything about that in the news articles I have. Try asking about another topic."
	excerptRunes  = 240
)

// answer builds a reply grounded in the retrieved articles. There is no
// language model behind the stub: the reply quotes the best matches.
func answer(hits []Article) string {
	if len(hits) == 0 {
		return noMatchAnswer
	}

	var b strings.Builder
	if len(hits) == 1 {
		b.WriteString("Here is the most relevant article I found:\n\n")
	} else {
		fmt.Fprintf(&b, "Here are the %d most relevant articles I found:\n\n", len(hits))
	}
	for i, a := range hits {
		fmt.Fprintf(&b, "%d. **%s**", i+1, strings.TrimSpace(a.Title))
		if a.Source != "" {
			fmt.Fprintf(&b, " (%s)", a.Source)
		}
		b.WriteString("\n")
		if ex := excerpt(a.Content, excerptRunes); ex != "" {
			fmt.Fprintf(&b, "   %s\n", ex)
		}
		if a.URL != "" {
			fmt.Fprintf(&b, "   %s\n", a.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// excerpt returns the first sentence of text, cut to at most n runes.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if i := strings.Index(text, ". "); i >= 0 {
		text = text[:i+1]
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:n])) + "..."
}
