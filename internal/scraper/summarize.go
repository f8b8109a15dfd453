package scraper

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultSentences is the summary length used when n <= 0.
const DefaultSentences = 5

var sentenceEnd = regexp.MustCompile(`([.!?]["')\]]?)\s+`)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "it": true, "its": true,
	"that": true, "this": true, "these": true, "those": true, "he": true,
	"she": true, "they": true, "we": true, "you": true, "i": true, "his": true,
	"her": true, "their": true, "has": true, "have": true, "had": true,
	"not": true, "said": true, "will": true, "would": true, "can": true,
}

// SplitSentences breaks text on terminal punctuation followed by whitespace.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		if s = collapseSpaces(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Summarize picks the n highest scoring sentences by normalized word
// frequency and returns them in their original order, one per line.
func Summarize(text string, n int) string {
	if n <= 0 {
		n = DefaultSentences
	}
	sentences := SplitSentences(text)
	if len(sentences) <= n {
		return strings.Join(sentences, "\n")
	}

	freq := map[string]float64{}
	var maxFreq float64
	for _, s := range sentences {
		for _, w := range words(s) {
			if stopWords[w] || len(w) < 2 {
				continue
			}
			freq[w]++
			maxFreq = max(maxFreq, freq[w])
		}
	}
	if maxFreq == 0 {
		return strings.Join(sentences[:n], "\n")
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		var total float64
		for _, w := range ws {
			total += freq[w] / maxFreq
		}
		if len(ws) > 0 {
			total /= float64(len(ws))
		}
		ranked[i] = scored{idx: i, score: total}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	picked := ranked[:n]
	sort.Slice(picked, func(a, b int) bool { return picked[a].idx < picked[b].idx })

	out := make([]string, n)
	for i, p := range picked {
		out[i] = sentences[p.idx]
	}
	return strings.Join(out, "\n")
}
