package gemini

import (
	"regexp"
	"strings"
)

var (
	// (Note: ...) or [Note: ...] anywhere in the text
	inlineDisclaimer = regexp.MustCompile(`(?i)[\(\[]\s*(note|disclaimer|translator'?s note)\s*:[^\)\]]*[\)\]]`)
	// whole lines that are only a disclaimer
	lineDisclaimer = regexp.MustCompile(`(?i)^\s*(note|disclaimer)\s*:.*$`)
	// lead-ins such as "Here is a summary:"
	leadIn = regexp.MustCompile(`(?i)^\s*(here is|here's|sure[,!]?)[^:\n]{0,60}:\s*`)
	markdownNoise = strings.NewReplacer("**", "", "__", "")
)

// SanitizeAIText strips model disclaimers, lead-ins and markdown emphasis.
func SanitizeAIText(s string) string {
	s = inlineDisclaimer.ReplaceAllString(s, "")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if lineDisclaimer.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = leadIn.ReplaceAllString(out, "")
	out = markdownNoise.Replace(out)
	return strings.TrimSpace(strings.Join(strings.Fields(out), " "))
}
