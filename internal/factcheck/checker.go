// Package factcheck scores news URLs for misinformation risk using keyword
// weights, domain heuristics and simulated image forensics.
package factcheck

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Verdict is one of three risk tiers.
type Verdict string

const (
	VerdictVerified Verdict = "verified"
	VerdictCaution  Verdict = "caution"
	VerdictHighRisk Verdict = "high-risk"
)

// Label is the human readable verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictHighRisk:
		return "HIGH MISINFORMATION RISK"
	case VerdictCaution:
		return "CAUTION ADVISED (High Bias/Uncertainty)"
	default:
		return "VERIFIED (Low Risk)"
	}
}

// Emoji is used by the digest formatter.
func (v Verdict) Emoji() string {
	switch v {
	case VerdictHighRisk:
		return "🚨"
	case VerdictCaution:
		return "⚠️"
	default:
		return "✅"
	}
}

// ImageFeatures are simulated forensic inputs for an article image.
type ImageFeatures struct {
	FileSizeKB  int
	NoiseFactor float64
}

// Result is the outcome of one Check.
type Result struct {
	Verdict       Verdict
	Score         float64
	TextScore     float64
	ImageScore    float64
	ImageAnalyzed bool
}

type resultJSON struct {
	Verdict       Verdict `json:"verdict"`
	Label         string  `json:"label"`
	Score         string  `json:"score"`
	TextScore     string  `json:"text_score"`
	ImageScore    string  `json:"image_score"`
	ImageAnalyzed bool    `json:"image_analyzed"`
}

// FormatScore renders a score with exactly two decimals.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// MarshalJSON renders all scores as two-decimal strings.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Verdict:       r.Verdict,
		Label:         r.Verdict.Label(),
		Score:         FormatScore(r.Score),
		TextScore:     FormatScore(r.TextScore),
		ImageScore:    FormatScore(r.ImageScore),
		ImageAnalyzed: r.ImageAnalyzed,
	})
}

// String is the one-line summary printed by the CLI.
func (r Result) String() string {
	return fmt.Sprintf("Final Misinformation Score: %s | VERDICT: %s", FormatScore(r.Score), r.Verdict.Label())
}

// Checker is safe for concurrent use as long as its RandomSource is.
type Checker struct {
	cfg     Config
	phrases []string
	rnd     RandomSource
}

// Option customizes a Checker.
type Option func(*Checker)

// WithRandomSource replaces the process-wide random source.
func WithRandomSource(src RandomSource) Option {
	return func(c *Checker) {
		if src != nil {
			c.rnd = src
		}
	}
}

// New builds a Checker over cfg. The config is copied.
func New(cfg Config, opts ...Option) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scorer config: %w", err)
	}
	c := &Checker{cfg: cloneConfig(cfg), rnd: GlobalSource()}
	// fixed summation order keeps scores bit-identical across runs
	for phrase := range c.cfg.Keywords {
		c.phrases = append(c.phrases, phrase)
	}
	sort.Strings(c.phrases)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewDefault builds a Checker over DefaultConfig.
func NewDefault(opts ...Option) *Checker {
	c, err := New(DefaultConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Config returns a copy of the scoring table.
func (c *Checker) Config() Config { return cloneConfig(c.cfg) }

// ScoreText scores url and content for sensationalism. The result is at most
// 1 and may be negative unless ClampFloor is set. Keywords match
// case-insensitively; domain markers, suffixes and indicators match the raw url.
func (c *Checker) ScoreText(url, content string) float64 {
	text := strings.ToLower(url + " " + content)

	var acc float64
	for _, phrase := range c.phrases {
		if n := strings.Count(text, phrase); n > 0 {
			acc += float64(n) * c.cfg.Keywords[phrase]
		}
	}

	if containsAny(url, c.cfg.LowAuthorityMarkers) || hasAnySuffix(url, c.cfg.LowTrustSuffixes) {
		acc += c.cfg.LowAuthorityPenalty
	}
	if containsAny(url, c.cfg.IndicatorPatterns) {
		acc += c.cfg.IndicatorPenalty
	}

	score := min(acc/c.cfg.Normalization, 1.0)
	if c.cfg.ClampFloor && score < 0 {
		score = 0
	}
	return score
}

// ScoreImage scores simulated image features into [0, 1]. Exactly one
// random draw is made per call, so repeated calls with equal inputs can differ.
func (c *Checker) ScoreImage(fileSizeKB int, noiseFactor float64) float64 {
	ic := c.cfg.Image
	acc := noiseFactor * ic.NoiseWeight

	if fileSizeKB < ic.SmallFileKB && noiseFactor > ic.NoisyAbove {
		acc += ic.RecompressPenalty
	}
	if c.rnd.Float64() < noiseFactor {
		acc += ic.MetadataPenalty
	}
	return max(min(acc, 1.0), 0)
}

// Check runs text and, when present, image analysis and classifies the
// blended score.
func (c *Checker) Check(url string, image *ImageFeatures, content string) Result {
	res := Result{TextScore: c.ScoreText(url, content)}

	if image != nil {
		res.ImageAnalyzed = true
		res.ImageScore = c.ScoreImage(image.FileSizeKB, image.NoiseFactor)
	}
	res.Score = c.Blend(res.TextScore, res.ImageScore, res.ImageAnalyzed)
	res.Verdict = c.Classify(res.Score)
	return res
}

// Blend combines the subscores. Without image analysis the image share is
// given to the text score.
func (c *Checker) Blend(text, image float64, hasImage bool) float64 {
	if !hasImage {
		// weights sum to 1, so text*TextWeight + text*ImageWeight == text
		return text
	}
	return text*c.cfg.TextWeight + image*c.cfg.ImageWeight
}

// Classify maps a blended score to a verdict. Both comparisons are strict.
func (c *Checker) Classify(score float64) Verdict {
	switch {
	case score > c.cfg.ManipulationThreshold:
		return VerdictHighRisk
	case score > c.cfg.MisinfoThreshold:
		return VerdictCaution
	default:
		return VerdictVerified
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(s, strings.ToLower(suf)) {
			return true
		}
	}
	return false
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Keywords = make(map[string]float64, len(cfg.Keywords))
	for k, v := range cfg.Keywords {
		out.Keywords[k] = v
	}
	out.LowAuthorityMarkers = append([]string(nil), cfg.LowAuthorityMarkers...)
	out.LowTrustSuffixes = append([]string(nil), cfg.LowTrustSuffixes...)
	out.IndicatorPatterns = append([]string(nil), cfg.IndicatorPatterns...)
	return out
}
