package factcheck

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the scoring table. It is read once when a Checker is built and
// never modified afterwards.
type Config struct {
	// Keywords maps a lowercase phrase to its signed weight.
	Keywords map[string]float64 `yaml:"keywords"`

	LowAuthorityMarkers []string `yaml:"low_authority_markers"`
	LowTrustSuffixes    []string `yaml:"low_trust_suffixes"`
	IndicatorPatterns   []string `yaml:"indicator_patterns"`
	LowAuthorityPenalty float64  `yaml:"low_authority_penalty"`
	IndicatorPenalty    float64  `yaml:"indicator_penalty"`
	Normalization       float64  `yaml:"normalization"`

	// ClampFloor also clamps text scores below zero. Off by default: a
	// heavily fact-checking text can score negative.
	ClampFloor bool `yaml:"clamp_floor"`

	MisinfoThreshold      float64 `yaml:"misinfo_threshold"`
	ManipulationThreshold float64 `yaml:"manipulation_threshold"`

	TextWeight  float64 `yaml:"text_weight"`
	ImageWeight float64 `yaml:"image_weight"`

	Image ImageConfig `yaml:"image"`
}

// ImageConfig holds the simulated image-forensics coefficients.
type ImageConfig struct {
	NoiseWeight       float64 `yaml:"noise_weight"`
	SmallFileKB       int     `yaml:"small_file_kb"`
	NoisyAbove        float64 `yaml:"noisy_above"`
	RecompressPenalty float64 `yaml:"recompress_penalty"`
	MetadataPenalty   float64 `yaml:"metadata_penalty"`
}

// DefaultConfig returns the built-in sensationalism table.
func DefaultConfig() Config {
	return Config{
		Keywords: map[string]float64{
			"shocking":  0.25,
			"exclusive": 0.15,
			"must see":  0.20,
			"disaster":  0.10,
			"scam":      0.30,
			"fake news": -0.5, // fact-checking coverage
			"truth":     0.05,
			"exposed":   0.22,
			"viral":     0.18,
		},
		LowAuthorityMarkers:   []string{"blogspot", "wordpress"},
		LowTrustSuffixes:      []string{".co"},
		IndicatorPatterns:     []string{"hoax", "conspiracy", "rumor"},
		LowAuthorityPenalty:   0.3,
		IndicatorPenalty:      0.4,
		Normalization:         2.5,
		MisinfoThreshold:      0.55,
		ManipulationThreshold: 0.70,
		TextWeight:            0.6,
		ImageWeight:           0.4,
		Image: ImageConfig{
			NoiseWeight:       0.45,
			SmallFileKB:       100,
			NoisyAbove:        0.5,
			RecompressPenalty: 0.35,
			MetadataPenalty:   0.20,
		},
	}
}

// LoadConfig reads a YAML scoring table from path. Fields missing from the
// file keep their DefaultConfig values; a keywords block replaces the whole
// default table.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scorer config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML scoring table layered over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Keywords = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode scorer config: %w", err)
	}
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultConfig().Keywords
	}

	normalized, err := normalizeKeywords(cfg.Keywords)
	if err != nil {
		return Config{}, err
	}
	cfg.Keywords = normalized

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func normalizeKeywords(in map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for phrase, weight := range in {
		key := strings.ToLower(strings.TrimSpace(phrase))
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate keyword %q after lowercasing", key)
		}
		out[key] = weight
	}
	return out, nil
}

// Validate reports the first inconsistency in the table.
func (c Config) Validate() error {
	for phrase, weight := range c.Keywords {
		if strings.TrimSpace(phrase) == "" {
			return errors.New("keyword phrase must not be empty")
		}
		if phrase != strings.ToLower(phrase) {
			return fmt.Errorf("keyword %q must be lowercase", phrase)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return fmt.Errorf("keyword %q has non-finite weight", phrase)
		}
	}
	for name, v := range map[string]float64{
		"low_authority_penalty":    c.LowAuthorityPenalty,
		"indicator_penalty":        c.IndicatorPenalty,
		"normalization":            c.Normalization,
		"misinfo_threshold":        c.MisinfoThreshold,
		"manipulation_threshold":   c.ManipulationThreshold,
		"text_weight":              c.TextWeight,
		"image_weight":             c.ImageWeight,
		"image.noise_weight":       c.Image.NoiseWeight,
		"image.noisy_above":        c.Image.NoisyAbove,
		"image.recompress_penalty": c.Image.RecompressPenalty,
		"image.metadata_penalty":   c.Image.MetadataPenalty,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite, got %v", name, v)
		}
	}
	if c.Normalization <= 0 {
		return fmt.Errorf("normalization must be positive, got %v", c.Normalization)
	}
	if c.MisinfoThreshold <= 0 || c.MisinfoThreshold >= 1 {
		return fmt.Errorf("misinfo_threshold must be in (0,1), got %v", c.MisinfoThreshold)
	}
	if c.ManipulationThreshold <= 0 || c.ManipulationThreshold >= 1 {
		return fmt.Errorf("manipulation_threshold must be in (0,1), got %v", c.ManipulationThreshold)
	}
	if c.MisinfoThreshold >= c.ManipulationThreshold {
		return fmt.Errorf("misinfo_threshold (%v) must be below manipulation_threshold (%v)",
			c.MisinfoThreshold, c.ManipulationThreshold)
	}
	if c.TextWeight < 0 || c.ImageWeight < 0 {
		return errors.New("blend weights must not be negative")
	}
	if math.Abs(c.TextWeight+c.ImageWeight-1) > 1e-9 {
		return fmt.Errorf("blend weights must sum to 1, got %v", c.TextWeight+c.ImageWeight)
	}
	if c.Image.SmallFileKB < 0 {
		return errors.New("image.small_file_kb must not be negative")
	}
	return nil
}
