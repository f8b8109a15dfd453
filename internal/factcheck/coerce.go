package factcheck

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceImageFeatures converts loosely typed request fields into image
// features. It returns nil when either value is missing or cannot be read as
// a number; callers then skip image analysis instead of failing the request.
//
// Accepted sizes are JSON numbers (truncated toward zero) and decimal integer
// strings. Accepted noise factors are non-negative JSON numbers and float
// strings.
func CoerceImageFeatures(size, noise any) *ImageFeatures {
	if size == nil || noise == nil {
		return nil
	}
	kb, ok := coerceInt(size)
	if !ok || kb < 0 {
		return nil
	}
	nf, ok := coerceFloat(noise)
	if !ok || nf < 0 || math.IsNaN(nf) || math.IsInf(nf, 0) {
		return nil
	}
	return &ImageFeatures{FileSizeKB: kb, NoiseFactor: nf}
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
