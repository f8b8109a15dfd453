package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordCheck(t *testing.T) {
	m := New()
	m.RecordCheck("caution", true)
	m.RecordCheck("caution", false)
	m.RecordCheck("verified", false)

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["checks_performed"])
	assert.Equal(t, int64(1), stats["images_analyzed"])
	assert.Equal(t, map[string]int64{"caution": 2, "verified": 1}, stats["verdicts"])
}

func TestMetrics_ErrorFlipsHealth(t *testing.T) {
	m := New()
	assert.True(t, m.Healthy())
	m.SetError("upstream down")
	assert.False(t, m.Healthy())
	assert.Equal(t, "upstream down", m.GetStats()["last_error"])
	m.SetLastRun()
	assert.True(t, m.Healthy())
}

func TestMetrics_ProcessingAverage(t *testing.T) {
	m := New()
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, m.AverageProcessingTime)
}
