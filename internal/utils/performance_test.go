package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_Stop(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	timer := NewTimer("daily_detail", log)
	duration := timer.Stop()

	assert.GreaterOrEqual(t, duration, time.Duration(0))
	assert.Contains(t, buf.String(), `"operation":"daily_detail"`)
	assert.NotContains(t, buf.String(), "Slow operation")
}

func TestLogDuration_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		contains string
	}{
		{"fast", time.Second, "Performance measurement"},
		{"slow", 15 * time.Second, "longer than expected"},
		{"very slow", time.Minute, "Slow operation detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logDuration(zerolog.New(&buf), "backup", tt.duration)
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	done := OperationTimer("refresh", zerolog.New(&buf))
	done()

	assert.Contains(t, buf.String(), `"operation":"refresh"`)
}
