package sessions_test

import (
	"testing"
	"time"

	sessions "github.com/goliatone/go-sessions"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	tests := []struct {
		name          string
		inputTime     time.Time
		thresholdExpr string
		expected      bool
		expectErr     bool
	}{
		{
			name:          "within 1 hour threshold",
			inputTime:     time.Now().Add(-30 * time.Minute),
			thresholdExpr: "1h",
			expected:      true,
		},
		{
			name:          "outside 1 hour threshold",
			inputTime:     time.Now().Add(-90 * time.Minute),
			thresholdExpr: "1h",
			expected:      false,
		},
		{
			name:          "complex threshold (2h30m)",
			inputTime:     time.Now().Add(-2 * time.Hour),
			thresholdExpr: "2h30m",
			expected:      true,
		},
		{
			name:          "future time",
			inputTime:     time.Now().Add(1 * time.Hour),
			thresholdExpr: "2h",
			expected:      true,
		},
		{
			name:          "invalid threshold expression",
			inputTime:     time.Now(),
			thresholdExpr: "not-a-duration",
			expectErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sessions.IsWithinThresholdPeriod(tt.inputTime, tt.thresholdExpr)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := sessions.IsOutsideThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	assert.NoError(t, err)
	assert.True(t, outside)

	outside, err = sessions.IsOutsideThresholdPeriod(time.Now().Add(-time.Hour), "24h")
	assert.NoError(t, err)
	assert.False(t, outside)

	_, err = sessions.IsOutsideThresholdPeriod(time.Now(), "bogus")
	assert.Error(t, err)
}
