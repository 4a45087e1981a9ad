package crowd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		count, capacity int
		want            Level
	}{
		{0, 40, Quiet},
		{13, 40, Quiet},
		{14, 40, Moderate},
		{26, 40, Moderate},
		{27, 40, Busy},
		{40, 40, Busy},
		{55, 40, Busy},
		{10, 0, Quiet},
		{30, -1, Busy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.count, tt.capacity), "count=%d capacity=%d", tt.count, tt.capacity)
	}
}

func TestSample(t *testing.T) {
	at := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)

	r := Sample(Fixed(20), 40, at)
	assert.Equal(t, Reading{Count: 20, Capacity: 40, Level: Moderate, At: at}, r)

	r = Sample(Fixed(-3), 0, at)
	assert.Equal(t, 0, r.Count)
	assert.Equal(t, DefaultCapacity, r.Capacity)
	assert.Equal(t, Quiet, r.Level)
}

func TestRandomEstimatorStaysInRange(t *testing.T) {
	est := RandomEstimator{Capacity: 12}
	for range 500 {
		n := est.Estimate()
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 12)
	}

	var zero RandomEstimator
	for range 100 {
		assert.LessOrEqual(t, zero.Estimate(), DefaultCapacity)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "quiet", Quiet.String())
	assert.Equal(t, "moderate", Moderate.String())
	assert.Equal(t, "busy", Busy.String())
}
