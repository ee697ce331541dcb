package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracemetrics/internal/models"
)

func TestThroughputHalfOpenWindows(t *testing.T) {
	packets := []models.Packet{
		sized(0, 100),
		sized(500*time.Millisecond, 200),
		sized(time.Second, 300), // exactly start+w: next window
		sized(2500*time.Millisecond, 400),
	}

	points, err := Throughput(packets, time.Second)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, at(0), points[0].Start)
	assert.Equal(t, at(time.Second), points[1].Start)
	assert.Equal(t, at(2*time.Second), points[2].Start)

	assert.InDelta(t, 2400.0, points[0].BitsPerSecond, 1e-9)
	assert.InDelta(t, 2400.0, points[1].BitsPerSecond, 1e-9)
	assert.InDelta(t, 3200.0, points[2].BitsPerSecond, 1e-9)
}

func TestThroughputEmitsEmptyWindows(t *testing.T) {
	packets := []models.Packet{sized(0, 10), sized(3*time.Second, 10)}

	points, err := Throughput(packets, time.Second)
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.InDelta(t, 80.0, points[0].BitsPerSecond, 1e-9)
	assert.Zero(t, points[1].BitsPerSecond)
	assert.Zero(t, points[2].BitsPerSecond)
	assert.InDelta(t, 80.0, points[3].BitsPerSecond, 1e-9)
}

func TestThroughputWindowCount(t *testing.T) {
	tests := []struct {
		name   string
		span   time.Duration
		window time.Duration
		want   int
	}{
		{"single instant", 0, time.Second, 1},
		{"evenly divisible", 2 * time.Second, time.Second, 3},
		{"partial last window", 2500 * time.Millisecond, time.Second, 3},
		{"sub-second window", 1200 * time.Millisecond, 250 * time.Millisecond, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets := []models.Packet{sized(0, 1), sized(tt.span, 1)}
			points, err := Throughput(packets, tt.window)
			require.NoError(t, err)
			assert.Len(t, points, tt.want)
		})
	}
}

func TestThroughputSinglePacket(t *testing.T) {
	points, err := Throughput([]models.Packet{sized(0, 1500)}, time.Second)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 12000.0, points[0].BitsPerSecond, 1e-9)
}

func TestThroughputConservesVolume(t *testing.T) {
	packets := []models.Packet{
		sized(0, 60),
		sized(130*time.Millisecond, 1500),
		sized(990*time.Millisecond, 40),
		sized(1700*time.Millisecond, 576),
		sized(4*time.Second, 1500),
		sized(4200*time.Millisecond, 52),
	}
	window := 500 * time.Millisecond

	points, err := Throughput(packets, window)
	require.NoError(t, err)

	var bits float64
	for _, p := range points {
		bits += p.BitsPerSecond * window.Seconds()
	}
	var bytes int
	for _, pkt := range packets {
		bytes += pkt.Length
	}
	assert.InDelta(t, float64(8*bytes), bits, 1e-6)
}

func TestThroughputIgnoresInputOrder(t *testing.T) {
	ordered := []models.Packet{sized(0, 10), sized(1500*time.Millisecond, 20), sized(2*time.Second, 30)}
	shuffled := []models.Packet{ordered[2], ordered[0], ordered[1]}

	want, err := Throughput(ordered, time.Second)
	require.NoError(t, err)
	got, err := Throughput(shuffled, time.Second)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, at(2*time.Second), shuffled[0].Timestamp, "input must not be reordered")
}

func TestThroughputStartIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	packets := []models.Packet{{Timestamp: epoch.In(loc), Length: 1}}

	points, err := Throughput(packets, time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, points[0].Start.Location())
	assert.True(t, points[0].Start.Equal(epoch))
}

func TestThroughputErrors(t *testing.T) {
	_, err := Throughput(nil, time.Second)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Throughput([]models.Packet{sized(0, 1)}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Throughput([]models.Packet{sized(0, -1)}, time.Second)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestThroughputRejectsTooManyWindows(t *testing.T) {
	packets := []models.Packet{
		sized(-1000*time.Hour, 60), // clock glitch far before the rest of the trace
		sized(0, 60),
	}

	points, err := Throughput(packets, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.ErrorContains(t, err, "limit is")
	assert.Nil(t, points)

	points, err = Throughput(packets, time.Hour)
	require.NoError(t, err)
	assert.Len(t, points, 1001)
}
