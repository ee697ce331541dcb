package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracemetrics/internal/models"
)

func TestPacketSizes(t *testing.T) {
	packets := []models.Packet{sized(0, 60), sized(time.Second, 1500), sized(0, 0)}

	sizes, err := PacketSizes(packets)
	require.NoError(t, err)
	assert.Equal(t, []int{60, 1500, 0}, sizes)

	_, err = PacketSizes([]models.Packet{sized(0, -4)})
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestCumulativeTraffic(t *testing.T) {
	packets := []models.Packet{
		sized(0, 100),
		sized(2*time.Second, 50),
		sized(time.Second, 25), // out of time order, kept in place
	}

	points, err := CumulativeTraffic(packets)
	require.NoError(t, err)

	assert.Equal(t, []CumulativePoint{
		{Time: at(0), Bytes: 100},
		{Time: at(2 * time.Second), Bytes: 150},
		{Time: at(time.Second), Bytes: 175},
	}, points)
}

func TestCumulativeTrafficNonDecreasing(t *testing.T) {
	var packets []models.Packet
	for i, length := range []int{0, 60, 0, 1500, 40, 40, 0, 9000} {
		packets = append(packets, sized(time.Duration(i)*time.Millisecond, length))
	}

	points, err := CumulativeTraffic(packets)
	require.NoError(t, err)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Bytes, points[i-1].Bytes)
	}
}

func TestCumulativeTrafficEmpty(t *testing.T) {
	points, err := CumulativeTraffic(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestJitter(t *testing.T) {
	packets := []models.Packet{sized(0, 1), sized(time.Second, 1), sized(3*time.Second, 1)}
	assert.Equal(t, []time.Duration{time.Second}, Jitter(packets))
}

func TestJitterSeries(t *testing.T) {
	packets := []models.Packet{
		sized(0, 1),
		sized(100*time.Millisecond, 1),
		sized(300*time.Millisecond, 1),
		sized(350*time.Millisecond, 1),
		sized(450*time.Millisecond, 1),
	}
	// Inter-arrivals 100, 200, 50, 100 ms.
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		150 * time.Millisecond,
		50 * time.Millisecond,
	}, Jitter(packets))
}

func TestJitterTooFewPackets(t *testing.T) {
	for n := 0; n < 3; n++ {
		packets := make([]models.Packet, n)
		jitter := Jitter(packets)
		assert.NotNil(t, jitter)
		assert.Empty(t, jitter)
	}
}

func TestJitterUnorderedInput(t *testing.T) {
	// Inter-arrivals +2s then -1s.
	packets := []models.Packet{sized(0, 1), sized(2*time.Second, 1), sized(time.Second, 1)}
	assert.Equal(t, []time.Duration{3 * time.Second}, Jitter(packets))
}
