package analysis

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	values := []time.Duration{
		40 * time.Millisecond,
		10 * time.Millisecond,
		30 * time.Millisecond,
		20 * time.Millisecond,
	}

	sum := Summarize(values)

	assert.Equal(t, 4, sum.Count)
	assert.Equal(t, 10*time.Millisecond, sum.Min)
	assert.Equal(t, 40*time.Millisecond, sum.Max)
	assert.Equal(t, 25*time.Millisecond, sum.Avg)
	assert.Equal(t, 20*time.Millisecond, sum.P50)
	assert.Equal(t, 30*time.Millisecond, sum.P95)
	assert.Equal(t, 30*time.Millisecond, sum.P99)
	assert.Equal(t, 40*time.Millisecond, values[0], "input must not be reordered")
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, LatencySummary{}, Summarize(nil))
	assert.Zero(t, Percentile(nil, 50))
}

func TestPercentileSelectionMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]time.Duration, 5000)
	for i := range values {
		values[i] = time.Duration(rng.Int63n(int64(time.Second)))
	}

	sorted := make([]time.Duration, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, p := range []float64{0, 50, 95, 99, 100} {
		want := sorted[int(float64(len(sorted)-1)*(p/100.0))]
		assert.Equal(t, want, Percentile(values, p), "p%v", p)
	}
}

func TestSummarizeLargeSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]time.Duration, 3*selectionThreshold)
	for i := range values {
		values[i] = time.Duration(rng.Int63n(int64(time.Second)))
	}
	first := values[0]

	sorted := make([]time.Duration, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	at := func(p float64) time.Duration {
		return sorted[int(float64(len(sorted)-1)*(p/100.0))]
	}

	sum := Summarize(values)

	assert.Equal(t, len(values), sum.Count)
	assert.Equal(t, sorted[0], sum.Min)
	assert.Equal(t, sorted[len(sorted)-1], sum.Max)
	assert.Equal(t, at(50), sum.P50)
	assert.Equal(t, at(95), sum.P95)
	assert.Equal(t, at(99), sum.P99)
	assert.Equal(t, first, values[0], "input must not be reordered")
}
