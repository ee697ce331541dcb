package analysis

import (
	"sort"
	"time"
)

// selectionThreshold is the input size above which percentiles use quickselect
// instead of a full sort.
const selectionThreshold = 1000

// LatencySummary aggregates a duration series.
type LatencySummary struct {
	Count int
	Min   time.Duration
	Avg   time.Duration
	Max   time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Summarize computes count, extremes, mean and percentiles of values.
// An empty series yields a zero summary.
func Summarize(values []time.Duration) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}

	sum := LatencySummary{Count: len(values), Min: values[0], Max: values[0]}
	var total time.Duration
	for _, v := range values {
		total += v
		if v < sum.Min {
			sum.Min = v
		}
		if v > sum.Max {
			sum.Max = v
		}
	}
	sum.Avg = total / time.Duration(len(values))

	ps := percentiles(values, 50, 95, 99)
	sum.P50, sum.P95, sum.P99 = ps[0], ps[1], ps[2]

	return sum
}

// Percentile returns the nearest-rank-below percentile of values, or 0 for an empty series.
func Percentile(values []time.Duration, percentile float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	return percentiles(values, percentile)[0]
}

// percentiles copies values once and picks every requested percentile from the
// copy: a full sort for small series, quickselect above selectionThreshold.
func percentiles(values []time.Duration, ps ...float64) []time.Duration {
	data := make([]time.Duration, len(values))
	copy(data, values)
	out := make([]time.Duration, len(ps))

	if len(data) <= selectionThreshold {
		sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })
		for i, p := range ps {
			out[i] = data[percentileIndex(len(data), p)]
		}
		return out
	}
	for i, p := range ps {
		out[i] = quickSelect(data, percentileIndex(len(data), p))
	}
	return out
}

func percentileIndex(n int, percentile float64) int {
	k := int(float64(n-1) * (percentile / 100.0))
	if k < 0 {
		k = 0
	}
	if k >= n {
		k = n - 1
	}
	return k
}

// quickSelect returns the k-th smallest element, reordering arr in place.
func quickSelect(arr []time.Duration, k int) time.Duration {
	left := 0
	right := len(arr) - 1

	for {
		if left == right {
			return arr[left]
		}

		pivotIndex := partition(arr, left, right)

		if k == pivotIndex {
			return arr[k]
		} else if k < pivotIndex {
			right = pivotIndex - 1
		} else {
			left = pivotIndex + 1
		}
	}
}

func partition(arr []time.Duration, left, right int) int {
	// Middle pivot keeps sorted input from degrading to quadratic time.
	pivotIndex := left + (right-left)/2
	pivot := arr[pivotIndex]

	arr[pivotIndex], arr[right] = arr[right], arr[pivotIndex]
	storeIndex := left

	for i := left; i < right; i++ {
		if arr[i] < pivot {
			arr[storeIndex], arr[i] = arr[i], arr[storeIndex]
			storeIndex++
		}
	}

	arr[storeIndex], arr[right] = arr[right], arr[storeIndex]
	return storeIndex
}
