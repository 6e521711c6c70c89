// Package entropy measures the Shannon entropy of byte buffers over
// sliding windows of n bytes.
package entropy

import (
	"math"
)

// H returns the entropy of data in bits per byte, counting every window of
// n consecutive bytes as one symbol. It returns 0 when data holds fewer than
// n bytes.
func H(data []byte, n int) float64 {
	if n < 1 || len(data) < n {
		return 0
	}
	windows := len(data) - n + 1

	var sum float64
	add := func(count int) {
		p := float64(count) / float64(windows)
		sum -= p * math.Log2(p)
	}

	if n == 1 {
		var counts [256]int
		for _, b := range data {
			counts[b]++
		}
		for _, c := range counts {
			if c > 0 {
				add(c)
			}
		}
		return sum
	}

	counts := make(map[string]int)
	for i := range windows {
		counts[string(data[i:i+n])]++
	}
	for _, c := range counts {
		add(c)
	}
	return sum / float64(n)
}

// Orders returns the window sizes 1..k for which H is meaningful for a
// buffer of the given size: k is log256(size) rounded, capped at limit.
func Orders(size, limit int) []int {
	if size < 1 || limit < 1 {
		return nil
	}
	k := int(math.Round(math.Log(float64(size)) / math.Log(256)))
	k = min(limit, k)
	k = max(1, k)
	orders := make([]int, k)
	for i := range orders {
		orders[i] = i + 1
	}
	return orders
}
