package analytics

import "sort"

// counter tallies keys and remembers the order in which each key was first seen, so
// rankings are stable for an unchanged input.
type counter struct {
	index  map[string]int
	keys   []string
	counts []int64
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.counts[i]++
		return
	}
	c.index[key] = len(c.keys)
	c.keys = append(c.keys, key)
	c.counts = append(c.counts, 1)
}

func (c *counter) get(key string) int64 {
	if i, ok := c.index[key]; ok {
		return c.counts[i]
	}
	return 0
}

// ranked returns every key by count descending, ties in first-seen order.
func (c *counter) ranked() []MetricCountResult {
	out := make([]MetricCountResult, len(c.keys))
	for i, k := range c.keys {
		out[i] = MetricCountResult{Name: k, Count: c.counts[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// top returns at most n ranked entries.
func (c *counter) top(n int) []MetricCountResult {
	out := c.ranked()
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// sortedKeys returns the counted keys in ascending lexical order.
func (c *counter) sortedKeys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	sort.Strings(keys)
	return keys
}
