package hooking

import "sync"

// A Measure extracts a grouping key and a value from a hook invocation. It
// returns false if the invocation should not be measured.
type Measure func(ctx HookCtx) (key string, value float64, ok bool)

// AverageTracer collects the total and average of a measured value, grouped
// by key. It is safe to read while hooks are being invoked.
type AverageTracer struct {
	measure Measure

	lock   sync.Mutex
	keys   []string
	totals map[string]float64
	counts map[string]uint64
}

// NewAverageTracer creates a new AverageTracer.
func NewAverageTracer(measure Measure) *AverageTracer {
	return &AverageTracer{
		measure: measure,
		totals:  make(map[string]float64),
		counts:  make(map[string]uint64),
	}
}

// Func measures the invocation.
func (t *AverageTracer) Func(ctx HookCtx) {
	key, value, ok := t.measure(ctx)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.counts[key]; !seen {
		t.keys = append(t.keys, key)
	}

	t.totals[key] += value
	t.counts[key]++
}

// Keys returns the keys seen so far, in the order they first appeared.
func (t *AverageTracer) Keys() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.keys...)
}

// Total returns the sum of the values measured under the key.
func (t *AverageTracer) Total(key string) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totals[key]
}

// Count returns the number of values measured under the key.
func (t *AverageTracer) Count(key string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[key]
}

// Average returns the mean value measured under the key, or 0 if nothing
// was measured.
func (t *AverageTracer) Average(key string) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.counts[key] == 0 {
		return 0
	}

	return t.totals[key] / float64(t.counts[key])
}
