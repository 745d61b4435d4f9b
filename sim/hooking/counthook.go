package hooking

// CountHook counts how many times each hook position is triggered, keyed by
// the position name and the detail when the detail is a string.
type CountHook struct {
	counts map[string]uint64
	names  []string
}

// NewCountHook creates a new CountHook.
func NewCountHook() *CountHook {
	return &CountHook{counts: make(map[string]uint64)}
}

// Func counts the invocation.
func (h *CountHook) Func(ctx HookCtx) {
	key := ctx.Pos.Name
	if d, ok := ctx.Detail.(string); ok {
		key += "." + d
	}

	if _, ok := h.counts[key]; !ok {
		h.names = append(h.names, key)
	}

	h.counts[key]++
}

// Names returns the keys seen so far, in the order they first appeared.
func (h *CountHook) Names() []string {
	return h.names
}

// Count returns the number of invocations recorded under the key.
func (h *CountHook) Count(key string) uint64 {
	return h.counts[key]
}
