package multicast

// ResetDefault drops the process-wide hub so tests can call Init again.
var ResetDefault = resetDefault

// CacheLen reports how many multicasters the hub has cached.
func CacheLen(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache)
}
