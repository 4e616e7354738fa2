package multicast

import "sync"

var std struct {
	mu  sync.Mutex
	hub *Hub
}

// Init creates the process-wide hub. It fails with ErrAlreadyInitialized when called twice.
// Scoped hubs created with New are unaffected.
func Init(opts ...Option) (*Hub, error) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.hub != nil {
		return nil, ErrAlreadyInitialized
	}
	std.hub = New(opts...)
	return std.hub, nil
}

// Default returns the process-wide hub created by Init.
func Default() (*Hub, error) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.hub == nil {
		return nil, ErrNotInitialized
	}
	return std.hub, nil
}

func resetDefault() {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.hub = nil
}
