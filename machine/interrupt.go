package machine

import "sync"

// ChannelCount bounds the per-channel pending-IRQ flags. GPIO signals
// channel 2, the system timer channel 3, and MiniUART channel 4; the
// remaining channels are reserved for future peripherals.
const ChannelCount = 8

// InterruptController holds one pending-IRQ flag per channel, per the
// data-model wording ("Pending-IRQ flag per channel"), rather than the
// single global flag a narrower reading might suggest.
type InterruptController struct {
	mu      sync.Mutex
	pending [ChannelCount]bool
}

// Signal marks channel as pending. Safe to call from a peripheral's
// Advance, which may run on the CPU step thread.
func (ic *InterruptController) Signal(channel int) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if channel >= 0 && channel < ChannelCount {
		ic.pending[channel] = true
	}
}

// Pending reports whether any channel currently has a latched IRQ.
func (ic *InterruptController) Pending() bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for _, p := range ic.pending {
		if p {
			return true
		}
	}
	return false
}

// Clear drops every channel's pending flag; called on CPU reset and again
// once the IRQ exception has been dispatched to its handler.
func (ic *InterruptController) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for i := range ic.pending {
		ic.pending[i] = false
	}
}
