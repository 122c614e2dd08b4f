package devices

import (
	"sync"

	"github.com/rcornwell/sarch32/machine"
)

// TimerIRQChannel is the interrupt-controller channel the system timer
// signals on a compare or overflow event.
const TimerIRQChannel = 3

const timerChannelCount = 4
const timerLength = 10 * 4 // Control, Status, Counter_0..3, Compare_0..3

// Timer implements the 4-channel system timer from §4.5. Each channel packs
// its control bits into one 6-bit field of the single Control register and
// its two event-latch bits into one 2-bit field of Status.
//
// Multiplier codes 0..3 map to effective per-cycle increments 1, 4, 16, 64
// (4^code), not the source's 1, 4, 8, 12. Crossing detection runs one
// single-cycle iteration at a time rather than a bulk N*multiplier add, so
// that a compare value crossed more than once within one Advance call is
// latched (and, with reset_on_compare, reset) on every crossing rather than
// only the net result.
type Timer struct {
	mu   sync.Mutex
	base uint32
	irq  *machine.InterruptController

	control uint32
	status  uint32
	counter [timerChannelCount]uint32
	compare [timerChannelCount]uint32
}

// NewTimer builds a system timer mapped at base, all channels disabled.
func NewTimer(base uint32) *Timer { return &Timer{base: base} }

func (tm *Timer) Attach(base uint32, irq *machine.InterruptController) {
	tm.base, tm.irq = base, irq
}
func (tm *Timer) Detach()        { tm.irq = nil }
func (tm *Timer) Base() uint32   { return tm.base }
func (tm *Timer) Length() uint32 { return timerLength }

const (
	ctrlEnable         = 1 << 0
	ctrlMultiplierMask = 0x3 << 1
	ctrlMultiplierShift = 1
	ctrlIRQOnCompare   = 1 << 3
	ctrlIRQOnOverflow  = 1 << 4
	ctrlResetOnCompare = 1 << 5
	ctrlBitsPerChannel = 6

	statusCompareEvent  = 1 << 0
	statusOverflowEvent = 1 << 1
	statusBitsPerChannel = 2
)

func channelControl(control uint32, ch int) uint32 {
	return (control >> (ctrlBitsPerChannel * ch)) & ((1 << ctrlBitsPerChannel) - 1)
}

func effectiveMultiplier(ctrl uint32) uint32 {
	code := (ctrl & ctrlMultiplierMask) >> ctrlMultiplierShift
	m := uint32(1)
	for i := uint32(0); i < code; i++ {
		m *= 4
	}
	return m
}

// Advance runs cycles single-cycle increments per enabled channel, testing
// the compare/overflow boundary after every one.
func (tm *Timer) Advance(cycles uint32) {
	tm.mu.Lock()
	fireCompare := make([]bool, timerChannelCount)
	fireOverflow := make([]bool, timerChannelCount)

	for ch := 0; ch < timerChannelCount; ch++ {
		ctrl := channelControl(tm.control, ch)
		if ctrl&ctrlEnable == 0 {
			continue
		}
		mult := effectiveMultiplier(ctrl)
		compare := tm.compare[ch]

		for i := uint32(0); i < cycles; i++ {
			old := tm.counter[ch]
			next := old + mult
			overflowed := next < old
			tm.counter[ch] = next

			crossed := false
			if overflowed {
				fireOverflow[ch] = true
				if compare > old || compare <= next {
					crossed = true
				}
			} else if old < compare && next >= compare {
				crossed = true
			}
			if crossed {
				fireCompare[ch] = true
				if ctrl&ctrlResetOnCompare != 0 {
					tm.counter[ch] = 0
				}
			}
		}

		if fireCompare[ch] {
			tm.status |= statusCompareEvent << (statusBitsPerChannel * ch)
		}
		if fireOverflow[ch] {
			tm.status |= statusOverflowEvent << (statusBitsPerChannel * ch)
		}
	}
	irq := tm.irq
	control := tm.control
	tm.mu.Unlock()

	if irq == nil {
		return
	}
	for ch := 0; ch < timerChannelCount; ch++ {
		ctrl := channelControl(control, ch)
		if (fireCompare[ch] && ctrl&ctrlIRQOnCompare != 0) || (fireOverflow[ch] && ctrl&ctrlIRQOnOverflow != 0) {
			irq.Signal(TimerIRQChannel)
		}
	}
}

func (tm *Timer) ReadMemory(addr uint32, size int) (uint32, bool) {
	if size != 4 {
		return 0, true
	}
	reg := (addr - tm.base) / 4

	tm.mu.Lock()
	defer tm.mu.Unlock()

	switch {
	case reg == 0:
		return tm.control, true
	case reg == 1:
		return tm.status, true
	case reg >= 2 && reg <= 5:
		return tm.counter[reg-2], true
	case reg >= 6 && reg <= 9:
		return tm.compare[reg-6], true
	default:
		return 0, false
	}
}

func (tm *Timer) WriteMemory(addr uint32, size int, value uint32) bool {
	if size != 4 {
		return true
	}
	reg := (addr - tm.base) / 4

	tm.mu.Lock()
	defer tm.mu.Unlock()

	switch {
	case reg == 0:
		tm.control = value
	case reg == 1:
		tm.status &^= value // write 1 to clear latched events
	case reg >= 2 && reg <= 5:
		// Counter registers are read-only from the bus.
	case reg >= 6 && reg <= 9:
		tm.compare[reg-6] = value
	default:
		return false
	}
	return true
}
