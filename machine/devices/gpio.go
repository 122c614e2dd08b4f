package devices

import (
	"sync"

	"github.com/rcornwell/sarch32/machine"
)

// GPIOIRQChannel is the interrupt-controller channel a rising edge on an
// enabled input pin signals.
const GPIOIRQChannel = 2

const gpioPinCount = 64
const gpioRegisterCount = 16
const gpioLength = gpioRegisterCount * 4

// PinMode is a GPIO pin's 2-bit mode field. Codes 2 and 3 both mean Alt.
type PinMode uint8

const (
	ModeInput PinMode = iota
	ModeOutput
	ModeAlt
)

// GPIO implements the 64-pin, two-bank GPIO peripheral described in §4.5:
// 16 little-endian 32-bit registers (Mode, Level, Set, Clear, Detect,
// Rising, Falling).
//
// Set/Clear bus-register writes only move Output-configured pins; SetState
// (the shell-facing external-world input) only moves Input-configured
// pins and is the only path that runs edge detection and raises an IRQ.
// These are deliberately two separate code paths rather than one
// conflated Set_State, per the pinned-down redesign.
type GPIO struct {
	mu   sync.Mutex
	base uint32
	irq  *machine.InterruptController

	mode    [4]uint32 // 2 bits/pin, 16 pins/register
	level   [2]uint32 // 1 bit/pin, 32 pins/register
	detect  [2]uint32
	rising  [2]uint32
	falling [2]uint32
}

// NewGPIO builds a GPIO peripheral mapped at base, all pins starting as
// Input with no edge-detect enabled.
func NewGPIO(base uint32) *GPIO { return &GPIO{base: base} }

func (g *GPIO) Attach(base uint32, irq *machine.InterruptController) {
	g.base, g.irq = base, irq
}
func (g *GPIO) Detach()            { g.irq = nil }
func (g *GPIO) Advance(uint32)     {}
func (g *GPIO) Base() uint32       { return g.base }
func (g *GPIO) Length() uint32     { return gpioLength }

func (g *GPIO) ReadMemory(addr uint32, size int) (uint32, bool) {
	if size != 4 {
		return 0, true // wrong width: read-as-zero, not an abort
	}
	reg := (addr - g.base) / 4

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case reg <= 3:
		return g.mode[reg], true
	case reg == 4 || reg == 5:
		return g.level[reg-4], true
	case reg >= 6 && reg <= 9:
		return 0, true // Set/Clear read as zero
	case reg == 10 || reg == 11:
		return g.detect[reg-10], true
	case reg == 12 || reg == 13:
		return g.rising[reg-12], true
	case reg == 14 || reg == 15:
		return g.falling[reg-14], true
	default:
		return 0, false
	}
}

func (g *GPIO) WriteMemory(addr uint32, size int, value uint32) bool {
	if size != 4 {
		return true // wrong width: write-ignored
	}
	reg := (addr - g.base) / 4

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case reg <= 3:
		g.mode[reg] = value
	case reg == 4 || reg == 5:
		// Level is read-only; writes are dropped.
	case reg == 6 || reg == 7:
		g.driveOutputsLocked(reg-6, value, true)
	case reg == 8 || reg == 9:
		g.driveOutputsLocked(reg-8, value, false)
	case reg == 10 || reg == 11:
		g.detect[reg-10] &^= value // write 1 to clear
	case reg == 12 || reg == 13:
		g.rising[reg-12] = value
	case reg == 14 || reg == 15:
		g.falling[reg-14] = value
	default:
		return false
	}
	return true
}

// driveOutputsLocked implements the Set (high=true) / Clear (high=false)
// bus registers: only pins configured Output in bank are affected.
func (g *GPIO) driveOutputsLocked(bank uint32, value uint32, high bool) {
	mask := value & g.outputMaskLocked(bank)
	if high {
		g.level[bank] |= mask
	} else {
		g.level[bank] &^= mask
	}
}

func (g *GPIO) outputMaskLocked(bank uint32) uint32 {
	var mask uint32
	for bit := uint32(0); bit < 32; bit++ {
		pin := bank*32 + bit
		if g.pinModeLocked(pin) == ModeOutput {
			mask |= 1 << bit
		}
	}
	return mask
}

func (g *GPIO) pinModeLocked(pin uint32) PinMode {
	reg := pin / 16
	shift := (pin % 16) * 2
	code := (g.mode[reg] >> shift) & 0x3
	if code >= uint32(ModeAlt) {
		return ModeAlt
	}
	return PinMode(code)
}

// GetMode reports pin's configured mode.
func (g *GPIO) GetMode(pin int) PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pinModeLocked(uint32(pin))
}

// PinCount reports the total number of GPIO pins (always 64).
func (g *GPIO) PinCount() int { return gpioPinCount }

// GetState reports pin's current level.
func (g *GPIO) GetState(pin int) bool {
	bank, bit := uint32(pin)/32, uint32(pin)%32
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level[bank]&(1<<bit) != 0
}

// SetState drives pin from outside the machine (the shell's view of the
// external world). It only has an effect on Input-configured pins, and is
// the sole path that runs edge detection and raises GPIOIRQChannel.
func (g *GPIO) SetState(pin int, value bool) {
	bank, bit := uint32(pin)/32, uint32(pin)%32
	mask := uint32(1) << bit

	g.mu.Lock()
	if g.pinModeLocked(uint32(pin)) != ModeInput {
		g.mu.Unlock()
		return
	}
	was := g.level[bank]&mask != 0
	if value {
		g.level[bank] |= mask
	} else {
		g.level[bank] &^= mask
	}

	rising := !was && value && g.rising[bank]&mask != 0
	falling := was && !value && g.falling[bank]&mask != 0
	if rising || falling {
		g.detect[bank] |= mask
	}
	irq := g.irq
	g.mu.Unlock()

	if rising && irq != nil {
		irq.Signal(GPIOIRQChannel)
	}
}
