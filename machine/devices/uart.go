package devices

import (
	"sync"

	"github.com/rcornwell/sarch32/machine"
)

// UARTIRQChannel is the interrupt-controller channel MiniUART signals on an
// empty-TX or first-RX-byte event.
const UARTIRQChannel = 4

const uartLength = 4 * 4 // Control, Status, Data, Baud_Rate
const uartFIFOCapacity = 16
const uartCyclesPerChar = 64

const (
	uartCtrlEnable            = 1 << 0
	uartCtrlRxEnable          = 1 << 1
	uartCtrlTxEnable          = 1 << 2
	uartCtrlRxIRQEnable       = 1 << 3
	uartCtrlTxEmptyIRQEnable  = 1 << 4
)

const (
	uartStatusRxDataReady   = 1 << 0
	uartStatusTxFIFOEmpty   = 1 << 1
	uartStatusRxFIFOOverrun = 1 << 2
	uartStatusTxFIFOOverrun = 1 << 3
	uartStatusTxFIFOFull    = 1 << 4
)

// byteFIFO is a small fixed-capacity ring buffer.
type byteFIFO struct {
	buf   [uartFIFOCapacity]byte
	count int
	head  int
}

func (f *byteFIFO) empty() bool { return f.count == 0 }
func (f *byteFIFO) full() bool  { return f.count == uartFIFOCapacity }

func (f *byteFIFO) push(b byte) bool {
	if f.full() {
		return false
	}
	f.buf[(f.head+f.count)%uartFIFOCapacity] = b
	f.count++
	return true
}

func (f *byteFIFO) pop() (byte, bool) {
	if f.empty() {
		return 0, false
	}
	b := f.buf[f.head]
	f.head = (f.head + 1) % uartFIFOCapacity
	f.count--
	return b, true
}

// UART implements the MiniUART peripheral: device-internal TX/RX FIFOs
// serviced from two external queues that stand in for the physical line,
// advanced one character every 64 accumulated cycles. The shell drives the
// external side through PutChar/GetChar (§6); the CPU drives the device
// side through the bus's Data register.
type UART struct {
	mu   sync.Mutex
	base uint32
	irq  *machine.InterruptController

	control uint32
	status  uint32
	baud    uint32

	tx, rx         byteFIFO // device-internal
	sent, received byteFIFO // external-facing queues (line)

	cycles uint32
}

// NewUART builds a MiniUART peripheral mapped at base.
func NewUART(base uint32) *UART {
	u := &UART{base: base}
	u.status = uartStatusTxFIFOEmpty
	return u
}

func (u *UART) Attach(base uint32, irq *machine.InterruptController) {
	u.base, u.irq = base, irq
}
func (u *UART) Detach()        { u.irq = nil }
func (u *UART) Base() uint32   { return u.base }
func (u *UART) Length() uint32 { return uartLength }

func (u *UART) ReadMemory(addr uint32, size int) (uint32, bool) {
	if size != 4 {
		return 0, true
	}
	reg := (addr - u.base) / 4

	u.mu.Lock()
	defer u.mu.Unlock()

	switch reg {
	case 0:
		return u.control, true
	case 1:
		return u.status, true
	case 2:
		b, ok := u.rx.pop()
		u.refreshStatusLocked()
		if !ok {
			return 0, true
		}
		return uint32(b), true
	case 3:
		return u.baud, true
	default:
		return 0, false
	}
}

func (u *UART) WriteMemory(addr uint32, size int, value uint32) bool {
	if size != 4 {
		return true
	}
	reg := (addr - u.base) / 4

	u.mu.Lock()
	defer u.mu.Unlock()

	switch reg {
	case 0:
		u.control = value
	case 1:
		u.status &^= value
	case 2:
		if !u.tx.push(byte(value)) {
			u.status |= uartStatusTxFIFOOverrun
		}
		u.refreshStatusLocked()
	case 3:
		u.baud = value
	default:
		return false
	}
	return true
}

func (u *UART) refreshStatusLocked() {
	if u.rx.empty() {
		u.status &^= uartStatusRxDataReady
	} else {
		u.status |= uartStatusRxDataReady
	}
	if u.tx.empty() {
		u.status |= uartStatusTxFIFOEmpty
	} else {
		u.status &^= uartStatusTxFIFOEmpty
	}
	if u.tx.full() {
		u.status |= uartStatusTxFIFOFull
	} else {
		u.status &^= uartStatusTxFIFOFull
	}
}

// Advance accumulates cycles and, every uartCyclesPerChar cycles, moves one
// character out of the TX FIFO onto the external "sent" queue and one
// character off the external "received" queue into the RX FIFO.
func (u *UART) Advance(cycles uint32) {
	u.mu.Lock()
	u.cycles += cycles

	var raiseTxEmpty, raiseRxReady bool

	for u.cycles >= uartCyclesPerChar {
		u.cycles -= uartCyclesPerChar

		if u.control&uartCtrlTxEnable != 0 {
			if b, ok := u.tx.pop(); ok {
				if !u.sent.push(b) {
					u.sent.pop() // external queue overflow: drop oldest
					u.sent.push(b)
				}
				if u.tx.empty() {
					raiseTxEmpty = true
				}
			}
		}

		if u.control&uartCtrlRxEnable != 0 {
			if b, ok := u.received.pop(); ok {
				wasEmpty := u.rx.empty()
				if u.rx.push(b) {
					if wasEmpty {
						raiseRxReady = true
					}
				} else {
					u.status |= uartStatusRxFIFOOverrun
				}
			}
		}
	}
	u.refreshStatusLocked()

	irq := u.irq
	ctrl := u.control
	u.mu.Unlock()

	if irq == nil {
		return
	}
	if raiseTxEmpty && ctrl&uartCtrlTxEmptyIRQEnable != 0 {
		irq.Signal(UARTIRQChannel)
	}
	if raiseRxReady && ctrl&uartCtrlRxIRQEnable != 0 {
		irq.Signal(UARTIRQChannel)
	}
}

// PutChar pushes c onto the external "received" queue, standing in for a
// byte arriving on the line. It returns false if the external queue is
// full.
func (u *UART) PutChar(c byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.received.push(c)
}

// GetChar pops one byte the device has transmitted onto the external
// "sent" queue, if any.
func (u *UART) GetChar() (byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sent.pop()
}
