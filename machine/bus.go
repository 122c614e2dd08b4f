package machine

import (
	"fmt"

	"github.com/rcornwell/sarch32/isa"
)

type mapping struct {
	start uint32
	length uint32
	dev   Peripheral
}

// Bus is the single read/write interface CPU, peripherals, and the shell
// address memory through. It scans peripheral ranges in attach order before
// falling back to main memory, and raises Abort when nothing matches.
type Bus struct {
	mem  []byte
	maps []mapping
}

// NewBus allocates a bus with memSize bytes of main memory.
func NewBus(memSize uint32) *Bus {
	return &Bus{mem: make([]byte, memSize)}
}

// MemorySize reports the configured main-memory size in bytes.
func (b *Bus) MemorySize() uint32 { return uint32(len(b.mem)) }

// ZeroMemory clears main memory; called on cold reset.
func (b *Bus) ZeroMemory() {
	for i := range b.mem {
		b.mem[i] = 0
	}
}

// Attach maps a peripheral's range onto the bus. It rejects any overlap with
// an already-mapped range.
func (b *Bus) Attach(p Peripheral, irq *InterruptController) error {
	start, length := p.Base(), p.Length()
	for _, m := range b.maps {
		if rangesOverlap(start, length, m.start, m.length) {
			return fmt.Errorf("peripheral range [0x%08x, 0x%08x) overlaps an existing mapping", start, start+length)
		}
	}
	p.Attach(start, irq)
	b.maps = append(b.maps, mapping{start: start, length: length, dev: p})
	return nil
}

func rangesOverlap(aStart, aLen, bStart, bLen uint32) bool {
	aEnd, bEnd := aStart+aLen, bStart+bLen
	return aStart < bEnd && bStart < aEnd
}

// find returns the mapping whose range strictly contains [addr, addr+size),
// or nil if none does.
func (b *Bus) find(addr uint32, size uint32) *mapping {
	for i := range b.maps {
		m := &b.maps[i]
		if addr >= m.start && addr+size <= m.start+m.length {
			return m
		}
	}
	return nil
}

// Read services a read of size bytes (1, 2, or 4) at addr.
func (b *Bus) Read(addr uint32, size int) (uint32, *isa.Exception) {
	if m := b.find(addr, uint32(size)); m != nil {
		v, ok := m.dev.ReadMemory(addr, size)
		if !ok {
			return 0, &isa.Exception{Kind: isa.ExcAbort, Addr: addr}
		}
		return v, nil
	}
	if uint64(addr)+uint64(size) <= uint64(len(b.mem)) {
		return readLE(b.mem[addr:], size), nil
	}
	return 0, &isa.Exception{Kind: isa.ExcAbort, Addr: addr}
}

// Write services a write of size bytes (1, 2, or 4) at addr.
func (b *Bus) Write(addr uint32, size int, value uint32) *isa.Exception {
	if m := b.find(addr, uint32(size)); m != nil {
		if !m.dev.WriteMemory(addr, size, value) {
			return &isa.Exception{Kind: isa.ExcAbort, Addr: addr}
		}
		return nil
	}
	if uint64(addr)+uint64(size) <= uint64(len(b.mem)) {
		writeLE(b.mem[addr:], size, value)
		return nil
	}
	return &isa.Exception{Kind: isa.ExcAbort, Addr: addr}
}

// ReadWord and WriteWord implement the word-access half of isa.CPU's bus
// contract; Core holds a *Bus and forwards to these directly.
func (b *Bus) ReadWord(addr uint32) (uint32, *isa.Exception) { return b.Read(addr, 4) }
func (b *Bus) WriteWord(addr uint32, v uint32) *isa.Exception { return b.Write(addr, 4, v) }

func readLE(buf []byte, size int) uint32 {
	var v uint32
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	return v
}

func writeLE(buf []byte, size int, value uint32) {
	for i := 0; i < size; i++ {
		buf[i] = byte(value)
		value >>= 8
	}
}
