/*
 * SArch32 - Monochrome display peripheral
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package devices implements the SArch32 peripherals: display, GPIO, system
// timer, and MiniUART, each satisfying machine.Peripheral.
package devices

import (
	"sync"

	"github.com/rcornwell/sarch32/machine"
)

const (
	displayWidth  = 300
	displayHeight = 200
	// displayStride is the per-row byte count: 8 pixels per byte, LSB-first,
	// rounded up since 300 isn't a multiple of 8.
	displayStride = (displayWidth + 7) / 8
	displaySize   = displayStride * displayHeight
)

// Display is a monochrome framebuffer peripheral: one bit per pixel,
// row-major, 8 pixels per byte LSB-first. Writes set a changed flag the
// shell polls and clears via IsChanged/ClearChanged.
type Display struct {
	mu      sync.Mutex
	base    uint32
	fb      [displaySize]byte
	changed bool
}

// NewDisplay builds a display mapped at base.
func NewDisplay(base uint32) *Display {
	return &Display{base: base}
}

func (d *Display) Attach(base uint32, _ *machine.InterruptController) { d.base = base }
func (d *Display) Detach()                                            {}
func (d *Display) Advance(uint32)                                     {}
func (d *Display) Base() uint32                                       { return d.base }
func (d *Display) Length() uint32                                     { return displaySize }

func (d *Display) ReadMemory(addr uint32, size int) (uint32, bool) {
	if size != 1 {
		return 0, true // wrong width: read-as-zero, not an abort
	}
	off := addr - d.base
	d.mu.Lock()
	defer d.mu.Unlock()
	if off >= displaySize {
		return 0, false
	}
	return uint32(d.fb[off]), true
}

func (d *Display) WriteMemory(addr uint32, size int, value uint32) bool {
	if size != 1 {
		return true // wrong width: write-ignored
	}
	off := addr - d.base
	d.mu.Lock()
	defer d.mu.Unlock()
	if off >= displaySize {
		return false
	}
	d.fb[off] = byte(value)
	d.changed = true
	return true
}

// IsChanged reports whether any byte has been written since the last
// ClearChanged.
func (d *Display) IsChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changed
}

// ClearChanged resets the changed flag.
func (d *Display) ClearChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changed = false
}

// SnapshotFrame copies the current framebuffer into dest, which must be at
// least displaySize bytes; it returns the number of bytes copied.
func (d *Display) SnapshotFrame(dest []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copy(dest, d.fb[:])
}

// SetPixel sets or clears the pixel at (x, y), provided for tests and for a
// shell that wants to draw without going through the bus.
func (d *Display) SetPixel(x, y int, on bool) {
	if x < 0 || x >= displayWidth || y < 0 || y >= displayHeight {
		return
	}
	off := y*displayStride + x/8
	mask := byte(1) << uint(x%8)

	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		d.fb[off] |= mask
	} else {
		d.fb[off] &^= mask
	}
	d.changed = true
}
