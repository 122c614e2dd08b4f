/*
 * SArch32 - Bus and peripheral model
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

// Package machine wires the isa package's instruction semantics to a memory
// bus, an interrupt controller, and a set of peripherals, implementing the
// SArch32 CPU core.
package machine

// Peripheral is implemented by every device attached to a Bus: the display,
// GPIO, system timer, and MiniUART in machine/devices.
type Peripheral interface {
	// Attach registers the peripheral's base address and remembers irq for
	// later Signal calls. A peripheral must not keep irq from keeping the
	// interrupt controller alive past the machine's lifetime; irq is a
	// plain pointer here, not a reference-counted handle, so callers own
	// that lifetime themselves.
	Attach(base uint32, irq *InterruptController)

	// Detach releases any held interrupt-controller reference.
	Detach()

	// Advance is invoked once per CPU step with the number of cycles
	// elapsed (normally 1), after the step's memory effects are visible.
	Advance(cycles uint32)

	// ReadMemory and WriteMemory service a bus access already known to
	// fall inside this peripheral's mapped range. addr is the original
	// absolute address; the peripheral subtracts its own base.
	ReadMemory(addr uint32, size int) (uint32, bool)
	WriteMemory(addr uint32, size int, value uint32) bool

	// Base and Length report the peripheral's mapped range for Bus.Attach
	// overlap checking.
	Base() uint32
	Length() uint32
}
