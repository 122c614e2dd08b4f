package devices

import (
	"testing"

	"github.com/rcornwell/sarch32/machine"
)

func TestGPIORisingEdgeSignalsIRQ(t *testing.T) {
	gpio := NewGPIO(0x20000)
	irq := &machine.InterruptController{}
	gpio.Attach(0x20000, irq)

	// Configure pin 0 as Input with rising-edge detect enabled.
	gpio.WriteMemory(0x20000, 4, 0) // Mode0: all input (code 0)
	gpio.WriteMemory(0x20030, 4, 1) // Rising0 bit0

	gpio.SetState(0, true)

	if !irq.Pending() {
		t.Fatalf("rising edge on enabled input pin should signal an IRQ")
	}
	if !gpio.GetState(0) {
		t.Fatalf("GetState(0) should reflect the driven level")
	}
	detect, _ := gpio.ReadMemory(0x20028, 4) // Detect0
	if detect&1 == 0 {
		t.Fatalf("Detect0 bit0 should latch on the rising edge")
	}
}

func TestGPIOSetClearOnlyAffectOutputPins(t *testing.T) {
	gpio := NewGPIO(0x20000)
	irq := &machine.InterruptController{}
	gpio.Attach(0x20000, irq)

	// Pin 0: Output (mode code 1). Pin 1: left as Input.
	gpio.WriteMemory(0x20000, 4, 0b01) // Mode0 low 2 bits = pin0 mode=1(Output)

	gpio.WriteMemory(0x20018, 4, 0b11) // Set0: try to set pin0 and pin1 high
	if !gpio.GetState(0) {
		t.Fatalf("Set0 should drive the Output pin high")
	}
	if gpio.GetState(1) {
		t.Fatalf("Set0 must not affect an Input-configured pin")
	}
}

func TestTimerCompareResetScenario(t *testing.T) {
	// Scenario 5: 120 cycles, multiplier x1, compare=100, reset_on_compare.
	// Expect Counter_0 == 20 after the crossing resets the counter.
	tm := NewTimer(0x30000)
	irq := &machine.InterruptController{}
	tm.Attach(0x30000, irq)

	// Control: channel 0 = enable | multiplier=0(x1) | reset_on_compare.
	tm.WriteMemory(0x30000, 4, ctrlEnable|ctrlResetOnCompare)
	tm.WriteMemory(0x30018, 4, 100) // Compare_0

	tm.Advance(120)

	counter0, _ := tm.ReadMemory(0x30008, 4) // Counter_0
	if counter0 != 20 {
		t.Fatalf("Counter_0 after 120 cycles = %d, want 20", counter0)
	}
}

func TestUARTEcho(t *testing.T) {
	u := NewUART(0x40000)
	irq := &machine.InterruptController{}
	u.Attach(0x40000, irq)

	u.WriteMemory(0x40000, 4, uartCtrlEnable|uartCtrlTxEnable|uartCtrlRxEnable)

	// Device transmits one byte.
	u.WriteMemory(0x40008, 4, 'A') // Data register
	u.Advance(uartCyclesPerChar)

	got, ok := u.GetChar()
	if !ok || got != 'A' {
		t.Fatalf("GetChar() = (%v, %v), want ('A', true)", got, ok)
	}

	// External world sends one byte back in.
	if !u.PutChar('B') {
		t.Fatalf("PutChar should succeed on an empty queue")
	}
	u.Advance(uartCyclesPerChar)

	word, _ := u.ReadMemory(0x40008, 4) // Data register pop
	if byte(word) != 'B' {
		t.Fatalf("Data register read = %q, want 'B'", byte(word))
	}
}

func TestDisplayChangedFlag(t *testing.T) {
	d := NewDisplay(0x10000)
	if d.IsChanged() {
		t.Fatalf("a fresh display should not report changed")
	}
	d.SetPixel(10, 10, true)
	if !d.IsChanged() {
		t.Fatalf("SetPixel should mark the display changed")
	}
	d.ClearChanged()
	if d.IsChanged() {
		t.Fatalf("ClearChanged should reset the flag")
	}
}
