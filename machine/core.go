package machine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/sarch32/isa"
)

// ResetVector is the fixed address execution resumes at after a reset; it
// is a constant, not a pointer read from the IVT, since the reset vector is
// where code itself starts.
const ResetVector uint32 = 0x00001000

// IVTBase is the address of the six 4-byte interrupt vectors.
const IVTBase uint32 = 0x00000000

// UnrecoverableError reports a fault raised while dispatching another
// exception (e.g. the IVT entry itself can't be read); the CPU has no
// further fallback and the caller should treat the machine as halted.
type UnrecoverableError struct {
	Cause error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("unrecoverable: %v", e.Cause)
}

func (e *UnrecoverableError) Unwrap() error { return e.Cause }

// Core is the CPU context: registers, mode, and the step loop. It
// implements isa.CPU so isa.Instruction.Execute can run against it without
// isa importing machine.
type Core struct {
	regs        [isa.RegisterCount]uint32
	mode        isa.Mode
	bus         *Bus
	irq         *InterruptController
	irqEnabled  bool
	peripherals []Peripheral

	wg   sync.WaitGroup
	done chan struct{}
}

// NewCore builds a Core over bus, wired to irq for IRQ polling.
func NewCore(bus *Bus, irq *InterruptController) *Core {
	c := &Core{bus: bus, irq: irq, irqEnabled: true, done: make(chan struct{})}
	c.Reset(true)
	return c
}

// Run steps the CPU in a loop until Stop is called or the machine hits an
// UnrecoverableError, matching the teacher's core.Start goroutine body:
// a WaitGroup-tracked worker loop selecting on a done channel. Intended to
// be launched with `go core.Run()` from cmd/sarch32.
func (c *Core) Run() {
	c.wg.Add(1)
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		default:
		}
		if err := c.Step(); err != nil {
			var unrecoverable *UnrecoverableError
			if errors.As(err, &unrecoverable) {
				slog.Error("cpu halted", "error", unrecoverable)
				return
			}
		}
	}
}

// Stop signals Run to exit and waits up to one second for it to finish,
// matching the teacher's core.Stop/timer.Shutdown timeout pattern.
func (c *Core) Stop() {
	close(c.done)
	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for CPU to finish")
	}
}

// AttachPeripheral both maps p onto the bus and registers it to receive
// per-step Advance calls, in the order peripherals are attached.
func (c *Core) AttachPeripheral(p Peripheral) error {
	if err := c.bus.Attach(p, c.irq); err != nil {
		return err
	}
	c.peripherals = append(c.peripherals, p)
	return nil
}

// EnableIRQ toggles whether Step checks for and dispatches pending IRQs;
// used by tests that want to drive SupervisorCall/Abort paths in isolation.
func (c *Core) EnableIRQ(enabled bool) { c.irqEnabled = enabled }

// Reset restores the register file, mode, PC, and FLG to their post-reset
// values. A cold reset additionally zeroes main memory. R0..R11, SP, and RA
// start at 0xFFFFFFFF, matching the reference implementation's
// implementation-defined fill value; PC and FLG are set explicitly.
func (c *Core) Reset(cold bool) {
	for i := range c.regs {
		c.regs[i] = 0xFFFFFFFF
	}
	c.regs[isa.FLG] = 0
	c.regs[isa.PC] = ResetVector
	c.mode = isa.ModeSystem
	if c.irq != nil {
		c.irq.Clear()
	}
	if cold {
		c.bus.ZeroMemory()
	}
}

// Reg, SetReg, Mode, SetMode, ReadWord, and WriteWord implement isa.CPU.
func (c *Core) Reg(r isa.Register) uint32      { return c.regs[r] }
func (c *Core) SetReg(r isa.Register, v uint32) { c.regs[r] = v }
func (c *Core) Mode() isa.Mode                 { return c.mode }
func (c *Core) SetMode(m isa.Mode)             { c.mode = m }

func (c *Core) ReadWord(addr uint32) (uint32, *isa.Exception) { return c.bus.ReadWord(addr) }
func (c *Core) WriteWord(addr uint32, v uint32) *isa.Exception { return c.bus.WriteWord(addr, v) }

// Step executes one instruction, or dispatches one exception, per §4.3:
//
//  1. A pending IRQ (if enabled) preempts the fetch.
//  2. A misaligned PC raises Unaligned.
//  3. The instruction word is fetched and PC advances by 4.
//  4. The word is decoded; an unknown opcode raises Undefined.
//  5. The condition is evaluated against FLG; false means a no-op that
//     still consumed the PC+4 advance.
//  6. Side effects execute.
//
// Peripherals advance by one cycle once the step (or its exception
// dispatch) completes. Step returns nil on an ordinary instruction (taken
// or not, per its condition), the dispatched *isa.Exception for any of
// {Reset, Abort, Undefined, Unaligned, IRQ, SupervisorCall} — dispatch has
// already redirected PC to the handler by the time Step returns, so the
// exception value is purely informational for the caller (logging,
// tests) — or an *UnrecoverableError if exception dispatch itself faults.
func (c *Core) Step() error {
	defer c.advancePeripherals()

	if c.irqEnabled && c.irq != nil && c.irq.Pending() {
		return c.dispatch(isa.ExcIRQ, 0, 0)
	}

	pc := c.regs[isa.PC]
	if pc%4 != 0 {
		return c.dispatch(isa.ExcUnaligned, pc, 0)
	}

	word, exc := c.bus.ReadWord(pc)
	if exc != nil {
		return c.dispatch(isa.ExcAbort, exc.Addr, 0)
	}
	c.regs[isa.PC] = pc + 4

	ins, ok := isa.Decode(word)
	if !ok {
		return c.dispatch(isa.ExcUndefined, 0, 0)
	}

	if !ins.Cond.Evaluate(c.regs[isa.FLG]) {
		return nil
	}

	if err := ins.Execute(c); err != nil {
		exc, ok := err.(*isa.Exception)
		if !ok {
			return err
		}
		return c.dispatch(exc.Kind, exc.Addr, exc.Num)
	}
	return nil
}

func (c *Core) advancePeripherals() {
	for _, p := range c.peripherals {
		p.Advance(1)
	}
}

// dispatch performs exception-vector dispatch: RA gets the current PC (the
// address of the instruction following the one that faulted, since PC has
// already advanced past any successfully fetched instruction), then PC is
// loaded from the IVT entry for kind. Mode is left untouched; handlers use
// aps to change it.
func (c *Core) dispatch(kind isa.ExceptionKind, addr uint32, num int32) error {
	c.regs[isa.RA] = c.regs[isa.PC]

	vector, exc := c.bus.ReadWord(IVTBase + uint32(kind)*4)
	if exc != nil {
		return &UnrecoverableError{Cause: &isa.Exception{Kind: isa.ExcAbort, Addr: exc.Addr}}
	}
	c.regs[isa.PC] = vector

	if kind == isa.ExcIRQ && c.irq != nil {
		c.irq.Clear()
	}

	return &isa.Exception{Kind: kind, Addr: addr, Num: num}
}
