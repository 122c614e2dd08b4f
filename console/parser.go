/*
 * SArch32 - Interactive console command parser.
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

// Package console implements the headless emulator's interactive shell: a
// small command table in the style of the source's command/parser package,
// driving a Machine's CPU, GPIO, and UART from typed commands instead of a
// GUI.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/sarch32/isa"
	"github.com/rcornwell/sarch32/machine"
)

// Machine bundles the pieces a console session needs: the CPU core to
// single-step or run, and the peripherals the shell-facing commands poke
// at directly (§6's "shell-facing peripheral API").
type Machine struct {
	Core *machine.Core
	Bus  *machine.Bus
	GPIO GPIOAccess
	UART UARTAccess
}

// GPIOAccess is the subset of *devices.GPIO the console needs; an interface
// here keeps console independent of the devices package's concrete types.
type GPIOAccess interface {
	SetState(pin int, value bool)
	GetState(pin int) bool
	PinCount() int
}

// UARTAccess is the subset of *devices.UART the console needs.
type UARTAccess interface {
	PutChar(c byte) bool
	GetChar() (byte, bool)
}

type cmd struct {
	name    string
	min     int
	process func(*cmdLine, *Machine) (bool, error)
}

// cmdLine tracks scan position within one command line, the same
// line/pos-plus-skipSpace idiom used by config.configLine and the source's
// command/parser.cmdLine.
type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "regs", min: 2, process: cmdRegs},
	{name: "mem", min: 3, process: cmdMem},
	{name: "gpio", min: 2, process: cmdGPIO},
	{name: "uart", min: 2, process: cmdUART},
	{name: "step", min: 2, process: cmdStep},
	{name: "run", min: 3, process: cmdRun},
	{name: "quit", min: 4, process: cmdQuit},
}

// ProcessCommand dispatches one command line against m. The returned bool
// reports whether the session should exit.
func ProcessCommand(commandLine string, m *Machine) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	if name == "" {
		return false, nil
	}

	match := matchCommand(name)
	if match == nil {
		return false, fmt.Errorf("command not found: %s", name)
	}
	return match.process(&line, m)
}

// CompleteCmd returns command names matching the in-progress line, for
// liner's tab-completion hook.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, name) {
			out = append(out, c.name)
		}
	}
	return out
}

func matchCommand(name string) *cmd {
	var found *cmd
	for i := range cmdList {
		c := &cmdList[i]
		if len(name) < c.min || len(name) > len(c.name) {
			continue
		}
		if c.name[:len(name)] != name {
			continue
		}
		if found != nil {
			return nil // ambiguous
		}
		found = c
	}
	return found
}

func cmdRegs(_ *cmdLine, m *Machine) (bool, error) {
	for r := isa.R0; int(r) < isa.RegisterCount; r++ {
		fmt.Printf("%-4s = 0x%08x\n", r.String(), m.Core.Reg(r))
	}
	fmt.Printf("mode = %d\n", m.Core.Mode())
	return false, nil
}

func cmdMem(line *cmdLine, m *Machine) (bool, error) {
	addrText := line.getWord()
	addr, err := parseUint32(addrText)
	if err != nil {
		return false, fmt.Errorf("mem: %w", err)
	}
	v, exc := m.Bus.ReadWord(addr)
	if exc != nil {
		return false, fmt.Errorf("mem: %s", exc.Error())
	}
	fmt.Printf("0x%08x: 0x%08x\n", addr, v)
	return false, nil
}

func cmdGPIO(line *cmdLine, m *Machine) (bool, error) {
	if m.GPIO == nil {
		return false, errors.New("gpio: no GPIO device configured")
	}
	sub := line.getWord()
	pinText := line.getWord()
	pin, err := strconv.Atoi(pinText)
	if err != nil || pin < 0 || pin >= m.GPIO.PinCount() {
		return false, fmt.Errorf("gpio: invalid pin %q", pinText)
	}

	switch sub {
	case "set":
		m.GPIO.SetState(pin, true)
	case "clear":
		m.GPIO.SetState(pin, false)
	case "get":
		fmt.Printf("pin %d = %v\n", pin, m.GPIO.GetState(pin))
	default:
		return false, fmt.Errorf("gpio: unknown subcommand %q", sub)
	}
	return false, nil
}

func cmdUART(line *cmdLine, m *Machine) (bool, error) {
	if m.UART == nil {
		return false, errors.New("uart: no UART device configured")
	}
	sub := line.getWord()
	switch sub {
	case "send":
		rest := strings.TrimSpace(line.line[line.pos:])
		for _, b := range []byte(rest) {
			if !m.UART.PutChar(b) {
				return false, errors.New("uart: receive queue full")
			}
		}
	case "recv":
		for {
			c, ok := m.UART.GetChar()
			if !ok {
				break
			}
			fmt.Printf("%c", c)
		}
		fmt.Println()
	default:
		return false, fmt.Errorf("uart: unknown subcommand %q", sub)
	}
	return false, nil
}

func cmdStep(_ *cmdLine, m *Machine) (bool, error) {
	if err := m.Core.Step(); err != nil {
		var exc *isa.Exception
		if errors.As(err, &exc) {
			fmt.Printf("exception: %s\n", exc.Error())
			return false, nil
		}
		return false, err
	}
	return false, nil
}

func cmdRun(line *cmdLine, m *Machine) (bool, error) {
	countText := line.getWord()
	count := -1
	if countText != "" {
		n, err := strconv.Atoi(countText)
		if err != nil {
			return false, fmt.Errorf("run: %w", err)
		}
		count = n
	}
	for i := 0; count < 0 || i < count; i++ {
		if err := m.Core.Step(); err != nil {
			var unrecoverable *machine.UnrecoverableError
			if errors.As(err, &unrecoverable) {
				return false, unrecoverable
			}
		}
	}
	return false, nil
}

func cmdQuit(_ *cmdLine, _ *Machine) (bool, error) {
	return true, nil
}

func parseUint32(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

// getWord reads the next whitespace-delimited token, advancing pos.
func (cl *cmdLine) getWord() string {
	cl.skipSpace()
	start := cl.pos
	for !cl.isEOL() && !unicode.IsSpace(rune(cl.line[cl.pos])) {
		cl.pos++
	}
	return cl.line[start:cl.pos]
}

func (cl *cmdLine) skipSpace() {
	for !cl.isEOL() && unicode.IsSpace(rune(cl.line[cl.pos])) {
		cl.pos++
	}
}

func (cl *cmdLine) isEOL() bool {
	return cl.pos >= len(cl.line)
}
