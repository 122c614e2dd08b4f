/*
 * SArch32 - Emulator driver.
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

// Command sarch32 runs the headless SArch32 emulator: it loads a machine
// configuration, boots the CPU in its own goroutine, and hands the
// terminal to an interactive console.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/sarch32/asmld"
	"github.com/rcornwell/sarch32/config"
	"github.com/rcornwell/sarch32/console"
	"github.com/rcornwell/sarch32/machine"
	"github.com/rcornwell/sarch32/machine/devices"
	"github.com/rcornwell/sarch32/util/logger"
)

// Fixed peripheral base addresses. The configuration file selects which
// implementation tag to instantiate at each slot; the memory map itself is
// a property of the machine, not something a .cfg file relocates.
const (
	displayBase = 0x00010000
	gpioBase    = 0x00020000
	timerBase   = 0x00030000
	uartBase    = 0x00040000
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "sarch32.cfg", "Machine configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file (stderr if empty)")
	optDebug := getopt.BoolLong("debug", 'd', "Echo log records to stderr regardless of level")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	debug := *optDebug
	logFile := os.Stderr
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sarch32: %v\n", err)
			os.Exit(1)
		}
		logFile = f
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: level}, &debug))
	slog.SetDefault(log)

	log.Info("sarch32 started")

	cfg, err := config.Parse(*optConfig)
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	log.Info("machine configured", "machine", cfg.Machine,
		"display", cfg.Display, "gpio", cfg.GPIO, "timer", cfg.Timer, "uart", cfg.UART)

	bus := machine.NewBus(cfg.MemoryBytes)
	irq := &machine.InterruptController{}

	display := devices.NewDisplay(displayBase)
	gpio := devices.NewGPIO(gpioBase)
	timer := devices.NewTimer(timerBase)
	uart := devices.NewUART(uartBase)

	core := machine.NewCore(bus, irq)
	for _, p := range []machine.Peripheral{display, gpio, timer, uart} {
		if err := core.AttachPeripheral(p); err != nil {
			log.Error("attaching peripheral", "error", err)
			os.Exit(1)
		}
	}
	core.EnableIRQ(true)

	if cfg.ImagePath != "" {
		if err := loadImage(bus, cfg.ImagePath); err != nil {
			log.Error("loading image", "error", err)
			os.Exit(1)
		}
	}
	// NewCore already performed a cold reset (zeroing memory) before the
	// image was loaded; re-home the register file without zeroing memory
	// again.
	core.Reset(false)

	m := &console.Machine{Core: core, Bus: bus, GPIO: gpio, UART: uart}

	go core.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Got quit signal")
		core.Stop()
		os.Exit(0)
	}()

	console.ConsoleReader(m)

	core.Stop()
	log.Info("sarch32 shutting down")
}

func loadImage(bus *machine.Bus, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sections, err := asmld.ReadObject(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for _, s := range sections {
		for i, b := range s.Data {
			if exc := bus.Write(s.StartAddr+uint32(i), 1, uint32(b)); exc != nil {
				return exc
			}
		}
	}
	return nil
}
