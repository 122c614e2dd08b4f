/*
 * SArch32 - Assembler/linker driver.
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

// Command sasm assembles one or more SArch32 source files against a linker
// script and writes a linked object file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/sarch32/asmld"
	"github.com/rcornwell/sarch32/config"
	"github.com/rcornwell/sarch32/util/logger"
)

func main() {
	optInputs := getopt.ListLong("input", 'i', "Input assembly file (may be given more than once)")
	optLinker := getopt.StringLong("linker", 'l', "", "Linker script")
	optOutput := getopt.StringLong("output", 'o', "a.out", "Output object file")
	// getopt/v2's short-flag slot is a single rune, so the spec's two-letter
	// "-ll" spelling can't be bound as a short option; -L is the closest
	// reachable short alias for --log-level (see DESIGN.md).
	optLogLevel := getopt.EnumLong("log-level", 'L',
		[]string{"none", "basic", "extended", "full"}, "basic", "Diagnostic log verbosity")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	level := new(slog.LevelVar)
	switch *optLogLevel {
	case "none":
		level.Set(slog.LevelError + 1)
	case "basic":
		level.Set(slog.LevelWarn)
	case "extended":
		level.Set(slog.LevelInfo)
	case "full":
		level.Set(slog.LevelDebug)
	}
	debug := false
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: level}, &debug)))

	if len(*optInputs) == 0 {
		fmt.Fprintln(os.Stderr, "sasm: at least one -i input file is required")
		os.Exit(1)
	}
	if *optLinker == "" {
		fmt.Fprintln(os.Stderr, "sasm: -l linker script is required")
		os.Exit(1)
	}

	script, err := config.ParseLinkerScript(*optLinker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(2)
	}

	a := asmld.NewAssembler()
	for _, in := range *optInputs {
		if err := a.AssembleFile(in); err != nil {
			fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
			os.Exit(2)
		}
	}

	sections, err := a.Link(script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(2)
	}

	out, err := os.Create(*optOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(2)
	}
	defer out.Close()

	if err := asmld.WriteObject(out, sections); err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(2)
	}

	slog.Info("sasm: assembled", "sections", len(sections), "output", *optOutput)
}
