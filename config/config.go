/*
 * SArch32 - Configuration file parser
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

// Package config parses the emulator's key=value configuration file and the
// assembler/linker's section/address script, both line-oriented text
// formats with ';' comments.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Config holds one parsed emulator configuration file (§6): which machine
// and peripheral implementation tags to instantiate, how much memory to
// give the bus, and which object file to load.
type Config struct {
	Machine     string
	MemoryBytes uint32
	ImagePath   string
	Display     string
	GPIO        string
	Timer       string
	UART        string
}

// configLine tracks position within one line being scanned, mirroring the
// teacher's optionLine idiom (line/pos plus skipSpace/isEOL helpers) rather
// than a regexp- or strings.Split-based grammar.
type configLine struct {
	line string
	pos  int
}

// Parse reads an emulator configuration file: `key = value` lines, blank
// lines ignored, `;` starting a comment that runs to end of line.
func Parse(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &Config{}
	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		text, err := reader.ReadString('\n')
		lineNumber++
		if len(text) == 0 && err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		cl := configLine{line: text}
		key, value, ok := cl.parseKeyValue()
		if ok {
			if err := cfg.apply(key, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
		}

		if err == io.EOF {
			break
		}
	}
	return cfg, nil
}

func (c *Config) apply(key, value string) error {
	switch key {
	case "machine":
		c.Machine = value
	case "memory":
		n, err := parseByteSize(value)
		if err != nil {
			return err
		}
		c.MemoryBytes = n
	case "image":
		c.ImagePath = value
	case "display":
		c.Display = value
	case "gpio":
		c.GPIO = value
	case "timer":
		c.Timer = value
	case "uart":
		c.UART = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// parseByteSize parses a decimal integer with an optional k/K, m/M, g/G
// suffix into a byte count.
func parseByteSize(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty memory size")
	}
	mult := uint64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size: %s", s)
	}
	return uint32(n * mult), nil
}

// parseKeyValue scans one "key = value ; comment" line. ok is false for a
// blank or comment-only line.
func (cl *configLine) parseKeyValue() (key, value string, ok bool) {
	cl.skipSpace()
	if cl.isEOL() {
		return "", "", false
	}

	start := cl.pos
	for !cl.isEOL() && cl.line[cl.pos] != '=' && !unicode.IsSpace(rune(cl.line[cl.pos])) {
		cl.pos++
	}
	key = cl.line[start:cl.pos]

	cl.skipSpace()
	if cl.isEOL() || cl.line[cl.pos] != '=' {
		return "", "", false
	}
	cl.pos++ // consume '='
	cl.skipSpace()

	start = cl.pos
	for !cl.isEOL() {
		cl.pos++
	}
	value = strings.TrimSpace(cl.line[start:cl.pos])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// skipSpace advances past whitespace, the same loop shape as the teacher's
// optionLine.skipSpace.
func (cl *configLine) skipSpace() {
	for !cl.isEOL() && unicode.IsSpace(rune(cl.line[cl.pos])) {
		cl.pos++
	}
}

// isEOL reports end of line or the start of a ';' comment.
func (cl *configLine) isEOL() bool {
	if cl.pos >= len(cl.line) {
		return true
	}
	if cl.line[cl.pos] == '\n' || cl.line[cl.pos] == '\r' || cl.line[cl.pos] == ';' {
		return true
	}
	return false
}
