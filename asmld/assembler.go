/*
 * SArch32 - Two-pass assembler
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

package asmld

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rcornwell/sarch32/isa"
)

// Assembler accumulates sections, labels, and pending fixups across one or
// more AssembleFile calls, mirroring the source's single in-memory symbol
// table shared by every translation unit in a build. Sections and labels
// are program-global; only the notion of "current section" resets at the
// start of each file, per §4.2 pass one.
type Assembler struct {
	sections map[string]*buildSection
	order    []string
	current  string
	labels   map[string]label
	fixups   []fixup

	file string
	line int
}

// NewAssembler returns an Assembler whose current section is `data` until
// the first `.section` directive, matching §3's "Default current section
// is data" rule. The default section is only registered (and so only
// required in the linker script) once a label, data directive, or
// instruction lands in it; a `.section` directive registers its named
// section immediately.
func NewAssembler() *Assembler {
	return &Assembler{
		sections: make(map[string]*buildSection),
		labels:   make(map[string]label),
		current:  defaultSectionName,
	}
}

// section switches the current section, registering it on first use.
func (a *Assembler) section(name string) *buildSection {
	a.current = name
	return a.registerSection(name)
}

func (a *Assembler) registerSection(name string) *buildSection {
	s, ok := a.sections[name]
	if !ok {
		s = newBuildSection(name)
		a.sections[name] = s
		a.order = append(a.order, name)
	}
	return s
}

// currentSection returns (registering if needed) the section in progress.
func (a *Assembler) currentSection() *buildSection {
	return a.registerSection(a.current)
}

// AssembleFile runs pass one over a single input file: every line is
// dispatched to the section, label, data, or instruction parser in turn,
// each successful directive advancing the current section's offset.
// Syntactically invalid lines are logged and skipped, contributing no
// bytes, per the §4.2 failure policy.
func (a *Assembler) AssembleFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("asmld: %w", err)
	}
	defer f.Close()

	a.file = path
	a.line = 0
	a.current = defaultSectionName

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		a.line++
		a.assembleLine(scanner.Text())
	}
	return scanner.Err()
}

func (a *Assembler) assembleLine(raw string) {
	text := stripComment(raw)
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	switch {
	case a.tryDirectiveSection(text):
	case a.tryDirectiveLabel(text):
	case a.tryDirectiveData(text):
	default:
		a.tryInstruction(text)
	}
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func (a *Assembler) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn("asmld: skipping invalid line", "file", a.file, "line", a.line, "error", msg)
}

// tryDirectiveSection recognizes `.section NAME`.
func (a *Assembler) tryDirectiveSection(text string) bool {
	if !strings.HasPrefix(text, ".section") {
		return false
	}
	name := strings.TrimSpace(text[len(".section"):])
	if name == "" {
		a.warnf("`.section` requires a name")
		return true
	}
	a.section(name)
	return true
}

// tryDirectiveLabel recognizes `$label:`.
func (a *Assembler) tryDirectiveLabel(text string) bool {
	if !strings.HasPrefix(text, "$") || !strings.HasSuffix(text, ":") {
		return false
	}
	name := text[1 : len(text)-1]
	if name == "" {
		a.warnf("empty label name")
		return true
	}
	a.labels[name] = label{section: a.current, offset: a.currentSection().offset()}
	return true
}

// tryDirectiveData recognizes `db EXPR`, `dw EXPR`, and `asciz 'TEXT'`.
func (a *Assembler) tryDirectiveData(text string) bool {
	fields := strings.SplitN(text, " ", 2)
	keyword := fields[0]
	rest := ""
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}

	switch keyword {
	case "db":
		a.emitData(rest, 1)
	case "dw":
		a.emitData(rest, 4)
	case "asciz":
		a.emitAsciz(rest)
	default:
		return false
	}
	return true
}

// emitData handles `db`/`dw`: a symbol reference zero-fills width bytes and
// records a fixup; an immediate is written directly, a `db` value after an
// 8-bit range check and a `dw` value as its low 32 bits (no range check).
func (a *Assembler) emitData(expr string, width int) {
	sec := a.currentSection()
	if strings.HasPrefix(expr, "$") && len(expr) > 1 {
		symbol := expr[1:]
		kind := fixupByte
		if width == 4 {
			kind = fixupWord
		}
		a.fixups = append(a.fixups, fixup{
			kind: kind, symbol: symbol, section: a.current, offset: sec.offset(),
		})
		for i := 0; i < width; i++ {
			sec.appendByte(0)
		}
		return
	}

	value, err := parseDataImmediate(expr)
	if err != nil {
		a.warnf("%v", err)
		return
	}
	if width == 1 {
		if value < -128 || value > 127 {
			a.warnf("db value %d out of 8-bit range", value)
			return
		}
		sec.appendByte(byte(int8(value)))
		return
	}
	sec.appendWord(uint32(value))
}

func (a *Assembler) emitAsciz(expr string) {
	if len(expr) < 2 || expr[0] != '\'' || expr[len(expr)-1] != '\'' {
		a.warnf("asciz requires a single-quoted string: %s", expr)
		return
	}
	text := expr[1 : len(expr)-1]
	if strings.ContainsRune(text, '\'') {
		a.warnf("asciz string may not contain a quote: %s", expr)
		return
	}
	sec := a.currentSection()
	sec.appendBytes([]byte(text))
	sec.appendByte(0)
}

// parseDataImmediate parses the `#123` / `#0x7b` / `#-5` syntax shared with
// instruction operands (isa.Parse), or a bare decimal/hex literal.
func parseDataImmediate(tok string) (int32, error) {
	tok = strings.TrimPrefix(tok, "#")
	neg := strings.HasPrefix(tok, "-")
	if neg {
		tok = tok[1:]
	}
	base := 10
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		base = 16
		tok = tok[2:]
	}
	v, err := strconv.ParseInt(tok, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate value: %s", tok)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

// tryInstruction parses text as a machine instruction. A symbolic operand
// leaves a zero-filled placeholder word and an instruction fixup; otherwise
// the instruction encodes immediately.
func (a *Assembler) tryInstruction(text string) {
	ins, err := isa.Parse(text)
	if err != nil {
		a.warnf("%v", err)
		return
	}

	sec := a.currentSection()
	if symbol, ok := ins.RequestedSymbol(); ok {
		a.fixups = append(a.fixups, fixup{
			kind: fixupInstruction, symbol: symbol, section: a.current, offset: sec.offset(), ins: ins,
		})
		sec.appendWord(0)
		return
	}

	word, err := ins.Encode()
	if err != nil {
		a.warnf("%v", err)
		return
	}
	sec.appendWord(word)
}
