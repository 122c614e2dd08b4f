/*
 * SArch32 - Assembler fixup table
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

import "github.com/rcornwell/sarch32/isa"

// fixupKind distinguishes the three symbolic-operand sites pass one can
// leave behind: a whole instruction word, a single `db` byte, or a `dw`
// word.
type fixupKind int

const (
	fixupInstruction fixupKind = iota
	fixupByte
	fixupWord
)

// fixup is one pending symbolic reference: resolved in pass two by looking
// up symbol's (section, offset) label, computing the section's relocation
// base plus that offset, and patching the site named by (section, offset).
type fixup struct {
	kind    fixupKind
	symbol  string
	section string
	offset  uint32
	ins     *isa.Instruction // fixupInstruction only
}

// label records where a `$name:` directive bound a symbol.
type label struct {
	section string
	offset  uint32
}
