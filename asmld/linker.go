/*
 * SArch32 - Linker (pass two and emit)
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
	"fmt"

	"github.com/rcornwell/sarch32/config"
)

// Link runs pass two: every input section must have a matching entry in
// script (an input section with none is a link error), every fixup's
// symbol must resolve to a bound label, and each resolved address is
// computed as the defining section's relocation base plus the label's
// byte offset. It returns the linked, relocated sections ready for
// WriteObject.
func (a *Assembler) Link(script []config.Section) ([]ObjectSection, error) {
	base := make(map[string]uint32, len(script))
	for _, s := range script {
		base[s.Name] = s.Addr
	}

	for _, name := range a.order {
		if _, ok := base[name]; !ok {
			return nil, fmt.Errorf("asmld: no linker script entry for section %q", name)
		}
	}

	for _, fx := range a.fixups {
		lbl, ok := a.labels[fx.symbol]
		if !ok {
			return nil, fmt.Errorf("asmld: unresolved symbol %q", fx.symbol)
		}
		symAddr := base[lbl.section] + lbl.offset

		sec := a.sections[fx.section]
		switch fx.kind {
		case fixupByte:
			sec.patchByte(fx.offset, byte(int8(symAddr)))
		case fixupWord:
			sec.patchWord(fx.offset, symAddr)
		case fixupInstruction:
			fx.ins.ResolveSymbol(int32(symAddr))
			word, err := fx.ins.Encode()
			if err != nil {
				return nil, fmt.Errorf("asmld: resolving %q: %w", fx.symbol, err)
			}
			sec.patchWord(fx.offset, word)
		}
	}

	out := make([]ObjectSection, 0, len(a.order))
	for _, name := range a.order {
		sec := a.sections[name]
		out = append(out, ObjectSection{
			Name:      name,
			StartAddr: base[name],
			Data:      append([]byte(nil), sec.data...),
		})
	}
	return out, nil
}
