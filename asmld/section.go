/*
 * SArch32 - Assembler section model
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

// defaultSectionName is the section a program assembles into until its
// first `.section` directive.
const defaultSectionName = "data"

// buildSection is a named, ordered byte sequence growing as pass one emits
// bytes into it. Its relocation base is filled in during Link from the
// linker script, not known at assemble time.
type buildSection struct {
	name string
	data []byte
}

func newBuildSection(name string) *buildSection {
	return &buildSection{name: name}
}

// offset is the current write position, i.e. the byte offset a label bound
// right now would receive.
func (s *buildSection) offset() uint32 {
	return uint32(len(s.data))
}

func (s *buildSection) appendByte(b byte) {
	s.data = append(s.data, b)
}

func (s *buildSection) appendBytes(b []byte) {
	s.data = append(s.data, b...)
}

func (s *buildSection) appendWord(word uint32) {
	s.appendBytes([]byte{
		byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24),
	})
}

// patchByte overwrites one zero-filled byte left by a fixup site.
func (s *buildSection) patchByte(offset uint32, v byte) {
	s.data[offset] = v
}

// patchWord overwrites a zero-filled 4-byte little-endian slot.
func (s *buildSection) patchWord(offset uint32, word uint32) {
	s.data[offset] = byte(word)
	s.data[offset+1] = byte(word >> 8)
	s.data[offset+2] = byte(word >> 16)
	s.data[offset+3] = byte(word >> 24)
}
