/*
 * SArch32 - Object file format
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

// Package asmld implements the SArch32 object file format, the two-pass
// assembler, and the linker that resolves a program's sections against a
// linker script.
package asmld

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ObjectSection is one section as written to or read from an object file:
// a name, the address it was relocated to, and its raw bytes. Section
// names are plain byte sequences with no escaping rule, matching the
// original tool's raw std::string sections.
type ObjectSection struct {
	Name      string
	StartAddr uint32
	Data      []byte
}

// WriteObject serializes sections to w in the §6 binary format:
//
//	u32 sectionCount
//	repeat sectionCount:
//	  u32 nameLen
//	  bytes[nameLen] name
//	  u32 startAddr
//	  u32 size
//	  bytes[size] data
func WriteObject(w io.Writer, sections []ObjectSection) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(sections))); err != nil {
		return err
	}
	for _, s := range sections {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(s.Name))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(s.Name)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, s.StartAddr); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(s.Data))); err != nil {
			return err
		}
		if _, err := w.Write(s.Data); err != nil {
			return err
		}
	}
	return nil
}

// ReadObject deserializes an object file produced by WriteObject.
func ReadObject(r io.Reader) ([]ObjectSection, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	sections := make([]ObjectSection, 0, count)
	for i := uint32(0); i < count; i++ {
		var nameLen uint32
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, err
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, err
		}

		var startAddr, size uint32
		if err := binary.Read(r, binary.LittleEndian, &startAddr); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}

		sections = append(sections, ObjectSection{
			Name:      string(nameBuf),
			StartAddr: startAddr,
			Data:      data,
		})
	}
	return sections, nil
}

// Bytes serializes sections into a new buffer, a convenience over
// WriteObject for callers that want the bytes directly.
func Bytes(sections []ObjectSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteObject(&buf, sections); err != nil {
		return nil, fmt.Errorf("writing object file: %w", err)
	}
	return buf.Bytes(), nil
}
