package asmld

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcornwell/sarch32/config"
	"github.com/rcornwell/sarch32/isa"
)

func writeAsm(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.asm")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssembleAndLinkProgram(t *testing.T) {
	path := writeAsm(t, `
; a tiny counting loop
.section text
$start:
  movi r0, #0
$loop:
  addi r0, #1
  cmpi r0, #10
  bi.lt $loop
  svc #0

.section data
$msg:
  asciz 'hi'
  db #65
  dw $start
`)

	a := NewAssembler()
	if err := a.AssembleFile(path); err != nil {
		t.Fatalf("AssembleFile: %v", err)
	}

	script := []config.Section{
		{Name: "text", Addr: 0x1000},
		{Name: "data", Addr: 0x2000},
	}
	out, err := a.Link(script)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	var text, data *ObjectSection
	for i := range out {
		switch out[i].Name {
		case "text":
			text = &out[i]
		case "data":
			data = &out[i]
		}
	}
	if text == nil || data == nil {
		t.Fatalf("missing sections in link output: %+v", out)
	}

	if len(text.Data) != 20 { // movi, addi, cmpi, bi.lt, svc = 5 instructions
		t.Fatalf("text section length = %d, want 20", len(text.Data))
	}

	// bi.lt $loop is the 4th instruction (offset 12); loop label is at
	// offset 4 (after movi), so it should resolve to 0x1000+4.
	word := uint32(text.Data[12]) | uint32(text.Data[13])<<8 | uint32(text.Data[14])<<16 | uint32(text.Data[15])<<24
	ins, ok := isa.Decode(word)
	if !ok {
		t.Fatalf("decode bi.lt word: unknown opcode")
	}
	if !ins.Src.IsImmediate() || ins.Src.Immed != 0x1004 {
		t.Fatalf("bi.lt target = %+v, want immediate 0x1004", ins.Src)
	}

	// data: "hi\0" (3 bytes) + db 65 (1 byte) + dw $start (4 bytes) = 8.
	if len(data.Data) != 8 {
		t.Fatalf("data section length = %d, want 8", len(data.Data))
	}
	if string(data.Data[0:2]) != "hi" || data.Data[2] != 0 {
		t.Fatalf("asciz bytes = %v, want 'hi\\0'", data.Data[0:3])
	}
	if data.Data[3] != 65 {
		t.Fatalf("db byte = %d, want 65", data.Data[3])
	}
	start := uint32(data.Data[4]) | uint32(data.Data[5])<<8 | uint32(data.Data[6])<<16 | uint32(data.Data[7])<<24
	if start != 0x1000 {
		t.Fatalf("dw $start = 0x%x, want 0x1000", start)
	}
}

func TestLinkUnresolvedSymbolFails(t *testing.T) {
	path := writeAsm(t, ".section text\nbi $nowhere\n")

	a := NewAssembler()
	if err := a.AssembleFile(path); err != nil {
		t.Fatal(err)
	}
	_, err := a.Link([]config.Section{{Name: "text", Addr: 0x1000}})
	if err == nil {
		t.Fatalf("Link should fail on an unresolved symbol")
	}
}

func TestLinkMissingSectionFails(t *testing.T) {
	path := writeAsm(t, ".section text\nnop\n.section bss\nnop\n")

	a := NewAssembler()
	if err := a.AssembleFile(path); err != nil {
		t.Fatal(err)
	}
	// No script entry for "bss".
	_, err := a.Link([]config.Section{{Name: "text", Addr: 0x1000}})
	if err == nil {
		t.Fatalf("Link should fail when an input section has no script entry")
	}
}

func TestInvalidLineIsSkippedNotFatal(t *testing.T) {
	path := writeAsm(t, ".section text\nnop\nthis is not anything valid\nnop\n")

	a := NewAssembler()
	if err := a.AssembleFile(path); err != nil {
		t.Fatalf("AssembleFile should not fail on an invalid line: %v", err)
	}
	sec := a.sections["text"]
	if len(sec.data) != 8 {
		t.Fatalf("text section length = %d, want 8 (two valid nops)", len(sec.data))
	}
}

func TestMultipleFilesShareLabelsAndSections(t *testing.T) {
	f1 := writeAsm(t, ".section text\n$entry:\nnop\n")
	f2 := writeAsm(t, ".section text\nbi $entry\n")

	a := NewAssembler()
	if err := a.AssembleFile(f1); err != nil {
		t.Fatal(err)
	}
	if err := a.AssembleFile(f2); err != nil {
		t.Fatal(err)
	}

	out, err := a.Link([]config.Section{{Name: "text", Addr: 0x4000}})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	text := out[0]
	if len(text.Data) != 8 {
		t.Fatalf("text length = %d, want 8", len(text.Data))
	}
	word := uint32(text.Data[4]) | uint32(text.Data[5])<<8 | uint32(text.Data[6])<<16 | uint32(text.Data[7])<<24
	ins, _ := isa.Decode(word)
	if ins.Src.Immed != 0x4000 {
		t.Fatalf("cross-file symbol resolved to 0x%x, want 0x4000", ins.Src.Immed)
	}
}
