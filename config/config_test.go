package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfigFile(t *testing.T) {
	path := writeTemp(t, "machine.cfg", `
; SArch32 machine configuration
machine = sarch32_001
memory = 64k
image = firmware.bin
display = d1_monochromatic
gpio = default
timer = default
uart = default
`)

	cfg, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Machine != "sarch32_001" {
		t.Errorf("Machine = %q, want sarch32_001", cfg.Machine)
	}
	if cfg.MemoryBytes != 64*1024 {
		t.Errorf("MemoryBytes = %d, want %d", cfg.MemoryBytes, 64*1024)
	}
	if cfg.ImagePath != "firmware.bin" {
		t.Errorf("ImagePath = %q, want firmware.bin", cfg.ImagePath)
	}
	if cfg.Display != "d1_monochromatic" {
		t.Errorf("Display = %q, want d1_monochromatic", cfg.Display)
	}
}

func TestParseByteSizeSuffixes(t *testing.T) {
	cases := map[string]uint32{
		"1024":  1024,
		"4k":    4 * 1024,
		"4K":    4 * 1024,
		"2m":    2 * 1024 * 1024,
		"1g":    1024 * 1024 * 1024,
	}
	for in, want := range cases {
		got, err := parseByteSize(in)
		if err != nil {
			t.Errorf("parseByteSize(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseByteSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseLinkerScript(t *testing.T) {
	path := writeTemp(t, "link.ld", `
; entry points
section text(0x1000)
section data(4096)
this line is not a section directive
`)

	sections, err := ParseLinkerScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2: %+v", len(sections), sections)
	}
	if sections[0].Name != "text" || sections[0].Addr != 0x1000 {
		t.Errorf("sections[0] = %+v, want {text 0x1000}", sections[0])
	}
	if sections[1].Name != "data" || sections[1].Addr != 4096 {
		t.Errorf("sections[1] = %+v, want {data 4096}", sections[1])
	}
}
