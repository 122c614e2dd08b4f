package asmld

import (
	"bytes"
	"testing"
)

func TestObjectRoundTrip(t *testing.T) {
	sections := []ObjectSection{
		{Name: "text", StartAddr: 0x1000, Data: []byte{0x00, 0x01, 0x02, 0x03}},
		{Name: "data", StartAddr: 0x2000, Data: []byte{}},
	}

	var buf bytes.Buffer
	if err := WriteObject(&buf, sections); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}

	got, err := ReadObject(&buf)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if len(got) != len(sections) {
		t.Fatalf("got %d sections, want %d", len(got), len(sections))
	}
	for i := range sections {
		if got[i].Name != sections[i].Name || got[i].StartAddr != sections[i].StartAddr {
			t.Errorf("section %d = %+v, want %+v", i, got[i], sections[i])
		}
		if !bytes.Equal(got[i].Data, sections[i].Data) {
			t.Errorf("section %d data = %v, want %v", i, got[i].Data, sections[i].Data)
		}
	}
}

func TestBytesHelper(t *testing.T) {
	b, err := Bytes([]ObjectSection{{Name: "x", StartAddr: 0, Data: []byte{1, 2}}})
	if err != nil {
		t.Fatal(err)
	}
	sections, err := ReadObject(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || sections[0].Name != "x" {
		t.Fatalf("round trip via Bytes failed: %+v", sections)
	}
}
