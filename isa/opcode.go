package isa

// Opcode is the 5-bit operation code encoded in the low bits of the tag
// byte.
type Opcode uint8

const (
	Nop Opcode = iota
	Mov
	Movi
	Add
	Addi
	Sub
	Subi
	Mul
	Muli
	Div
	Divi
	And
	Andi
	Or
	Ori
	Sll
	Slli
	Srl
	Srli
	Lw
	Li
	Sw
	Si
	Cmpr
	Cmpi
	Br
	Bi
	Push
	Pop
	Fw
	Svc
	Aps

	opcodeCount = 32
)

var opcodeNames = [opcodeCount]string{
	Nop: "nop", Mov: "mov", Movi: "movi", Add: "add", Addi: "addi",
	Sub: "sub", Subi: "subi", Mul: "mul", Muli: "muli", Div: "div", Divi: "divi",
	And: "and", Andi: "andi", Or: "or", Ori: "ori",
	Sll: "sll", Slli: "slli", Srl: "srl", Srli: "srli",
	Lw: "lw", Li: "li", Sw: "sw", Si: "si",
	Cmpr: "cmpr", Cmpi: "cmpi", Br: "br", Bi: "bi",
	Push: "push", Pop: "pop", Fw: "fw", Svc: "svc", Aps: "aps",
}

func (op Opcode) String() string {
	if int(op) >= opcodeCount {
		return "?"
	}
	return opcodeNames[op]
}

var mnemonicToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, opcodeCount)
	for i, name := range opcodeNames {
		m[name] = Opcode(i)
	}
	return m
}()

// isImmediateForm is the opcode-form predicate from §4.1: an opcode is an
// immediate form when its numeric index is below 27 and its low bit is 0.
// aps (31) is numbered beyond this range and is handled as an explicit
// carve-out by the instructions that need it.
func isImmediateForm(op Opcode) bool {
	return op < 27 && op&1 == 0
}
