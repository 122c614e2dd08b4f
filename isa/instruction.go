package isa

// form identifies the operand shape an opcode's family expects; it drives
// both encode/decode and parser validation, mirroring the way the source's
// CInstruction_Generic_2Param / _Generic_1Param / _1Param<T> class hierarchy
// shapes each family, collapsed here into one struct dispatched by table
// instead of by subclass.
type form uint8

const (
	formNone     form = iota // nop
	formTwo                  // dst reg, src reg|imm|sym
	formBranch               // src reg|imm|sym, relative flag
	formOneReg               // src reg only (push, pop)
	formOneImm24             // src imm24|sym (fw, svc)
)

type opInfo struct {
	form form
}

var opTable = [opcodeCount]opInfo{
	Nop:  {formNone},
	Mov:  {formTwo}, Movi: {formTwo},
	Add: {formTwo}, Addi: {formTwo},
	Sub: {formTwo}, Subi: {formTwo},
	Mul: {formTwo}, Muli: {formTwo},
	Div: {formTwo}, Divi: {formTwo},
	And: {formTwo}, Andi: {formTwo},
	Or: {formTwo}, Ori: {formTwo},
	Sll: {formTwo}, Slli: {formTwo},
	Srl: {formTwo}, Srli: {formTwo},
	Lw: {formTwo}, Li: {formTwo},
	Sw: {formTwo}, Si: {formTwo},
	Cmpr: {formTwo}, Cmpi: {formTwo},
	Br: {formBranch}, Bi: {formBranch},
	Push: {formOneReg}, Pop: {formOneReg},
	Fw: {formOneImm24}, Svc: {formOneImm24},
	Aps: {formTwo},
}

// Instruction is a single decoded or parsed SArch32 instruction. It carries
// whichever operand fields its opcode's form actually uses; unused fields
// are left zero, the same economy of representation as the source's
// CCPU_Context-adjacent stepInfo-style structs that carry every field but
// interpret only the ones the current opcode needs.
type Instruction struct {
	Op       Opcode
	Cond     Condition
	Dst      Register // two-operand forms only
	Src      Operand
	Relative bool // br/bi only
}

// Length is 4 for every SArch32 instruction; there is no variable-length
// encoding (data pseudo-instructions are a separate asmld concern).
func (ins *Instruction) Length() uint32 { return 4 }

// RequestedSymbol reports the pending symbolic reference, if any.
func (ins *Instruction) RequestedSymbol() (string, bool) {
	if ins.Src.IsSymbol() {
		return ins.Src.Symbol, true
	}
	return "", false
}

// ResolveSymbol rewrites a pending symbolic operand to an absolute address.
func (ins *Instruction) ResolveSymbol(value int32) {
	ins.Src = ins.Src.Resolve(value)
}

func clampReg(r Register) Register {
	if int(r) >= RegisterCount {
		return R0
	}
	return r
}
