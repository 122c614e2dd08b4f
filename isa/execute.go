package isa

// execFunc implements an opcode family's side effects. The caller (the CPU
// core's step loop) has already evaluated the instruction's condition
// against FLG and only calls Execute when it held.
type execFunc func(ins *Instruction, cpu CPU) error

var execTable = [opcodeCount]execFunc{
	Nop: execNop,

	Mov: execMov, Movi: execMov,
	Add: execAdd, Addi: execAdd,
	Sub: execSub, Subi: execSub,
	Mul: execMul, Muli: execMul,
	Div: execDiv, Divi: execDiv,
	And: execAnd, Andi: execAnd,
	Or: execOr, Ori: execOr,
	Sll: execShiftLeft, Slli: execShiftLeft,
	Srl: execShiftRight, Srli: execShiftRight,
	Lw: execLoadWord, Li: execLoadWord,
	Sw: execStoreWord, Si: execStoreWord,
	Cmpr: execCompare, Cmpi: execCompare,
	Br: execBranch, Bi: execBranch,
	Push: execPush, Pop: execPop,
	Fw:  execFw,
	Svc: execSvc,
	Aps: execAps,
}

// Execute runs the instruction's side effects against cpu. The caller must
// have already gated this call on the instruction's condition.
func (ins *Instruction) Execute(cpu CPU) error {
	fn := execTable[ins.Op]
	if fn == nil {
		return &Exception{Kind: ExcUndefined}
	}
	return fn(ins, cpu)
}

func execNop(_ *Instruction, _ CPU) error { return nil }

func operandValue(src Operand, cpu CPU) uint32 {
	if src.IsRegister() {
		return cpu.Reg(src.Register)
	}
	return uint32(src.Immed)
}

func execMov(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, operandValue(ins.Src, cpu))
	return nil
}

func execAdd(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)+operandValue(ins.Src, cpu))
	return nil
}

func execSub(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)-operandValue(ins.Src, cpu))
	return nil
}

func execMul(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)*operandValue(ins.Src, cpu))
	return nil
}

// execDiv raises Abort on division by zero rather than the source's soft
// failure, per the pedagogically-correct behavior the design notes call for.
func execDiv(ins *Instruction, cpu CPU) error {
	op2 := operandValue(ins.Src, cpu)
	if op2 == 0 {
		return &Exception{Kind: ExcAbort}
	}
	r1 := int32(cpu.Reg(ins.Dst))
	r2 := int32(op2)
	cpu.SetReg(ins.Dst, uint32(r1/r2))
	return nil
}

func execAnd(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)&operandValue(ins.Src, cpu))
	return nil
}

func execOr(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)|operandValue(ins.Src, cpu))
	return nil
}

// shiftAmount masks the shift count to 5 bits; the source leaves it
// unmasked with undefined behavior at src>=32.
func shiftAmount(src Operand, cpu CPU) uint32 {
	return operandValue(src, cpu) & 31
}

func execShiftLeft(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)<<shiftAmount(ins.Src, cpu))
	return nil
}

func execShiftRight(ins *Instruction, cpu CPU) error {
	cpu.SetReg(ins.Dst, cpu.Reg(ins.Dst)>>shiftAmount(ins.Src, cpu))
	return nil
}

func execLoadWord(ins *Instruction, cpu CPU) error {
	addr := operandValue(ins.Src, cpu)
	v, exc := cpu.ReadWord(addr)
	if exc != nil {
		return exc
	}
	cpu.SetReg(ins.Dst, v)
	return nil
}

func execStoreWord(ins *Instruction, cpu CPU) error {
	addr := operandValue(ins.Src, cpu)
	if exc := cpu.WriteWord(addr, cpu.Reg(ins.Dst)); exc != nil {
		return exc
	}
	return nil
}

// execCompare preserves the source's idiosyncratic overflow formula
// (V = r1>r2 && result>r1) for bit-compatibility, rather than adopting the
// standard signed-overflow definition; see DESIGN.md.
func execCompare(ins *Instruction, cpu CPU) error {
	r1 := int32(cpu.Reg(ins.Dst))
	r2 := int32(operandValue(ins.Src, cpu))
	result := r1 - r2

	flags := cpu.Reg(FLG)
	flags = setFlag(flags, FlagZ, result == 0)
	flags = setFlag(flags, FlagN, result < 0)
	flags = setFlag(flags, FlagV, r1 > r2 && result > r1)
	cpu.SetReg(FLG, flags)
	return nil
}

func setFlag(flags, bit uint32, on bool) uint32 {
	if on {
		return flags | bit
	}
	return flags &^ bit
}

func execBranch(ins *Instruction, cpu CPU) error {
	to := operandValue(ins.Src, cpu)
	if ins.Relative {
		cpu.SetReg(PC, cpu.Reg(PC)+to)
	} else {
		cpu.SetReg(PC, to)
	}
	return nil
}

func execPush(ins *Instruction, cpu CPU) error {
	sp := cpu.Reg(SP) - 4
	if exc := cpu.WriteWord(sp, cpu.Reg(ins.Src.Register)); exc != nil {
		return exc
	}
	cpu.SetReg(SP, sp)
	return nil
}

func execPop(ins *Instruction, cpu CPU) error {
	v, exc := cpu.ReadWord(cpu.Reg(SP))
	if exc != nil {
		return exc
	}
	cpu.SetReg(ins.Src.Register, v)
	cpu.SetReg(SP, cpu.Reg(SP)+4)
	return nil
}

func execFw(ins *Instruction, cpu CPU) error {
	cpu.SetReg(R0, uint32(ins.Src.Immed))
	return nil
}

func execSvc(ins *Instruction, _ CPU) error {
	return &Exception{Kind: ExcSupervisorCall, Num: ins.Src.Immed}
}

// APS request codes.
const (
	apsNone     = 0
	apsGetMode  = 1
	apsSetMode  = 2
)

func execAps(ins *Instruction, cpu CPU) error {
	switch ins.Src.Immed {
	case apsNone:
		return nil
	case apsGetMode:
		cpu.SetReg(ins.Dst, uint32(cpu.Mode()))
		return nil
	case apsSetMode:
		if cpu.Mode() != ModeSystem {
			return &Exception{Kind: ExcUndefined}
		}
		cpu.SetMode(Mode(cpu.Reg(ins.Dst)))
		return nil
	default:
		return nil // unknown request codes are silently ignored
	}
}
