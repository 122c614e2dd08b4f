package isa

const (
	imm16Min = -32768
	imm16Max = 32767
	imm24Min = -8388608
	imm24Max = 8388607
)

func tagByte(op Opcode, cond Condition) byte {
	return byte(cond)<<5 | byte(op)&0x1f
}

func regPairByte(hi, lo Register) byte {
	return byte(hi)<<4 | byte(lo)&0xf
}

// Encode produces the 4-byte little-endian instruction word, or a generator
// error if an immediate operand is out of range or push/pop lacks a register
// operand. A still-symbolic operand encodes as 0 in its immediate field.
func (ins *Instruction) Encode() (uint32, error) {
	info := opTable[ins.Op]
	tag := tagByte(ins.Op, ins.Cond)

	switch info.form {
	case formNone:
		return uint32(tag), nil

	case formTwo:
		if ins.Src.IsRegister() {
			b1 := regPairByte(ins.Dst, ins.Src.Register)
			return uint32(tag) | uint32(b1)<<8, nil
		}
		imm := ins.Src.Immed // 0 for a still-unresolved Symbol placeholder
		if ins.Src.IsImmediate() && (imm < imm16Min || imm > imm16Max) {
			return 0, genErrorf("immediate %d out of 16-bit range for %s", imm, ins.Op)
		}
		b1 := regPairByte(ins.Dst, R0)
		return uint32(tag) | uint32(b1)<<8 | (uint32(uint16(int16(imm))) << 16), nil

	case formBranch:
		if ins.Relative {
			word := uint32(tag) | uint32(0xFF)<<8
			if ins.Src.IsImmediate() || ins.Src.IsSymbol() {
				imm := ins.Src.Immed
				if ins.Src.IsImmediate() && (imm < imm16Min || imm > imm16Max) {
					return 0, genErrorf("immediate %d out of 16-bit range for %s", imm, ins.Op)
				}
				word |= uint32(uint16(int16(imm))) << 16
			}
			return word, nil
		}
		if ins.Src.IsRegister() {
			b1 := regPairByte(R0, ins.Src.Register)
			return uint32(tag) | uint32(b1)<<8, nil
		}
		imm := ins.Src.Immed
		if ins.Src.IsImmediate() && (imm < imm16Min || imm > imm16Max) {
			return 0, genErrorf("immediate %d out of 16-bit range for %s", imm, ins.Op)
		}
		return uint32(tag) | (uint32(uint16(int16(imm))) << 16), nil

	case formOneReg:
		if !ins.Src.IsRegister() {
			return 0, genErrorf("%s requires a register operand", ins.Op)
		}
		b1 := regPairByte(R0, ins.Src.Register)
		return uint32(tag) | uint32(b1)<<8, nil

	case formOneImm24:
		imm := ins.Src.Immed
		if ins.Src.IsImmediate() && (imm < imm24Min || imm > imm24Max) {
			return 0, genErrorf("immediate %d out of 24-bit range for %s", imm, ins.Op)
		}
		u := uint32(imm) & 0x00FFFFFF
		return uint32(tag) | u<<8, nil
	}

	return 0, genErrorf("unknown instruction form for %s", ins.Op)
}

// Decode reconstructs an Instruction from its 4-byte little-endian word, or
// reports Undefined via a nil return when the opcode bits name no known
// opcode.
func Decode(word uint32) (*Instruction, bool) {
	tag := byte(word)
	opBits := Opcode(tag & 0x1f)
	if int(opBits) >= opcodeCount {
		return nil, false
	}
	cond := decodeCondition(tag >> 5)
	b1 := byte(word >> 8)

	ins := &Instruction{Op: opBits, Cond: cond}
	info := opTable[opBits]

	switch info.form {
	case formNone:
		// nothing further to decode

	case formTwo:
		ins.Dst = clampReg(Register(b1 >> 4))
		if isImmediateForm(opBits) || opBits == Aps {
			ins.Src = ImmediateOperand(decode16(word))
		} else {
			ins.Src = RegisterOperand(clampReg(Register(b1 & 0xf)))
		}

	case formBranch:
		ins.Relative = b1 == 0xFF
		if isImmediateForm(opBits) {
			ins.Src = ImmediateOperand(decode16(word))
		} else {
			ins.Src = RegisterOperand(clampReg(Register(b1 & 0xf)))
		}

	case formOneReg:
		ins.Src = RegisterOperand(clampReg(Register(b1 & 0xf)))

	case formOneImm24:
		ins.Src = ImmediateOperand(decode24(word))

	default:
		return nil, false
	}

	return ins, true
}

// decode16 sign-extends the 16-bit field in bytes 2-3.
func decode16(word uint32) int32 {
	return int32(int16(uint16(word >> 16)))
}

// decode24 sign-extends the 24-bit field in bytes 1-3 by an arithmetic
// shift-right of the whole word by 8, matching the source's
// Decode_Immediate_24b.
func decode24(word uint32) int32 {
	return int32(word) >> 8
}
