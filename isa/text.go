package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses one assembly-text instruction line (mnemonic, optional
// condition suffix, and its operands), with any trailing `; comment`
// already stripped by the caller (asmld strips comments before routing a
// line to the directive parsers).
func Parse(line string) (*Instruction, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, parseErrorf("empty instruction line")
	}

	fields := strings.SplitN(line, " ", 2)
	mnemonic := fields[0]
	operandText := ""
	if len(fields) == 2 {
		operandText = strings.TrimSpace(fields[1])
	}

	base, cond, err := splitMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	relative := false
	switch base {
	case "brr":
		base, relative = "br", true
	case "bir":
		base, relative = "bi", true
	}

	op, ok := mnemonicToOpcode[base]
	if !ok {
		return nil, parseErrorf("invalid opcode mnemonic: %s", mnemonic)
	}

	operands := splitOperands(operandText)

	ins := &Instruction{Op: op, Cond: cond, Relative: relative}
	info := opTable[op]

	switch info.form {
	case formNone:
		if err := expectArgc(operands, 0, base); err != nil {
			return nil, err
		}

	case formTwo:
		if err := expectArgc(operands, 2, base); err != nil {
			return nil, err
		}
		dst, ok := ParseRegister(operands[0])
		if !ok {
			return nil, parseErrorf("invalid register: %s", operands[0])
		}
		src, err := parseOperand(operands[1])
		if err != nil {
			return nil, err
		}
		wantImmediate := isImmediateForm(op) || op == Aps
		if wantImmediate && src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be immediate value or symbol", mnemonic)
		}
		if !wantImmediate && !src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be register", mnemonic)
		}
		ins.Dst, ins.Src = dst, src

	case formBranch:
		if err := expectArgc(operands, 1, base); err != nil {
			return nil, err
		}
		src, err := parseOperand(operands[0])
		if err != nil {
			return nil, err
		}
		wantImmediate := isImmediateForm(op)
		if wantImmediate && src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be immediate value or symbol", mnemonic)
		}
		if !wantImmediate && !src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be register", mnemonic)
		}
		ins.Src = src

	case formOneReg:
		if err := expectArgc(operands, 1, base); err != nil {
			return nil, err
		}
		src, err := parseOperand(operands[0])
		if err != nil {
			return nil, err
		}
		if !src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be register", mnemonic)
		}
		ins.Src = src

	case formOneImm24:
		if err := expectArgc(operands, 1, base); err != nil {
			return nil, err
		}
		src, err := parseOperand(operands[0])
		if err != nil {
			return nil, err
		}
		if src.IsRegister() {
			return nil, parseErrorf("invalid parameter for instruction %s - should be immediate value or symbol", mnemonic)
		}
		ins.Src = src
	}

	return ins, nil
}

func expectArgc(operands []string, n int, mnemonic string) error {
	if len(operands) != n {
		return parseErrorf("invalid number of operands for %s", mnemonic)
	}
	return nil
}

// splitMnemonic separates the base mnemonic from a `.cond` suffix.
func splitMnemonic(tok string) (string, Condition, error) {
	base, suffix, found := strings.Cut(tok, ".")
	base = strings.ToLower(base)
	if !found {
		return base, CondAlways, nil
	}
	cond, ok := ParseCondition(suffix)
	if !ok {
		return "", 0, parseErrorf("invalid condition mnemonic: %s", suffix)
	}
	return base, cond, nil
}

func splitOperands(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseOperand parses a register, immediate (`#123`, `#0x7b`, `#-5`), or
// symbol (`$label`) operand.
func parseOperand(tok string) (Operand, error) {
	if r, ok := ParseRegister(tok); ok {
		return RegisterOperand(r), nil
	}
	if strings.HasPrefix(tok, "#") {
		imm, err := parseImmediate(tok[1:])
		if err != nil {
			return Operand{}, err
		}
		return ImmediateOperand(imm), nil
	}
	if strings.HasPrefix(tok, "$") && len(tok) > 1 {
		return SymbolOperand(tok[1:]), nil
	}
	return Operand{}, parseErrorf("could not parse value: %s", tok)
}

func parseImmediate(s string) (int32, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, parseErrorf("invalid immediate value: %s", s)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

// Print renders the canonical textual form of the instruction. hex toggles
// `0x` formatting for immediates, with an absolute-value-and-leading-minus
// convention for negatives.
func (ins *Instruction) Print(hex bool) string {
	var b strings.Builder
	info := opTable[ins.Op]

	mnemonic := ins.Op.String()
	if info.form == formBranch && ins.Relative {
		mnemonic += "r"
	}
	b.WriteString(mnemonic)
	if ins.Cond != CondAlways {
		b.WriteByte('.')
		b.WriteString(ins.Cond.String())
	}

	switch info.form {
	case formNone:
		// no operands

	case formTwo:
		b.WriteByte(' ')
		b.WriteString(ins.Dst.String())
		b.WriteString(", ")
		b.WriteString(formatOperand(ins.Src, hex))

	case formBranch, formOneReg, formOneImm24:
		b.WriteByte(' ')
		b.WriteString(formatOperand(ins.Src, hex))
	}

	return b.String()
}

func formatOperand(o Operand, hex bool) string {
	switch o.Kind {
	case OperandImmediate:
		return "#" + formatNum(o.Immed, hex)
	case OperandSymbol:
		return "$" + o.Symbol
	case OperandRegister:
		return o.Register.String()
	default:
		return "?"
	}
}

func formatNum(n int32, hex bool) string {
	if !hex {
		return strconv.FormatInt(int64(n), 10)
	}
	if n < 0 {
		return fmt.Sprintf("-0x%x", -int64(n))
	}
	return fmt.Sprintf("0x%x", n)
}
