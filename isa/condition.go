package isa

import "strings"

// Condition is the 3-bit predicate encoded in the tag byte that gates an
// instruction's side effects.
type Condition uint8

const (
	CondAlways Condition = iota
	CondEQ
	CondNE
	CondGT
	CondGE
	CondLT
	CondLE
	condUnspecified // 0b111, decodes as Always; rejected by the text parser
)

var conditionNames = map[Condition]string{
	CondAlways: "al",
	CondEQ:     "eq",
	CondNE:     "ne",
	CondGT:     "gt",
	CondGE:     "ge",
	CondLT:     "lt",
	CondLE:     "le",
}

var mnemonicToCondition = func() map[string]Condition {
	m := make(map[string]Condition, len(conditionNames))
	for c, name := range conditionNames {
		m[name] = c
	}
	return m
}()

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return "al"
}

// ParseCondition looks up a condition suffix mnemonic. The unspecified
// encoding (0b111) has no mnemonic and is rejected here even though the
// decoder accepts it as Always.
func ParseCondition(s string) (Condition, bool) {
	c, ok := mnemonicToCondition[strings.ToLower(s)]
	return c, ok
}

// Evaluate reports whether the condition holds given the current flags.
func (c Condition) Evaluate(flags uint32) bool {
	n := flags&FlagN != 0
	z := flags&FlagZ != 0
	v := flags&FlagV != 0

	switch c {
	case CondEQ:
		return z
	case CondNE:
		return !z
	case CondGT:
		return !z && n == v
	case CondGE:
		return n == v
	case CondLT:
		return n != v
	case CondLE:
		return z || n != v
	case CondAlways, condUnspecified:
		return true
	default:
		return true
	}
}

// decodeCondition maps a raw 3-bit field to a Condition, folding the
// unspecified encoding into Always per the source's design note.
func decodeCondition(bits uint8) Condition {
	c := Condition(bits & 0x7)
	if c == condUnspecified {
		return CondAlways
	}
	return c
}
