package isa

import "fmt"

// Category separates the two tooling-error families from §7: errors raised
// while parsing text into an Instruction, and errors raised while
// generating a binary/text form from one.
type Category uint8

const (
	CategoryParser Category = iota
	CategoryGenerator
)

func (c Category) String() string {
	if c == CategoryGenerator {
		return "generator"
	}
	return "parser"
}

// Error is a tooling error: a textual message plus a category tag. It is
// always returned, never propagated into the CPU's exception path.
type Error struct {
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func parseErrorf(format string, a ...interface{}) *Error {
	return &Error{Category: CategoryParser, Message: fmt.Sprintf(format, a...)}
}

func genErrorf(format string, a ...interface{}) *Error {
	return &Error{Category: CategoryGenerator, Message: fmt.Sprintf(format, a...)}
}
