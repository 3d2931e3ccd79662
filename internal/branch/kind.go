// Package branch classifies statements that leave the current block, so
// that code after them can be treated as unreachable.
package branch

type BranchKind int

const (
	Empty BranchKind = iota

	// Return leaves the current function
	Return

	// Continue jumps to the next iteration of a loop
	Continue

	// Break leaves a loop, switch or select
	Break

	// Goto jumps to a label
	Goto

	// Panic unwinds the goroutine
	Panic

	// Exit terminates the program or goroutine without unwinding to the caller
	Exit

	// Regular falls through to the next statement
	Regular
)

func (k BranchKind) Branch() Branch { return Branch{BranchKind: k} }

// Deviates reports whether control never reaches the next statement.
func (k BranchKind) Deviates() bool {
	switch k {
	case Empty, Regular:
		return false
	case Return, Continue, Break, Goto, Panic, Exit:
		return true
	default:
		panic("unreachable")
	}
}

func (k BranchKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Regular:
		return "regular"
	case Return:
		return "return"
	case Continue:
		return "continue"
	case Break:
		return "break"
	case Goto:
		return "goto"
	case Panic:
		return "panic"
	case Exit:
		return "exit"
	default:
		panic("invalid kind")
	}
}
