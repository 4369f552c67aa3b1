package ir

import "fmt"

// BalanceError reports an Open or Close without a partner.
type BalanceError struct {
	Index   int
	Message string
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("instruction %d: %s", e.Index, e.Message)
}

// Validate checks operand ranges and that every Open has exactly one
// matching Close at the same depth. The parser guarantees this for source
// programs; IR loaded from elsewhere must pass through here first.
func Validate(ast Ast) error {
	var open []int
	for i, op := range ast {
		if err := op.Check(); err != nil {
			return &BalanceError{Index: i, Message: err.Error()}
		}
		switch op.Kind {
		case KindOpen:
			open = append(open, i)
		case KindClose:
			if len(open) == 0 {
				return &BalanceError{Index: i, Message: "close without matching open"}
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return &BalanceError{Index: open[len(open)-1], Message: "open without matching close"}
	}
	return nil
}
