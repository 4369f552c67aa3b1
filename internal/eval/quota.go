package eval

import "fmt"

// quota counts executed instructions against an optional limit.
// A zero limit means unlimited: a program that never halts runs forever.
type quota struct {
	limit   int64
	current int64
}

// check counts one step and fails once the limit is passed.
func (q *quota) check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &StepsExceededError{Steps: q.current, Limit: q.limit}
	}
	return nil
}

// StepsExceededError is returned when a run exceeds its step quota.
type StepsExceededError struct {
	Steps int64 // steps attempted, including the rejected one
	Limit int64
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}
