// Package eval executes an instruction sequence against a tape.
//
// The evaluator is a flat instruction-pointer machine: loops keep their
// Open and Close instructions and are run with an explicit stack of open
// loop indices. It performs I/O only at Read and Write and is otherwise
// purely computational. There is no timeout; a step quota and a
// cancellation context are opt-in.
package eval

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/suggest"
	"github.com/roach88/brutalist/internal/tape"
)

// EOFPolicy decides what Read does once input is exhausted. End of input
// is never an error.
type EOFPolicy int

const (
	// EOFUnchanged leaves the current cell as it was.
	EOFUnchanged EOFPolicy = iota
	// EOFZero stores 0.
	EOFZero
	// EOFMax stores 255.
	EOFMax
)

// EOFPolicyNames lists the accepted policy names.
var EOFPolicyNames = []string{"unchanged", "zero", "max"}

func (p EOFPolicy) String() string {
	if p < EOFUnchanged || p > EOFMax {
		return fmt.Sprintf("eof(%d)", int(p))
	}
	return EOFPolicyNames[p]
}

// ParseEOFPolicy maps a policy name to its value. The empty string selects
// the default.
func ParseEOFPolicy(s string) (EOFPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return EOFUnchanged, nil
	}
	for i, name := range EOFPolicyNames {
		if name == s {
			return EOFPolicy(i), nil
		}
	}
	return EOFUnchanged, suggest.Unknown("eof policy", s, EOFPolicyNames)
}

// Step describes the machine state just before an instruction executes.
type Step struct {
	N       int64 // 1-based step number
	IP      int
	Op      ir.Op
	Pointer int
	Cell    uint8
}

// Result describes a finished (or failed) run.
type Result struct {
	Steps   int64
	Pointer int
	Tape    *tape.Tape
}

// Evaluator runs programs with a fixed I/O and limit configuration.
// A fresh tape is created for every Run.
type Evaluator struct {
	in       io.ByteReader
	out      io.Writer
	eof      EOFPolicy
	maxSteps int64
	tracer   func(Step)
	logger   *slog.Logger
	ctx      context.Context
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithInput sets the byte source for Read. Defaults to empty input.
func WithInput(r io.Reader) Option {
	return func(e *Evaluator) {
		if br, ok := r.(io.ByteReader); ok {
			e.in = br
			return
		}
		e.in = bufio.NewReader(r)
	}
}

// WithOutput sets the byte sink for Write. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) {
		e.out = w
	}
}

// WithEOF sets the end-of-input policy.
func WithEOF(p EOFPolicy) Option {
	return func(e *Evaluator) {
		e.eof = p
	}
}

// WithMaxSteps limits the number of executed instructions. Zero means
// unlimited.
func WithMaxSteps(n int64) Option {
	return func(e *Evaluator) {
		e.maxSteps = n
	}
}

// WithTracer registers a callback invoked before every instruction.
func WithTracer(fn func(Step)) Option {
	return func(e *Evaluator) {
		e.tracer = fn
	}
}

// WithContext stops the run with ErrCodeCancelled once ctx is done. The
// context is checked on every backward jump and before every Read, so any
// non-terminating program notices cancellation.
func WithContext(ctx context.Context) Option {
	return func(e *Evaluator) {
		e.ctx = ctx
	}
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		in:     strings.NewReader(""),
		out:    io.Discard,
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// machine is the transient state of one run.
type machine struct {
	*Evaluator
	prog  ir.Ast
	tape  *tape.Tape
	out   *bufio.Writer
	quota quota
	done  <-chan struct{}

	ip    int
	stack []int

	// matches caches Open -> Close indices found by forward scans.
	matches map[int]int
}

// Run executes ast on a fresh tape. The Result is returned even when the
// run fails, describing the state at the failure.
func (e *Evaluator) Run(ast ir.Ast) (*Result, error) {
	m := &machine{
		Evaluator: e,
		prog:      ast,
		tape:      tape.New(),
		out:       bufio.NewWriter(e.out),
		quota:     quota{limit: e.maxSteps},
		matches:   make(map[int]int),
		done:      e.ctx.Done(),
	}

	e.logger.Debug("evaluation started", "instructions", len(ast), "eof", e.eof, "max_steps", e.maxSteps)

	err := m.run()
	if flushErr := m.out.Flush(); flushErr != nil && err == nil {
		err = &RuntimeError{
			Code:    ErrCodeIOFailure,
			Message: "flushing output",
			IP:      len(ast),
			Pointer: m.tape.Pointer(),
			Err:     flushErr,
		}
	}

	res := &Result{Steps: m.quota.current, Pointer: m.tape.Pointer(), Tape: m.tape}
	if err != nil {
		e.logger.Debug("evaluation failed", "steps", res.Steps, "code", CodeOf(err), "error", err)
		return res, err
	}
	e.logger.Debug("evaluation finished", "steps", res.Steps, "pointer", res.Pointer)
	return res, nil
}

func (m *machine) run() error {
	for m.ip < len(m.prog) {
		op := m.prog[m.ip]

		if err := m.quota.check(); err != nil {
			m.quota.current--
			return m.fail(ErrCodeStepsExceeded, "step quota exhausted", err)
		}
		if m.tracer != nil {
			m.tracer(Step{N: m.quota.current, IP: m.ip, Op: op, Pointer: m.tape.Pointer(), Cell: m.tape.Get()})
		}

		next, err := m.exec(op)
		if err != nil {
			return err
		}
		m.ip = next
	}
	return nil
}

// exec performs one instruction and returns the next instruction index.
func (m *machine) exec(op ir.Op) (int, error) {
	t := m.tape
	switch op.Kind {
	case ir.KindAdd:
		t.Add(op.N)
	case ir.KindSub:
		t.Sub(op.N)
	case ir.KindShift:
		if err := t.Shift(op.Dir, op.N); err != nil {
			return 0, m.fail(ErrCodeOutOfBounds, "pointer moved off the tape", err)
		}
	case ir.KindRead:
		if err := m.read(); err != nil {
			return 0, err
		}
	case ir.KindWrite:
		if err := m.out.WriteByte(t.Get()); err != nil {
			return 0, m.fail(ErrCodeIOFailure, "writing output", err)
		}
	case ir.KindOpen:
		if t.Get() != 0 {
			m.stack = append(m.stack, m.ip)
			return m.ip + 1, nil
		}
		end, err := m.matchForward()
		if err != nil {
			return 0, err
		}
		return end + 1, nil
	case ir.KindClose:
		if len(m.stack) == 0 {
			return 0, m.fail(ErrCodeMalformedLoop, "close without matching open", nil)
		}
		top := m.stack[len(m.stack)-1]
		if t.Get() != 0 {
			if err := m.checkCancelled(); err != nil {
				return 0, err
			}
			// Re-enter the body; the loop stays open.
			return top + 1, nil
		}
		m.stack = m.stack[:len(m.stack)-1]
	case ir.KindClear:
		t.Clear()
	case ir.KindScan:
		if err := t.Scan(op.Dir); err != nil {
			return 0, m.fail(ErrCodeOutOfBounds, "scan ran off the tape", err)
		}
	case ir.KindCopy:
		if err := t.MulAdd(op.Dir, op.N, 1); err != nil {
			return 0, m.fail(ErrCodeOutOfBounds, "copy target is off the tape", err)
		}
	case ir.KindMul:
		if err := t.MulAdd(op.Dir, op.N, op.Factor); err != nil {
			return 0, m.fail(ErrCodeOutOfBounds, "multiply target is off the tape", err)
		}
	default:
		return 0, m.fail(ErrCodeMalformedLoop, fmt.Sprintf("invalid instruction kind %d", op.Kind), nil)
	}
	return m.ip + 1, nil
}

// read flushes pending output so prompts appear before the program blocks
// on input, then applies one byte or the EOF policy.
func (m *machine) read() error {
	if err := m.checkCancelled(); err != nil {
		return err
	}
	if err := m.out.Flush(); err != nil {
		return m.fail(ErrCodeIOFailure, "flushing output before read", err)
	}
	b, err := m.in.ReadByte()
	switch {
	case err == nil:
		m.tape.Set(b)
	case errors.Is(err, io.EOF):
		switch m.eof {
		case EOFZero:
			m.tape.Set(0)
		case EOFMax:
			m.tape.Set(255)
		}
	default:
		return m.fail(ErrCodeIOFailure, "reading input", err)
	}
	return nil
}

// checkCancelled fails the run once the context is done. A nil done
// channel (background context) never fires.
func (m *machine) checkCancelled() error {
	select {
	case <-m.done:
		return m.fail(ErrCodeCancelled, "run cancelled", context.Cause(m.ctx))
	default:
		return nil
	}
}

// matchForward finds the Close matching the Open at ip by counting nested
// brackets. Results are cached so loops skipped repeatedly are scanned
// once.
func (m *machine) matchForward() (int, error) {
	if end, ok := m.matches[m.ip]; ok {
		return end, nil
	}
	depth := 0
	for i := m.ip; i < len(m.prog); i++ {
		switch m.prog[i].Kind {
		case ir.KindOpen:
			depth++
		case ir.KindClose:
			depth--
			if depth == 0 {
				m.matches[m.ip] = i
				return i, nil
			}
		}
	}
	return 0, m.fail(ErrCodeMalformedLoop, "open without matching close", nil)
}

func (m *machine) fail(code RuntimeErrorCode, msg string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: msg,
		IP:      m.ip,
		Op:      m.prog[m.ip],
		Pointer: m.tape.Pointer(),
		Err:     err,
	}
}

// Run executes ast with the given input and output and default settings.
func Run(ast ir.Ast, in io.Reader, out io.Writer) (*Result, error) {
	return New(WithInput(in), WithOutput(out)).Run(ast)
}
