// Package parser turns program source into the initial instruction sequence.
//
// The eight command bytes map one-to-one onto instructions; every other byte
// is a comment. Bracket balance is checked here so that no unmatched Open or
// Close ever reaches the optimizer or the evaluator.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
)

// SyntaxError reports an unmatched bracket with its source position.
// Line and Column are 1-based; Offset is the 0-based byte offset.
type SyntaxError struct {
	Line    int
	Column  int
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type position struct {
	line, column, offset int
}

func (p position) syntaxError(msg string) *SyntaxError {
	return &SyntaxError{Line: p.line, Column: p.column, Offset: p.offset, Message: msg}
}

// Parse reads a whole program and returns its instructions.
func Parse(r io.Reader) (ir.Ast, error) {
	br := bufio.NewReader(r)
	ast := ir.Ast{}
	var open []position
	pos := position{line: 1, column: 1}

	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}

		switch b {
		case '>':
			ast = append(ast, ir.Shift(ir.Right, 1))
		case '<':
			ast = append(ast, ir.Shift(ir.Left, 1))
		case '+':
			ast = append(ast, ir.Add(1))
		case '-':
			ast = append(ast, ir.Sub(1))
		case ',':
			ast = append(ast, ir.Read())
		case '.':
			ast = append(ast, ir.Write())
		case '[':
			open = append(open, pos)
			ast = append(ast, ir.Open())
		case ']':
			if len(open) == 0 {
				return nil, pos.syntaxError("unmatched ']'")
			}
			open = open[:len(open)-1]
			ast = append(ast, ir.Close())
		}

		pos.offset++
		if b == '\n' {
			pos.line++
			pos.column = 1
		} else {
			pos.column++
		}
	}

	if len(open) > 0 {
		return nil, open[len(open)-1].syntaxError("unmatched '['")
	}
	return ast, nil
}

// ParseString parses a program held in a string.
func ParseString(src string) (ir.Ast, error) {
	return Parse(strings.NewReader(src))
}

// ParseBytes parses a program held in a byte slice.
func ParseBytes(src []byte) (ir.Ast, error) {
	return Parse(bytes.NewReader(src))
}

// MustParse is like ParseString but panics on error.
// Use only in tests or with known-good programs.
func MustParse(src string) ir.Ast {
	ast, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return ast
}
