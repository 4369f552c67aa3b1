package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/parser"
)

// Program is a loaded program ready for the optimizer.
type Program struct {
	Path string

	// Compiled is true when the file was an IR document rather than source.
	Compiled bool

	Ast ir.Ast
}

// Base returns the file name without directory or extension.
func (p *Program) Base() string {
	base := filepath.Base(p.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadError describes why a program could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Line    int // 1-based; zero when unknown
	Column  int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadProgram reads source text, or an IR document when path ends in
// ".json". Failures are returned as *LoadError.
func LoadProgram(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: openMessage(err)}
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		doc, err := ir.ReadDocument(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidIR, Path: path, Message: err.Error()}
		}
		return &Program{Path: path, Compiled: true, Ast: doc.Instructions}, nil
	}

	ast, err := parser.Parse(f)
	if err != nil {
		var syntaxErr *parser.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &LoadError{
				Code:    ErrCodeSyntax,
				Path:    path,
				Message: syntaxErr.Message,
				Line:    syntaxErr.Line,
				Column:  syntaxErr.Column,
			}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}
	return &Program{Path: path, Ast: ast}, nil
}

func openMessage(err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return "file not found"
	}
	return err.Error()
}

// loadOrFail loads path and reports a failure through f.
func loadOrFail(f *OutputFormatter, path string) (*Program, error) {
	prog, err := LoadProgram(path)
	if err == nil {
		return prog, nil
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Error(), nil)
		return nil, WrapExitError(ExitCommandError, loadErr.Code, loadErr)
	}
	return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "loading program", err)
}
