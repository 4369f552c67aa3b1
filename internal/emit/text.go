package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
)

// textEmitter renders one or more lines per instruction, indenting loop
// bodies.
type textEmitter struct {
	name   string
	ext    string
	indent string
	header func(ast ir.Ast) string
	footer string
	lines  func(op ir.Op) []string
}

func (t *textEmitter) Name() string { return t.name }
func (t *textEmitter) Ext() string  { return t.ext }

func (t *textEmitter) Emit(w io.Writer, ast ir.Ast) error {
	if err := ir.Validate(ast); err != nil {
		return fmt.Errorf("emit %s: %w", t.name, err)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(t.header(ast))
	depth := 1
	for _, op := range ast {
		if op.Kind == ir.KindClose {
			depth--
		}
		prefix := strings.Repeat(t.indent, depth)
		for _, line := range t.lines(op) {
			bw.WriteString(prefix)
			bw.WriteString(line)
			bw.WriteByte('\n')
		}
		if op.Kind == ir.KindOpen {
			depth++
		}
	}
	bw.WriteString(t.footer)
	return bw.Flush()
}

func reads(ast ir.Ast) bool {
	return ast.Count()[ir.KindRead] > 0
}

// sign returns the C/Rust operator for a pointer move in dir.
func sign(dir ir.Dir) string {
	if dir == ir.Left {
		return "-"
	}
	return "+"
}

var cEmitter = &textEmitter{
	name:   "c",
	ext:    "c",
	indent: "    ",
	header: func(ast ir.Ast) string {
		var sb strings.Builder
		sb.WriteString("#include <stdint.h>\n#include <stdio.h>\n\n")
		sb.WriteString("static uint8_t mem[65536];\n\n")
		sb.WriteString("int main(void) {\n    size_t p = 0;\n")
		if reads(ast) {
			sb.WriteString("    int c;\n")
		}
		sb.WriteString("\n")
		return sb.String()
	},
	footer: "\n    return 0;\n}\n",
	lines:  cLines,
}

func cLines(op ir.Op) []string {
	switch op.Kind {
	case ir.KindAdd:
		return []string{fmt.Sprintf("mem[p] += %d;", op.N)}
	case ir.KindSub:
		return []string{fmt.Sprintf("mem[p] -= %d;", op.N)}
	case ir.KindShift:
		return []string{fmt.Sprintf("p %s= %d;", sign(op.Dir), op.N)}
	case ir.KindRead:
		return []string{"fflush(stdout);", "if ((c = getchar()) != EOF) mem[p] = (uint8_t)c;"}
	case ir.KindWrite:
		return []string{"putchar(mem[p]);"}
	case ir.KindOpen:
		return []string{"while (mem[p]) {"}
	case ir.KindClose:
		return []string{"}"}
	case ir.KindClear:
		return []string{"mem[p] = 0;"}
	case ir.KindScan:
		return []string{fmt.Sprintf("while (mem[p]) p %s= 1;", sign(op.Dir))}
	case ir.KindCopy:
		return []string{fmt.Sprintf("if (mem[p]) mem[p %s %d] += mem[p];", sign(op.Dir), op.N)}
	case ir.KindMul:
		mag, neg := factorParts(op.Factor)
		assign := "+="
		if neg {
			assign = "-="
		}
		return []string{fmt.Sprintf("if (mem[p]) mem[p %s %d] %s mem[p] * %d;", sign(op.Dir), op.N, assign, mag)}
	}
	return nil
}

var rustEmitter = &textEmitter{
	name:   "rust",
	ext:    "rs",
	indent: "    ",
	header: func(ir.Ast) string {
		return "use std::io::{self, Read, Write};\n\n" +
			"fn main() {\n" +
			"    let mut mem = [0u8; 65536];\n" +
			"    let mut p: usize = 0;\n" +
			"    let mut input = io::stdin().lock().bytes();\n" +
			"    let mut out = io::BufWriter::new(io::stdout().lock());\n\n"
	},
	footer: "\n    out.flush().unwrap();\n}\n",
	lines:  rustLines,
}

func rustLines(op ir.Op) []string {
	switch op.Kind {
	case ir.KindAdd:
		return []string{fmt.Sprintf("mem[p] = mem[p].wrapping_add(%d);", op.N)}
	case ir.KindSub:
		return []string{fmt.Sprintf("mem[p] = mem[p].wrapping_sub(%d);", op.N)}
	case ir.KindShift:
		return []string{fmt.Sprintf("p %s= %d;", sign(op.Dir), op.N)}
	case ir.KindRead:
		return []string{"out.flush().unwrap();", "if let Some(Ok(b)) = input.next() { mem[p] = b; }"}
	case ir.KindWrite:
		return []string{"out.write_all(&[mem[p]]).unwrap();"}
	case ir.KindOpen:
		return []string{"while mem[p] != 0 {"}
	case ir.KindClose:
		return []string{"}"}
	case ir.KindClear:
		return []string{"mem[p] = 0;"}
	case ir.KindScan:
		return []string{fmt.Sprintf("while mem[p] != 0 { p %s= 1; }", sign(op.Dir))}
	case ir.KindCopy:
		target := fmt.Sprintf("mem[p %s %d]", sign(op.Dir), op.N)
		return []string{fmt.Sprintf("if mem[p] != 0 { %s = %s.wrapping_add(mem[p]); }", target, target)}
	case ir.KindMul:
		target := fmt.Sprintf("mem[p %s %d]", sign(op.Dir), op.N)
		mag, neg := factorParts(op.Factor)
		method := "wrapping_add"
		if neg {
			method = "wrapping_sub"
		}
		return []string{fmt.Sprintf("if mem[p] != 0 { %s = %s.%s(mem[p].wrapping_mul(%d)); }", target, target, method, mag)}
	}
	return nil
}
