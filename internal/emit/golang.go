package emit

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"

	"github.com/roach88/brutalist/internal/ir"
)

// goEmitter generates a standalone Go main package.
type goEmitter struct{}

func (goEmitter) Name() string { return "go" }
func (goEmitter) Ext() string  { return "go" }

func (goEmitter) Emit(w io.Writer, ast ir.Ast) error {
	if err := ir.Validate(ast); err != nil {
		return fmt.Errorf("emit go: %w", err)
	}

	f := jen.NewFile("main")
	f.HeaderComment("Code generated by brutalist. DO NOT EDIT.")

	f.Var().Defs(
		jen.Id("mem").Index(jen.Lit(65536)).Uint8(),
		jen.Id("p").Int(),
		jen.Id("in").Op("=").Qual("bufio", "NewReader").Call(jen.Qual("os", "Stdin")),
		jen.Id("out").Op("=").Qual("bufio", "NewWriter").Call(jen.Qual("os", "Stdout")),
	)

	body, _ := goStatements(ast, 0)
	stmts := append([]jen.Code{jen.Defer().Id("out").Dot("Flush").Call()}, body...)
	f.Func().Id("main").Params().Block(stmts...)

	return f.Render(w)
}

// goStatements converts ast[i:] up to the matching Close (or the end) into
// statements, returning the index just past the Close.
func goStatements(ast ir.Ast, i int) ([]jen.Code, int) {
	var stmts []jen.Code
	for i < len(ast) {
		op := ast[i]
		i++
		switch op.Kind {
		case ir.KindOpen:
			var body []jen.Code
			body, i = goStatements(ast, i)
			stmts = append(stmts, jen.For(cellNonZero()).Block(body...))
		case ir.KindClose:
			return stmts, i
		default:
			stmts = append(stmts, goStatement(op)...)
		}
	}
	return stmts, i
}

func cell() *jen.Statement {
	return jen.Id("mem").Index(jen.Id("p"))
}

func cellNonZero() *jen.Statement {
	return cell().Op("!=").Lit(0)
}

func cellAt(dir ir.Dir, n int) *jen.Statement {
	return jen.Id("mem").Index(jen.Id("p").Op(sign(dir)).Lit(n))
}

func goStatement(op ir.Op) []jen.Code {
	switch op.Kind {
	case ir.KindAdd:
		return []jen.Code{cell().Op("+=").Lit(op.N)}
	case ir.KindSub:
		return []jen.Code{cell().Op("-=").Lit(op.N)}
	case ir.KindShift:
		return []jen.Code{jen.Id("p").Op(sign(op.Dir) + "=").Lit(op.N)}
	case ir.KindRead:
		return []jen.Code{
			jen.Id("out").Dot("Flush").Call(),
			jen.If(
				jen.List(jen.Id("b"), jen.Err()).Op(":=").Id("in").Dot("ReadByte").Call(),
				jen.Err().Op("==").Nil(),
			).Block(cell().Op("=").Id("b")),
		}
	case ir.KindWrite:
		return []jen.Code{jen.Id("out").Dot("WriteByte").Call(cell())}
	case ir.KindClear:
		return []jen.Code{cell().Op("=").Lit(0)}
	case ir.KindScan:
		return []jen.Code{jen.For(cellNonZero()).Block(jen.Id("p").Op(sign(op.Dir) + "=").Lit(1))}
	case ir.KindCopy:
		return []jen.Code{jen.If(cellNonZero()).Block(cellAt(op.Dir, op.N).Op("+=").Add(cell()))}
	case ir.KindMul:
		mag, neg := factorParts(op.Factor)
		assign := "+="
		if neg {
			assign = "-="
		}
		return []jen.Code{jen.If(cellNonZero()).Block(cellAt(op.Dir, op.N).Op(assign).Add(cell()).Op("*").Lit(mag))}
	}
	return nil
}
