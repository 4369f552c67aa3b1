package testutil

import (
	"math/rand/v2"
	"strings"
)

// ProgramGenerator produces random, bracket-balanced programs from a seed.
//
// The same seed always yields the same sequence of programs, so failures
// found by property tests can be replayed. Programs are biased toward
// shapes the optimizer rewrites: runs of +/-, back-and-forth moves,
// [-] and [>] loops, and counted loops that move a value to neighbouring
// cells. Some programs still diverge or leave the tape; callers run them
// with a step quota and skip those.
type ProgramGenerator struct {
	r *rand.Rand

	// Size is the approximate number of fragments per program.
	Size int

	// MaxDepth bounds loop nesting.
	MaxDepth int
}

// NewProgramGenerator creates a generator with the given seed.
func NewProgramGenerator(seed uint64) *ProgramGenerator {
	return &ProgramGenerator{
		r:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Size:     24,
		MaxDepth: 3,
	}
}

// Program returns the source text of the next program.
func (g *ProgramGenerator) Program() string {
	var sb strings.Builder
	// Give the first few cells values so loops actually run.
	for i := 0; i < 3; i++ {
		sb.WriteString(strings.Repeat("+", 1+g.r.IntN(5)))
		sb.WriteByte('>')
	}
	sb.WriteString("<<<")
	g.block(&sb, g.Size, 0)
	return sb.String()
}

func (g *ProgramGenerator) block(sb *strings.Builder, n, depth int) {
	for i := 0; i < n; i++ {
		g.fragment(sb, depth)
	}
}

func (g *ProgramGenerator) fragment(sb *strings.Builder, depth int) {
	switch k := g.r.IntN(12); {
	case k < 3:
		sb.WriteString(strings.Repeat(string("+-"[g.r.IntN(2)]), 1+g.r.IntN(4)))
	case k < 5:
		n := 1 + g.r.IntN(3)
		sb.WriteString(strings.Repeat(">", n))
		sb.WriteString(strings.Repeat("<", g.r.IntN(n+1)))
	case k == 5:
		sb.WriteByte('.')
	case k == 6:
		sb.WriteByte(',')
	case k == 7:
		sb.WriteString([]string{"[-]", "[+]", "[>]", "[<]", "[]"}[g.r.IntN(5)])
	case k < 10:
		g.countedLoop(sb)
	default:
		if depth >= g.MaxDepth {
			sb.WriteByte('.')
			return
		}
		sb.WriteByte('[')
		g.block(sb, 1+g.r.IntN(4), depth+1)
		sb.WriteByte(']')
	}
}

// countedLoop writes a loop that decrements its control cell once per
// iteration and moves back to it, such as [->++>---<<].
func (g *ProgramGenerator) countedLoop(sb *strings.Builder) {
	sb.WriteString("[-")
	offset := 0
	moves := 1 + g.r.IntN(3)
	for i := 0; i < moves; i++ {
		step := 1 + g.r.IntN(2)
		if offset > 0 && g.r.IntN(3) == 0 {
			step = -min(step, offset)
		}
		offset += step
		if step > 0 {
			sb.WriteString(strings.Repeat(">", step))
		} else {
			sb.WriteString(strings.Repeat("<", -step))
		}
		if offset != 0 {
			sb.WriteString(strings.Repeat(string("+-"[g.r.IntN(2)]), 1+g.r.IntN(3)))
		}
	}
	sb.WriteString(strings.Repeat("<", offset))
	sb.WriteByte(']')
}
