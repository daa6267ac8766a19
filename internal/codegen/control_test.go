package codegen

import (
	"testing"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/sim"
)

func TestIfThenPlacement(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(1)
	c := g.If()
	g.Literal(2)
	c.Then()
	if err := g.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	expectLines(t, g,
		"ori X5, X0, 1",
		"beq X5, X0, .L0",
		"ori X5, X0, 2",
		"sd X3, -8(X4)",
		"ori X3, X5, 0",
		"addi X4, X4, -8",
		".L0:",
	)
	if c.Label() != ".L0" {
		t.Errorf("label = %q", c.Label())
	}
}

func TestIfWithDCFlag(t *testing.T) {
	g := unoptimized()
	c := g.If()
	c.Then()
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X3, 0",
		"ld X3, 0(X4)",
		"addi X4, X4, 8",
		"beq X5, X0, .L0",
		".L0:",
	)
}

func TestNestedConditionals(t *testing.T) {
	g := New(DefaultOptions())
	outer := g.If()
	inner := g.If()
	if g.Open() != 2 {
		t.Fatalf("open = %d", g.Open())
	}
	inner.Then()
	outer.Then()
	if err := g.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if outer.Label() != ".L0" || inner.Label() != ".L1" {
		t.Errorf("labels = %s %s", outer.Label(), inner.Label())
	}

	// 内层标签先于外层放置
	var placed []string
	for _, l := range lines(g) {
		if l == ".L0:" || l == ".L1:" {
			placed = append(placed, l)
		}
	}
	if len(placed) != 2 || placed[0] != ".L1:" || placed[1] != ".L0:" {
		t.Errorf("label order = %v", placed)
	}
}

func TestUnbalancedNesting(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Generator)
	}{
		{"outer closed first", func(g *Generator) {
			outer := g.If()
			g.If()
			outer.Then()
		}},
		{"closed twice", func(g *Generator) {
			c := g.If()
			c.Then()
			c.Then()
		}},
		{"stale handle", func(g *Generator) {
			c := g.If()
			g.Reset()
			c.Then()
		}},
		{"open at finish", func(g *Generator) {
			g.If()
			g.Finish()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultOptions())
			tt.build(g)
			expectCode(t, g, errors.G0002)
		})
	}
}

func TestRecurse(t *testing.T) {
	g := New(DefaultOptions())
	g.Recurse()
	expectCode(t, g, errors.G0004)

	g.Reset()
	g.Subroutine("loop")
	g.Recurse()
	expectNoErr(t, g)
	if g.Current() != "loop" {
		t.Errorf("current = %q", g.Current())
	}
	expectLines(t, g, "loop:", "jal X1, loop")
}

func TestCallCommitsFirst(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(1)
	g.Literal(2)
	g.Call("f")
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X0, 1",
		"ori X6, X0, 2",
		"sd X3, -8(X4)",
		"sd X5, -16(X4)",
		"ori X3, X6, 0",
		"addi X4, X4, -16",
		"jal X1, f",
	)
	if !g.Committed() {
		t.Errorf("state after call is not committed")
	}
}

// buildCount 尾递归求和：( acc n -- acc+n+...+1 0 )
func buildCount(g *Generator) {
	g.Subroutine("count")
	g.Dup()
	c := g.If()
	g.Dup()
	g.Push()
	g.Add()
	g.Pop()
	g.Literal(-1)
	g.Add()
	g.Recurse()
	g.Return()
	c.Then()
	g.Return()

	g.Subroutine("main")
	g.Literal(0)
	g.Literal(10)
	g.Call("count")
	g.Drop()
}

func TestTailRecursionRuns(t *testing.T) {
	// 调用者不保护 RA，递归必须被改写为尾调用才能正确返回
	g := New(DefaultOptions())
	buildCount(g)
	if err := g.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	m, err := sim.Load(g.Instructions(), g.Pool())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Run("main"); err != nil {
		t.Fatalf("run: %v\n%s", err, g.Listing())
	}
	if got := m.Stack(1)[0]; got != 55 {
		t.Errorf("result = %d, want 55", got)
	}
	if m.Depth() != 1 {
		t.Errorf("depth = %d, want 1", m.Depth())
	}
}
