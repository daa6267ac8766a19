package codegen

import (
	"reflect"
	"testing"

	"github.com/tangzhangming/stackrv/internal/isa"
)

func TestFoldConstants(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		op   func(*Generator)
		want []string
	}{
		{"add", 5, 3, (*Generator).Add, []string{"ori X5, X0, 8"}},
		{"xor", 6, 3, (*Generator).Xor, []string{"ori X5, X0, 5"}},
		{"and", 6, 3, (*Generator).And, []string{"ori X5, X0, 2"}},
		{"negative", -7, 2, (*Generator).Add, []string{"ori X5, X0, -5"}},
		{"into pool", 2000, 2000, (*Generator).Add, []string{"auipc X31, 0", "ld X5, -8(X31)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultOptions())
			g.Literal(tt.a)
			g.Literal(tt.b)
			tt.op(g)
			g.Optimize()
			expectNoErr(t, g)
			expectLines(t, g, tt.want...)
			if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D0, isa.DC}) {
				t.Errorf("cached = %v", got)
			}
		})
	}
}

func TestFoldIntoPoolValue(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(2000)
	g.Literal(2000)
	g.Add()
	g.Optimize()
	if got := g.Pool(); !reflect.DeepEqual(got, []int64{4000}) {
		t.Errorf("pool = %v", got)
	}
}

func TestFuseImmediate(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(80)
	g.Add()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g, "addi X3, X3, 80")
}

func TestFuseImmediateOperandOrder(t *testing.T) {
	// 常量在次栈顶，作为第一个操作数
	g := New(DefaultOptions())
	g.Literal(9)
	g.Swap()
	g.Xor()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g, "xori X5, X3, 9")
}

func TestMoveIntoALUSameSource(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(4)
	g.Dup()
	g.Add()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X0, 4",
		"add X5, X5, X5",
	)
}

func TestMoveKeepsLiveRegister(t *testing.T) {
	// X5 仍在栈上，不能删除它的定义
	g := New(DefaultOptions())
	g.Dup()
	g.Dup()
	g.Fetch()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X3, 0",
		"ld X6, 0(X5)",
	)
}

func TestMoveIntoMemory(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		g := New(DefaultOptions())
		g.Dup()
		g.Fetch()
		g.Optimize()
		expectNoErr(t, g)
		expectLines(t, g, "ld X5, 0(X3)")
	})

	t.Run("store", func(t *testing.T) {
		g := New(DefaultOptions())
		g.Literal(1)
		g.Over()
		g.Store()
		g.Optimize()
		expectNoErr(t, g)
		expectLines(t, g, "ori X5, X0, 1", "sd X5, 0(X3)")
	})
}

func TestMoveIntoALU(t *testing.T) {
	g := New(DefaultOptions())
	g.Drop()
	g.Drop()
	g.Fetch()
	g.Literal(3)
	g.Fetch()
	g.Over()
	g.Add()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g,
		"ld X5, 8(X4)",
		"ld X5, 0(X5)",
		"ori X6, X0, 3",
		"ld X6, 0(X6)",
		"add X6, X6, X5",
	)
}

func TestTailCall(t *testing.T) {
	g := New(DefaultOptions())
	g.Subroutine("f")
	g.Call("g")
	g.Return()
	g.Optimize()
	expectNoErr(t, g)
	expectLines(t, g, "f:", "jal X0, g")
}

func TestCompareBranch(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(16)
	g.Fetch()
	g.Literal(24)
	g.Fetch()
	g.Xor()
	c := g.If()
	c.Then()
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X0, 16",
		"ld X5, 0(X5)",
		"ori X6, X0, 24",
		"ld X6, 0(X6)",
		"beq X5, X6, .L0",
		".L0:",
	)
}

func TestOptimizeDisabled(t *testing.T) {
	g := unoptimized()
	g.Literal(5)
	g.Literal(3)
	g.Add()
	g.Optimize()
	expectLines(t, g, "ori X5, X0, 5", "ori X6, X0, 3", "add X5, X5, X6")
	if g.Rewrites() != 0 {
		t.Errorf("rewrites = %d", g.Rewrites())
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	programs := map[string]func(*Generator){
		"fold":  func(g *Generator) { g.Literal(5); g.Literal(3); g.Add() },
		"fuse":  func(g *Generator) { g.Literal(80); g.Add() },
		"chain": func(g *Generator) { g.Literal(1); g.Literal(2); g.Add(); g.Literal(3); g.Xor(); g.Add() },
		"calls": func(g *Generator) { g.Subroutine("a"); g.Call("b"); g.Return() },
	}
	for name, build := range programs {
		t.Run(name, func(t *testing.T) {
			g := New(DefaultOptions())
			build(g)
			g.Optimize()
			first := lines(g)
			rewrites := g.Rewrites()
			g.Optimize()
			if !reflect.DeepEqual(lines(g), first) || g.Rewrites() != rewrites {
				t.Errorf("second optimize changed the listing:\n%v\n%v", first, lines(g))
			}
		})
	}
}

func TestOptimizeChainFolds(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(1)
	g.Literal(2)
	g.Add()
	g.Optimize()
	g.Literal(3)
	g.Xor()
	g.Optimize()
	expectLines(t, g, "ori X5, X0, 0")
}
