package codegen

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/isa"
)

// lines 把指令渲染成去掉缩进的文本，便于比较
func lines(g *Generator) []string {
	var out []string
	for _, i := range g.Instructions() {
		s := strings.TrimSpace(strings.ReplaceAll(i.String(), "\t", " "))
		out = append(out, s)
	}
	return out
}

func expectLines(t *testing.T, g *Generator, want ...string) {
	t.Helper()
	got := lines(g)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("instructions mismatch\ngot:\n  %s\nwant:\n  %s",
			strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

func expectNoErr(t *testing.T, g *Generator) {
	t.Helper()
	if err := g.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectCode(t *testing.T, g *Generator, code string) {
	t.Helper()
	if got := errors.CodeOf(g.Err()); got != code {
		t.Fatalf("expected error %s, got %q (%v)", code, got, g.Err())
	}
}

func unoptimized() *Generator {
	return New(Options{Optimize: false})
}

// ============================================================================
// 栈操作
// ============================================================================

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want []string
	}{
		{"zero", 0, []string{"ori X5, X0, 0"}},
		{"positive", 2047, []string{"ori X5, X0, 2047"}},
		{"negative", -2048, []string{"ori X5, X0, -2048"}},
		{"large", 2048, []string{"auipc X31, 0", "ld X5, -8(X31)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultOptions())
			g.Literal(tt.n)
			expectNoErr(t, g)
			expectLines(t, g, tt.want...)
			if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D0, isa.DC}) {
				t.Errorf("cached = %v", got)
			}
		})
	}
}

func TestBinaryOps(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Generator)
		want string
	}{
		{"add", (*Generator).Add, "add X5, X5, X6"},
		{"xor", (*Generator).Xor, "xor X5, X5, X6"},
		{"and", (*Generator).And, "and X5, X5, X6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := unoptimized()
			g.Literal(1)
			g.Literal(2)
			tt.op(g)
			expectNoErr(t, g)
			expectLines(t, g, "ori X5, X0, 1", "ori X6, X0, 2", tt.want)
			if g.Free() != len(isa.Temporaries)-1 {
				t.Errorf("free = %d", g.Free())
			}
		})
	}
}

func TestBindFromMemory(t *testing.T) {
	g := unoptimized()
	g.Drop() // DC 出栈，缓存为空
	g.Add()
	expectNoErr(t, g)
	expectLines(t, g,
		"ld X5, 0(X4)",
		"ld X6, 8(X4)",
		"add X6, X6, X5",
	)
	if g.Offset() != 16 {
		t.Errorf("offset = %d, want 16", g.Offset())
	}
	if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D1}) {
		t.Errorf("cached = %v", got)
	}
}

func TestStackShuffles(t *testing.T) {
	g := unoptimized()
	g.Literal(1)
	g.Literal(2)
	g.Swap()
	if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D0, isa.D1, isa.DC}) {
		t.Fatalf("after swap cached = %v", got)
	}
	g.Over()
	g.Dup()
	expectNoErr(t, g)
	expectLines(t, g,
		"ori X5, X0, 1",
		"ori X6, X0, 2",
		"ori X7, X6, 0",
		"ori X8, X7, 0",
	)

	g.Drop()
	g.Nip()
	expectNoErr(t, g)
	if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D2, isa.D1, isa.DC}) {
		t.Errorf("after nip cached = %v", got)
	}
}

func TestDropUncached(t *testing.T) {
	g := New(DefaultOptions())
	g.Drop()
	g.Drop()
	g.Drop()
	expectNoErr(t, g)
	if g.Offset() != 16 {
		t.Errorf("offset = %d, want 16", g.Offset())
	}
	if len(g.Instructions()) != 0 {
		t.Errorf("drop emitted code: %v", lines(g))
	}
}

func TestFetchStoreShift(t *testing.T) {
	g := unoptimized()
	g.Fetch()
	g.Mul2()
	g.Div2()
	g.Literal(64)
	g.Store()
	expectNoErr(t, g)
	expectLines(t, g,
		"ld X3, 0(X3)",
		"slli X3, X3, 1",
		"srai X3, X3, 1",
		"ori X5, X0, 64",
		"sd X3, 0(X5)",
	)
	if len(g.Cached()) != 0 || g.Free() != len(isa.Temporaries) {
		t.Errorf("cached = %v free = %d", g.Cached(), g.Free())
	}
}

func TestControlStack(t *testing.T) {
	t.Run("push dc copies", func(t *testing.T) {
		g := unoptimized()
		g.Push()
		expectNoErr(t, g)
		expectLines(t, g, "ori X5, X3, 0")
		if got := g.Control(); !reflect.DeepEqual(got, []isa.Reg{isa.D0}) {
			t.Errorf("control = %v", got)
		}
		g.Pop()
		if got := g.Cached(); !reflect.DeepEqual(got, []isa.Reg{isa.D0}) {
			t.Errorf("cached = %v", got)
		}
	})

	t.Run("pop from memory", func(t *testing.T) {
		g := unoptimized()
		g.Pop()
		g.Pop()
		expectNoErr(t, g)
		expectLines(t, g, "ld X5, 0(X2)", "ld X6, 8(X2)")
		if g.ControlOffset() != 16 {
			t.Errorf("control offset = %d", g.ControlOffset())
		}
	})
}

func TestOutOfRegisters(t *testing.T) {
	g := New(DefaultOptions())
	for i := 0; i < len(isa.Temporaries)+1; i++ {
		g.Literal(int64(i))
	}
	expectCode(t, g, errors.G0001)
	n := len(g.Instructions())

	// 会话中止后操作不再生效
	g.Literal(1)
	g.Add()
	g.Optimize()
	if len(g.Instructions()) != n {
		t.Errorf("operations after error emitted code")
	}
	if err := g.Finish(); err == nil {
		t.Errorf("Finish should report the session error")
	}

	g.Reset()
	expectNoErr(t, g)
	g.Literal(1)
	expectNoErr(t, g)
}

// ============================================================================
// 提交
// ============================================================================

func TestCommitCanonicalForm(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Generator)
		want  []string
	}{
		{
			name:  "already committed",
			setup: func(g *Generator) {},
			want:  nil,
		},
		{
			name:  "empty cache",
			setup: func(g *Generator) { g.Drop(); g.Drop() },
			want:  []string{"ld X3, 8(X4)", "addi X4, X4, 16"},
		},
		{
			name:  "one register",
			setup: func(g *Generator) { g.Drop(); g.Literal(7) },
			want:  []string{"ori X5, X0, 7", "ori X3, X5, 0"},
		},
		{
			name: "four registers",
			setup: func(g *Generator) {
				g.Literal(1)
				g.Literal(2)
				g.Literal(3)
			},
			want: []string{
				"ori X5, X0, 1",
				"ori X6, X0, 2",
				"ori X7, X0, 3",
				"sd X3, -8(X4)",
				"sd X5, -16(X4)",
				"sd X6, -24(X4)",
				"ori X3, X7, 0",
				"addi X4, X4, -24",
			},
		},
		{
			name: "control stack",
			setup: func(g *Generator) {
				g.Literal(1)
				g.Push()
			},
			want: []string{
				"ori X5, X0, 1",
				"sd X5, -8(X2)",
				"addi X2, X2, -8",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := unoptimized()
			tt.setup(g)
			g.Commit()
			expectNoErr(t, g)
			expectLines(t, g, tt.want...)
			if !g.Committed() {
				t.Errorf("not committed: cached=%v offset=%d", g.Cached(), g.Offset())
			}
			if g.Free() != len(isa.Temporaries) {
				t.Errorf("free = %d after commit", g.Free())
			}
		})
	}
}

func TestCommitIdempotent(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(5)
	g.Literal(6)
	g.Commit()
	n := len(g.Instructions())
	g.Commit()
	if len(g.Instructions()) != n {
		t.Errorf("second commit emitted %v", lines(g)[n:])
	}
}

// ============================================================================
// 常量池
// ============================================================================

func TestConstantPool(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(100000)
	g.Literal(200000)
	g.Literal(100000)
	expectNoErr(t, g)
	expectLines(t, g,
		"auipc X31, 0",
		"ld X5, -8(X31)",
		"ld X6, -16(X31)",
		"ld X7, -8(X31)",
	)
	if got := g.Pool(); !reflect.DeepEqual(got, []int64{200000, 100000}) {
		t.Errorf("pool = %v", got)
	}
}

func TestConstantPoolBaseAfterCode(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(1)
	g.Literal(-3000)
	expectLines(t, g,
		"ori X5, X0, 1",
		"auipc X31, 0",
		"ld X6, -12(X31)",
	)
}

func TestConstantPoolBaseInvalidatedByLabel(t *testing.T) {
	g := New(DefaultOptions())
	g.Literal(5000)
	g.Subroutine("f")
	g.Literal(6000)
	expectNoErr(t, g)

	var auipc int
	for _, i := range g.Instructions() {
		if _, ok := i.(isa.Auipc); ok {
			auipc++
		}
	}
	if auipc != 2 {
		t.Errorf("expected a new pool base after the label, listing:\n%s", g.Listing())
	}
}

func TestConstantPoolOutOfReach(t *testing.T) {
	g := New(DefaultOptions())
	for i := 0; i < 300 && g.Err() == nil; i++ {
		g.Literal(1000000 + int64(i))
		g.Drop()
	}
	expectCode(t, g, errors.G0005)
}

func TestDump(t *testing.T) {
	g := New(DefaultOptions())
	g.Subroutine("main")
	g.Literal(99999)
	g.Return()
	want := "\tDD\t99999\n" +
		"\n" +
		"main:\n" +
		"\tauipc\tX31, 0\n" +
		"\tld\tX5, -8(X31)\n" +
		"\tsd\tX3, -8(X4)\n" +
		"\tori\tX3, X5, 0\n" +
		"\taddi\tX4, X4, -8\n" +
		"\tjalr\tX0, 0(X1)\n"
	if got := g.Listing(); got != want {
		t.Errorf("listing mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}
