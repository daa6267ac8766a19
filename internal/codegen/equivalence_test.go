package codegen

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tangzhangming/stackrv/internal/sim"
)

// session 同一操作序列分别驱动优化与不优化的生成器，并记录下来供参考解释器重放
type session struct {
	gens  [2]*Generator
	conds [2][]*Cond
	trace []refOp
}

func newSession() *session {
	return &session{gens: [2]*Generator{
		New(Options{Optimize: false}),
		New(Options{Optimize: true}),
	}}
}

func (s *session) each(op func(g *Generator)) {
	for _, g := range s.gens {
		op(g)
	}
}

// do 记录一个操作并发给两个生成器
func (s *session) do(op refOp) {
	s.trace = append(s.trace, op)
	switch op.name {
	case "if":
		for i, g := range s.gens {
			s.conds[i] = append(s.conds[i], g.If())
		}
	case "then":
		for i := range s.gens {
			n := len(s.conds[i])
			s.conds[i][n-1].Then()
			s.conds[i] = s.conds[i][:n-1]
		}
	default:
		s.each(op.emit)
	}
}

// scratch 随机取存使用的内存区域，远离数据栈与控制栈
const scratch = 0x400

// randomProgram 生成随机的直线代码与条件块
func randomProgram(s *session, rng *rand.Rand, steps int) {
	ref := s.gens[0]
	for i := 0; i < steps; i++ {
		// 寄存器将尽时先提交，保证任何操作都不会耗尽寄存器
		if ref.Free() < 3 {
			s.each((*Generator).Commit)
			continue
		}

		switch k := rng.Intn(20); k {
		case 0, 1, 2, 3:
			s.do(refOp{name: "lit", n: rng.Int63n(10001) - 5000})
		case 4, 5:
			s.do(refOp{name: "+"})
		case 6, 7, 8, 9, 10, 11, 12, 16, 17:
			s.do(refOp{name: map[int]string{
				6: "xor", 7: "and", 8: "dup", 9: "over", 10: "swap",
				11: "drop", 12: "nip", 16: ">r", 17: "r>",
			}[k]})
		case 13:
			if rng.Intn(2) == 0 {
				s.do(refOp{name: "2*"})
			} else {
				s.do(refOp{name: "2/"})
			}
		case 14:
			s.do(refOp{name: "lit", n: int64(scratch + 8*rng.Intn(16))})
			s.do(refOp{name: "@"})
		case 15:
			s.do(refOp{name: "lit", n: int64(scratch + 8*rng.Intn(16))})
			s.do(refOp{name: "!"})
		case 18:
			s.do(refOp{name: "if"})
		case 19:
			if len(s.conds[0]) > 0 {
				s.do(refOp{name: "then"})
			}
		}

		// 优化时机不影响语义
		if rng.Intn(4) == 0 {
			s.gens[1].Optimize()
		}
	}
	for len(s.conds[0]) > 0 {
		s.do(refOp{name: "then"})
	}
}

// ============================================================================
// 参考解释器
// ============================================================================

// refOp 栈机操作
type refOp struct {
	name string
	n    int64
}

func (op refOp) emit(g *Generator) {
	switch op.name {
	case "lit":
		g.Literal(op.n)
	case "+":
		g.Add()
	case "xor":
		g.Xor()
	case "and":
		g.And()
	case "dup":
		g.Dup()
	case "over":
		g.Over()
	case "swap":
		g.Swap()
	case "drop":
		g.Drop()
	case "nip":
		g.Nip()
	case ">r":
		g.Push()
	case "r>":
		g.Pop()
	case "2*":
		g.Mul2()
	case "2/":
		g.Div2()
	case "@":
		g.Fetch()
	case "!":
		g.Store()
	}
}

// refPad 两个栈底下预留的零，对应机器上从未写过的内存
const refPad = 64

// interpret 直接按栈机语义执行操作序列，栈顶在切片末尾
func interpret(trace []refOp, input []int64) outcome {
	data := make([]int64, refPad, refPad+len(input)+len(trace))
	for i := len(input) - 1; i >= 0; i-- {
		data = append(data, input[i])
	}
	ctl := make([]int64, refPad)
	mem := make(map[int64]int64)

	pop := func(st *[]int64) int64 {
		v := (*st)[len(*st)-1]
		*st = (*st)[:len(*st)-1]
		return v
	}
	push := func(st *[]int64, v int64) { *st = append(*st, v) }

	for pc := 0; pc < len(trace); pc++ {
		switch op := trace[pc]; op.name {
		case "lit":
			push(&data, op.n)
		case "+", "xor", "and":
			b, a := pop(&data), pop(&data)
			switch op.name {
			case "+":
				push(&data, a+b)
			case "xor":
				push(&data, a^b)
			default:
				push(&data, a&b)
			}
		case "dup":
			push(&data, data[len(data)-1])
		case "over":
			push(&data, data[len(data)-2])
		case "swap":
			n := len(data)
			data[n-1], data[n-2] = data[n-2], data[n-1]
		case "drop":
			pop(&data)
		case "nip":
			b := pop(&data)
			pop(&data)
			push(&data, b)
		case ">r":
			push(&ctl, pop(&data))
		case "r>":
			push(&data, pop(&ctl))
		case "2*":
			push(&data, pop(&data)<<1)
		case "2/":
			push(&data, pop(&data)>>1)
		case "@":
			push(&data, mem[pop(&data)])
		case "!":
			addr := pop(&data)
			mem[addr] = pop(&data)
		case "if":
			if pop(&data) != 0 {
				continue
			}
			for depth := 1; depth > 0; {
				pc++
				switch trace[pc].name {
				case "if":
					depth++
				case "then":
					depth--
				}
			}
		}
	}

	n := len(input) + 8
	stack := make([]int64, n)
	for i := range stack {
		stack[i] = data[len(data)-1-i]
	}
	return outcome{
		stack:   stack,
		depth:   len(data) - refPad - len(input),
		control: len(ctl) - refPad,
		memory:  mem,
	}
}

// scratchOnly 只保留随机取存区域的内存
func scratchOnly(o outcome) outcome {
	mem := make(map[int64]int64)
	for a, v := range o.memory {
		if a >= scratch && a < scratch+8*16 {
			mem[a] = v
		}
	}
	o.memory = mem
	return o
}

type outcome struct {
	stack   []int64
	depth   int
	control int
	memory  map[int64]int64
}

func execute(t *testing.T, g *Generator, input []int64) outcome {
	t.Helper()
	m, err := sim.Load(g.Instructions(), g.Pool())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m.SetStack(input...)
	if err := m.Run(""); err != nil {
		t.Fatalf("run: %v\n%s", err, g.Listing())
	}
	return outcome{
		stack:   m.Stack(len(input) + 8),
		depth:   m.Depth(),
		control: m.ControlDepth(),
		memory:  m.DataMemory(),
	}
}

func TestOptimizedEquivalentToUnoptimized(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	input := make([]int64, 16)

	for round := 0; round < 300; round++ {
		s := newSession()
		randomProgram(s, rng, 10+rng.Intn(25))
		for _, g := range s.gens {
			if err := g.Finish(); err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
		}

		for i := range input {
			input[i] = rng.Int63n(2001) - 1000
		}
		plain := execute(t, s.gens[0], input)
		opt := execute(t, s.gens[1], input)
		if !reflect.DeepEqual(plain, opt) {
			t.Fatalf("round %d: results differ\nplain: %+v\nopt:   %+v\nunoptimized:\n%s\noptimized:\n%s",
				round, plain, opt, s.gens[0].Listing(), s.gens[1].Listing())
		}
		if len(s.gens[1].Instructions()) > len(s.gens[0].Instructions()) {
			t.Errorf("round %d: optimized listing is longer", round)
		}
	}
}

func TestMatchesReferenceInterpreter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input := make([]int64, 16)

	for round := 0; round < 300; round++ {
		s := newSession()
		randomProgram(s, rng, 10+rng.Intn(25))
		for _, g := range s.gens {
			if err := g.Finish(); err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
		}

		for i := range input {
			input[i] = rng.Int63n(7) - 3 // 小值让条件块两条路径都能走到
		}
		want := interpret(s.trace, input)
		for _, g := range s.gens {
			got := scratchOnly(execute(t, g, input))
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round %d (optimize=%v): machine and reference differ\nmachine:   %+v\nreference: %+v\n%s",
					round, g.opts.Optimize, got, want, g.Listing())
			}
		}
	}
}

func TestReferenceInterpreterSkipsNestedBlocks(t *testing.T) {
	trace := []refOp{
		{name: "lit", n: 0}, {name: "if"},
		{name: "lit", n: 1}, {name: "if"}, {name: "lit", n: 9}, {name: "then"},
		{name: "then"},
		{name: "lit", n: 5},
	}
	got := interpret(trace, nil)
	if got.depth != 1 || got.stack[0] != 5 {
		t.Errorf("outcome = %+v", got)
	}
}
