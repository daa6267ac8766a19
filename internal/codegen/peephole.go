package codegen

import (
	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/isa"
)

// ============================================================================
// 窥孔优化
// ============================================================================

// rule 一条尾部改写规则。规则只看指令缓冲末尾 window 条指令，
// 匹配时就地改写并返回 true。删除某个寄存器的写入前必须确认该寄存器
// 已被重新定义或不再持有栈上的值。
type rule struct {
	name   string
	window int
	apply  func(g *Generator, w []isa.Inst) bool
}

// rules 按优先级排列，每一步只应用第一条匹配的规则
var rules = []rule{
	{"fold-constants", 3, (*Generator).foldConstants},
	{"fuse-immediate", 2, (*Generator).fuseImmediate},
	{"move-into-memory", 2, (*Generator).moveIntoMemory},
	{"move-into-alu", 2, (*Generator).moveIntoALU},
	{"tail-call", 2, (*Generator).tailCall},
	{"compare-branch", 2, (*Generator).compareBranch},
}

// Optimize 反复改写指令缓冲尾部直到没有规则可用
func (g *Generator) Optimize() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.optimize()
}

func (g *Generator) optimize() {
	if !g.opts.Optimize {
		return
	}
	for g.optimizeStep() {
	}
}

// optimizeStep 尝试一次改写。每条规则都严格减少指令数，因此必然到达不动点
func (g *Generator) optimizeStep() bool {
	for _, r := range rules {
		if len(g.insts) < r.window {
			continue
		}
		if r.apply(g, g.insts[len(g.insts)-r.window:]) {
			g.rewrites++
			g.log.Debug("peephole", zap.String("rule", r.name), zap.Int("insts", len(g.insts)))
			return true
		}
	}
	return false
}

// 模式1: ori A, X0, a; ori B, X0, b; op D, A, B  =>  装载常量 a op b 到 D
func (g *Generator) foldConstants(w []isa.Inst) bool {
	if !isa.IsSmallConst(w[0]) || !isa.IsSmallConst(w[1]) {
		return false
	}
	a, b := w[0].(isa.ImmOp), w[1].(isa.ImmOp)
	c, ok := w[2].(isa.RegOp)
	if !ok || a.Rd == b.Rd {
		return false
	}
	if _, ok := c.Opcode.Immediate(); !ok {
		return false
	}

	var x, y int64
	switch {
	case c.Rs1 == a.Rd && c.Rs2 == b.Rd:
		x, y = a.Imm, b.Imm
	case c.Rs1 == b.Rd && c.Rs2 == a.Rd:
		x, y = b.Imm, a.Imm
	default:
		return false
	}
	if !g.deadAfter(a.Rd, c.Rd) || !g.deadAfter(b.Rd, c.Rd) {
		return false
	}

	g.truncate(3)
	g.loadConstant(c.Rd, c.Opcode.Eval(x, y))
	return true
}

// 模式2: ori R, X0, k; op D, R, S  =>  opi D, S, k
func (g *Generator) fuseImmediate(w []isa.Inst) bool {
	if !isa.IsSmallConst(w[0]) {
		return false
	}
	k := w[0].(isa.ImmOp)
	c, ok := w[1].(isa.RegOp)
	if !ok {
		return false
	}
	immOp, ok := c.Opcode.Immediate()
	if !ok {
		return false
	}

	var other isa.Reg
	switch {
	case c.Rs1 == k.Rd && c.Rs2 != k.Rd:
		other = c.Rs2
	case c.Rs2 == k.Rd && c.Rs1 != k.Rd:
		other = c.Rs1
	default:
		return false
	}
	if !g.deadAfter(k.Rd, c.Rd) {
		return false
	}

	g.truncate(2)
	g.emit(isa.ImmOp{Opcode: immOp, Rd: c.Rd, Rs: other, Imm: k.Imm})
	return true
}

// 模式3: ori R, S, 0; ld D, off(R)  =>  ld D, off(S)
//
//	ori R, S, 0; sd R, off(B) 或 sd V, off(R)  =>  用 S 代替 R
func (g *Generator) moveIntoMemory(w []isa.Inst) bool {
	if !isa.IsMove(w[0]) {
		return false
	}
	m := w[0].(isa.ImmOp)

	switch i := w[1].(type) {
	case isa.Load:
		if i.Base != m.Rd || !g.deadAfter(m.Rd, i.Rd) {
			return false
		}
		g.truncate(2)
		g.emit(isa.Load{Rd: i.Rd, Off: i.Off, Base: m.Rs})
		return true

	case isa.Store:
		if i.Base != m.Rd && i.Rs != m.Rd {
			return false
		}
		if g.isLive(m.Rd) {
			return false
		}
		if i.Base == m.Rd {
			i.Base = m.Rs
		}
		if i.Rs == m.Rd {
			i.Rs = m.Rs
		}
		g.truncate(2)
		g.emit(i)
		return true
	}
	return false
}

// 模式4: ori R, S, 0; op D, R, X  =>  op D, S, X
func (g *Generator) moveIntoALU(w []isa.Inst) bool {
	if !isa.IsMove(w[0]) {
		return false
	}
	m := w[0].(isa.ImmOp)
	c, ok := w[1].(isa.RegOp)
	if !ok {
		return false
	}
	if c.Rs1 != m.Rd && c.Rs2 != m.Rd {
		return false
	}
	if !g.deadAfter(m.Rd, c.Rd) {
		return false
	}

	if c.Rs1 == m.Rd {
		c.Rs1 = m.Rs
	}
	if c.Rs2 == m.Rd {
		c.Rs2 = m.Rs
	}
	g.truncate(2)
	g.emit(c)
	return true
}

// 模式5: jal X1, L; jalr X0, 0(X1)  =>  jal X0, L
func (g *Generator) tailCall(w []isa.Inst) bool {
	call, ok := w[0].(isa.Jal)
	if !ok || call.Rd != isa.RA {
		return false
	}
	ret, ok := w[1].(isa.Jalr)
	if !ok || ret.Rd != isa.Zero || ret.Base != isa.RA || ret.Off != 0 {
		return false
	}

	g.truncate(2)
	g.emit(isa.Jal{Rd: isa.Zero, Target: call.Target})
	return true
}

// 模式6: xor R, A, B; beq R, X0, L  =>  beq A, B, L
func (g *Generator) compareBranch(w []isa.Inst) bool {
	x, ok := w[0].(isa.RegOp)
	if !ok || x.Opcode != isa.OpXor {
		return false
	}
	br, ok := w[1].(isa.Beq)
	if !ok {
		return false
	}
	if !(br.Rs1 == x.Rd && br.Rs2 == isa.Zero) && !(br.Rs1 == isa.Zero && br.Rs2 == x.Rd) {
		return false
	}
	if g.isLive(x.Rd) {
		return false
	}

	g.truncate(2)
	g.emit(isa.Beq{Rs1: x.Rs1, Rs2: x.Rs2, Target: br.Target})
	return true
}
