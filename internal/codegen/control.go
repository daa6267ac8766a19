package codegen

import (
	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/i18n"
	"github.com/tangzhangming/stackrv/internal/isa"
)

// ============================================================================
// 子程序与调用
// ============================================================================

// Subroutine 开始一个子程序：提交当前状态后放置入口标签
func (g *Generator) Subroutine(name string) {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.transfer()
	g.assertCommitted("subroutine " + name)
	g.emit(isa.Label{Name: name})
	g.current = name
	g.log.Debug("subroutine", zap.String("name", name))
}

// Return 从当前子程序返回
func (g *Generator) Return() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.transfer()
	g.assertCommitted("return")
	g.emit(isa.Jalr{Rd: isa.Zero, Off: 0, Base: isa.RA})
	g.optimize()
}

// Call 调用子程序。返回地址保存在 RA，被调用者不负责保护调用者的 RA
func (g *Generator) Call(name string) {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.call(name)
}

// Recurse 调用当前子程序
func (g *Generator) Recurse() {
	if g.err != nil {
		return
	}
	defer g.guard()
	if g.current == "" {
		g.fail(errors.New(errors.G0004))
	}
	g.call(g.current)
}

func (g *Generator) call(name string) {
	g.transfer()
	g.assertCommitted("call " + name)
	g.emit(isa.Jal{Rd: isa.RA, Target: name})
}

// ============================================================================
// 条件块
// ============================================================================

// Cond 一个未关闭的条件块。只能由创建它的会话以后进先出的顺序关闭
type Cond struct {
	g       *Generator
	session int
	label   string
	closed  bool
}

// Label 条件为假时的跳转目标
func (c *Cond) Label() string {
	return c.label
}

// If 弹出栈顶作为条件，为零时跳过条件块直到对应的 Then
func (g *Generator) If() *Cond {
	c := &Cond{g: g, session: g.session}
	if g.err != nil {
		c.closed = true
		return c
	}
	defer g.guard()

	g.optimize()
	g.need(1)
	flag := g.pop()
	if flag == isa.DC {
		// 提交会重新装载 DC，先把条件复制出来
		t := g.alloc()
		g.emit(isa.ImmOp{Opcode: isa.OpOri, Rd: t, Rs: isa.DC, Imm: 0})
		flag = t
	}
	g.commit()
	g.assertCommitted("if")

	c.label = g.newLabel()
	g.conds = append(g.conds, c)
	g.emit(isa.Beq{Rs1: flag, Rs2: isa.Zero, Target: c.label})
	g.release(flag)
	g.optimize()
	return c
}

// Then 关闭条件块并放置跳转目标
func (c *Cond) Then() {
	g := c.g
	if g.err != nil {
		return
	}
	defer g.guard()

	if c.closed || c.session != g.session {
		g.fail(errors.NewMsg(errors.G0002, i18n.ErrCondClosed, c.label))
	}
	if n := len(g.conds); n == 0 || g.conds[n-1] != c {
		inner := ""
		if n > 0 {
			inner = g.conds[n-1].label
		}
		g.fail(errors.NewMsg(errors.G0002, i18n.ErrCondNotInnermost, c.label, inner))
	}

	g.transfer()
	g.assertCommitted("then")
	g.emit(isa.Label{Name: c.label})
	g.conds = g.conds[:len(g.conds)-1]
	c.closed = true
}

// Open 未关闭的条件块数量
func (g *Generator) Open() int {
	return len(g.conds)
}

// ============================================================================
// 结束
// ============================================================================

// Finish 结束会话：检查条件块已全部关闭，并做最终的提交与优化
func (g *Generator) Finish() error {
	if g.err == nil {
		g.finish()
	}
	return g.err
}

func (g *Generator) finish() {
	defer g.guard()
	if n := len(g.conds); n > 0 {
		g.fail(errors.NewMsg(errors.G0002, i18n.ErrOpenConditionals, n))
	}
	g.transfer()
}
