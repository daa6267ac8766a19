// Package codegen 把栈机操作流式地翻译为 RISC 风格的寄存器机指令。
//
// 生成器把数据栈顶部惰性地缓存在临时寄存器中，只在控制转移前把缓存
// 提交到内存（commit），并在已生成指令的尾部反复应用窥孔改写直到不动点。
// 一次生成会话从 Reset 开始，调用方按栈机执行顺序逐个发出操作，
// 最后读出指令序列与常量池。
//
// 生成器不是并发安全的。
package codegen

import (
	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/isa"
)

// ============================================================================
// 配置
// ============================================================================

// Options 生成器配置
type Options struct {
	// Optimize 是否启用窥孔优化；关闭时 Optimize 为空操作
	Optimize bool

	// Logger 调试日志，nil 时不输出
	Logger *zap.Logger
}

// Revision 生成规则版本。窥孔规则、常量池布局或提交序列改变时递增，
// 清单缓存以此判断旧结果是否可用
const Revision = "1"

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{Optimize: true}
}

// ============================================================================
// 生成器
// ============================================================================

// Generator 代码生成会话
type Generator struct {
	opts Options
	log  *zap.Logger

	insts []isa.Inst // 已生成指令
	pool  ConstPool  // 常量池
	base  poolBase   // 当前常量池基址

	dstack    []isa.Reg // 数据栈缓存，栈顶在末尾
	rstack    []isa.Reg // 控制栈缓存，栈顶在末尾
	free      []isa.Reg // 空闲临时寄存器，下一个分配的在末尾
	dspOffset int64     // 未缓存部分相对 DSP 的字节偏移
	rspOffset int64     // 控制栈未缓存部分相对 RSP 的字节偏移

	conds    []*Cond // 未关闭的条件块
	labelSeq int     // 标签计数器
	current  string  // 当前子程序名
	session  int     // 会话编号，Reset 时递增

	rewrites int   // 窥孔改写次数
	err      error // 首个致命错误
}

// poolBase 常量池基址寄存器的状态
type poolBase struct {
	valid bool
	pc    int64 // auipc 指令的地址（相对代码起点）
}

// New 创建生成器并开始第一个会话
func New(opts Options) *Generator {
	g := &Generator{opts: opts, log: opts.Logger}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	g.Reset()
	return g
}

// Reset 开始新的生成会话，丢弃之前的全部状态（包括错误）
func (g *Generator) Reset() {
	g.insts = nil
	g.pool = ConstPool{}
	g.base = poolBase{}
	g.dstack = append(g.dstack[:0], isa.DC)
	g.rstack = g.rstack[:0]
	g.free = g.free[:0]
	for i := len(isa.Temporaries) - 1; i >= 0; i-- {
		g.free = append(g.free, isa.Temporaries[i])
	}
	g.dspOffset = 0
	g.rspOffset = 0
	g.conds = nil
	g.labelSeq = 0
	g.current = ""
	g.session++
	g.rewrites = 0
	g.err = nil
	g.log.Debug("session reset", zap.Int("session", g.session))
}

// ============================================================================
// 致命错误
// ============================================================================

// fatal 致命错误的 panic 载荷，只在本包内流动
type fatal struct {
	err error
}

// fail 中止当前操作
func (g *Generator) fail(d *errors.Diagnostic) {
	panic(fatal{err: d})
}

// guard 在公开操作边界恢复致命错误并记录为会话错误
func (g *Generator) guard() {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(fatal)
	if !ok {
		panic(r)
	}
	if g.err == nil {
		g.err = f.err
		g.log.Debug("session aborted", zap.Error(f.err))
	}
}

// Err 返回中止会话的错误；会话出错后所有操作都不再生效
func (g *Generator) Err() error {
	return g.err
}

// ============================================================================
// 寄存器分配
// ============================================================================

// alloc 从空闲池前端取出一个临时寄存器，耗尽即致命
func (g *Generator) alloc() isa.Reg {
	n := len(g.free)
	if n == 0 {
		g.fail(errors.New(errors.G0001, len(isa.Temporaries)))
	}
	r := g.free[n-1]
	g.free = g.free[:n-1]
	return r
}

// release 把寄存器放回空闲池前端；DC 等固定寄存器不进入空闲池
func (g *Generator) release(r isa.Reg) {
	if r.IsTemporary() {
		g.free = append(g.free, r)
	}
}

// isLive 寄存器是否仍持有栈上的值
func (g *Generator) isLive(r isa.Reg) bool {
	for _, x := range g.dstack {
		if x == r {
			return true
		}
	}
	for _, x := range g.rstack {
		if x == r {
			return true
		}
	}
	return false
}

// deadAfter 删除 r 的定义后是否安全：r 被重新定义，或之后不再使用
func (g *Generator) deadAfter(r, redefined isa.Reg) bool {
	return r == redefined || !g.isLive(r)
}

// ============================================================================
// 指令缓冲
// ============================================================================

// emit 追加一条指令。标签与带链接的调用之后常量池基址失效
func (g *Generator) emit(i isa.Inst) {
	g.insts = append(g.insts, i)
	switch i := i.(type) {
	case isa.Label:
		g.base.valid = false
	case isa.Jal:
		if i.Rd != isa.Zero {
			g.base.valid = false
		}
	}
}

// truncate 删除尾部 n 条指令
func (g *Generator) truncate(n int) {
	g.insts = g.insts[:len(g.insts)-n]
}

// pc 下一条指令的地址（相对代码起点，标签不占空间）
func (g *Generator) pc() int64 {
	var n int64
	for _, i := range g.insts {
		if isa.Encoded(i) {
			n++
		}
	}
	return n * 4
}

// loadConstant 把常量装入指定寄存器：小常量用 ori，其余放入常量池
func (g *Generator) loadConstant(rd isa.Reg, n int64) {
	if isa.FitsImm12(n) {
		g.emit(isa.ImmOp{Opcode: isa.OpOri, Rd: rd, Rs: isa.Zero, Imm: n})
		return
	}
	slot := g.pool.Intern(n)
	if !g.base.valid {
		pc := g.pc()
		g.emit(isa.Auipc{Rd: isa.GP, Imm: 0})
		g.base = poolBase{valid: true, pc: pc}
	}
	disp := -isa.WordSize*int64(slot) - g.base.pc
	if !isa.FitsImm12(disp) {
		g.fail(errors.New(errors.G0005, slot, disp))
	}
	g.emit(isa.Load{Rd: rd, Off: disp, Base: isa.GP})
}

// newLabel 分配会话内唯一的局部标签
func (g *Generator) newLabel() string {
	l := localLabel(g.labelSeq)
	g.labelSeq++
	return l
}

// ============================================================================
// 只读视图
// ============================================================================

// Instructions 返回已生成指令的副本
func (g *Generator) Instructions() []isa.Inst {
	out := make([]isa.Inst, len(g.insts))
	copy(out, g.insts)
	return out
}

// Pool 按清单顺序（最新在前）返回常量池
func (g *Generator) Pool() []int64 {
	return g.pool.Values()
}

// Cached 返回数据栈缓存寄存器，栈顶在前
func (g *Generator) Cached() []isa.Reg {
	return reversed(g.dstack)
}

// Control 返回控制栈缓存寄存器，栈顶在前
func (g *Generator) Control() []isa.Reg {
	return reversed(g.rstack)
}

// Offset 数据栈未缓存部分相对 DSP 的字节偏移
func (g *Generator) Offset() int64 {
	return g.dspOffset
}

// ControlOffset 控制栈未缓存部分相对 RSP 的字节偏移
func (g *Generator) ControlOffset() int64 {
	return g.rspOffset
}

// Free 空闲临时寄存器数量
func (g *Generator) Free() int {
	return len(g.free)
}

// Current 当前子程序名
func (g *Generator) Current() string {
	return g.current
}

// Rewrites 本会话窥孔改写次数
func (g *Generator) Rewrites() int {
	return g.rewrites
}

// Committed 当前是否处于提交后的规范状态
func (g *Generator) Committed() bool {
	return len(g.dstack) == 1 && g.dstack[0] == isa.DC && g.dspOffset == 0 &&
		len(g.rstack) == 0 && g.rspOffset == 0
}

func reversed(regs []isa.Reg) []isa.Reg {
	out := make([]isa.Reg, len(regs))
	for i, r := range regs {
		out[len(regs)-1-i] = r
	}
	return out
}
