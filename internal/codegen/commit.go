package codegen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/isa"
)

// ============================================================================
// 提交
// ============================================================================

// Commit 把缓存状态写回内存，使栈进入规范形式：
// 栈顶在 DC，其余元素在 DSP 指向的内存中，偏移为零，控制栈全部在内存中。
func (g *Generator) Commit() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.commit()
}

func (g *Generator) commit() {
	n := len(g.dstack)

	// 栈顶以下的寄存器自底向上写回
	for i := 0; i < n-1; i++ {
		r := g.dstack[i]
		g.dspOffset -= isa.WordSize
		g.emit(isa.Store{Rs: r, Off: g.dspOffset, Base: isa.DSP})
		g.release(r)
	}

	// 栈顶规范到 DC
	if n > 0 {
		if top := g.dstack[n-1]; top != isa.DC {
			g.emit(isa.ImmOp{Opcode: isa.OpOri, Rd: isa.DC, Rs: top, Imm: 0})
			g.release(top)
		}
	} else {
		g.emit(isa.Load{Rd: isa.DC, Off: g.dspOffset, Base: isa.DSP})
		g.dspOffset += isa.WordSize
	}

	if g.dspOffset != 0 {
		g.emit(isa.ImmOp{Opcode: isa.OpAddi, Rd: isa.DSP, Rs: isa.DSP, Imm: g.dspOffset})
		g.dspOffset = 0
	}
	g.dstack = append(g.dstack[:0], isa.DC)

	// 控制栈同样自底向上写回
	for _, r := range g.rstack {
		g.rspOffset -= isa.WordSize
		g.emit(isa.Store{Rs: r, Off: g.rspOffset, Base: isa.RSP})
		g.release(r)
	}
	if g.rspOffset != 0 {
		g.emit(isa.ImmOp{Opcode: isa.OpAddi, Rd: isa.RSP, Rs: isa.RSP, Imm: g.rspOffset})
		g.rspOffset = 0
	}
	g.rstack = g.rstack[:0]

	g.log.Debug("commit", zap.Int("flushed", n-1), zap.Int("free", len(g.free)))
}

// assertCommitted 控制转移前必须处于规范形式
func (g *Generator) assertCommitted(at string) {
	if g.Committed() {
		return
	}
	state := fmt.Sprintf("%s: cached=%v offset=%d control=%v control_offset=%d",
		at, g.Cached(), g.dspOffset, g.Control(), g.rspOffset)
	g.fail(errors.New(errors.G0003, state))
}

// transfer 控制转移前的统一序列：优化、提交、再优化
func (g *Generator) transfer() {
	g.optimize()
	g.commit()
	g.optimize()
}
