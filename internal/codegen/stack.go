package codegen

import "github.com/tangzhangming/stackrv/internal/isa"

// ============================================================================
// 数据栈缓存
// ============================================================================

func (g *Generator) top() isa.Reg {
	return g.dstack[len(g.dstack)-1]
}

func (g *Generator) second() isa.Reg {
	return g.dstack[len(g.dstack)-2]
}

// push 把寄存器压为新的栈顶
func (g *Generator) push(r isa.Reg) {
	g.dstack = append(g.dstack, r)
}

// pop 弹出栈顶寄存器（不释放）
func (g *Generator) pop() isa.Reg {
	r := g.top()
	g.dstack = g.dstack[:len(g.dstack)-1]
	return r
}

// bind 把内存中的下一个元素装入新寄存器，放在缓存的最底部
func (g *Generator) bind() {
	r := g.alloc()
	g.dstack = append(g.dstack, 0)
	copy(g.dstack[1:], g.dstack)
	g.dstack[0] = r
	g.emit(isa.Load{Rd: r, Off: g.dspOffset, Base: isa.DSP})
	g.dspOffset += isa.WordSize
}

// need 保证至少缓存了 n 个元素
func (g *Generator) need(n int) {
	for len(g.dstack) < n {
		g.bind()
	}
}

// ============================================================================
// 栈操作
// ============================================================================

// Literal 压入整数常量
func (g *Generator) Literal(n int64) {
	if g.err != nil {
		return
	}
	defer g.guard()
	r := g.alloc()
	g.push(r)
	g.loadConstant(r, n)
}

// Add ( a b -- a+b )
func (g *Generator) Add() { g.binaryOp(isa.OpAdd) }

// Xor ( a b -- a^b )
func (g *Generator) Xor() { g.binaryOp(isa.OpXor) }

// And ( a b -- a&b )
func (g *Generator) And() { g.binaryOp(isa.OpAnd) }

// binaryOp 结果写入次栈顶寄存器，栈顶寄存器释放
func (g *Generator) binaryOp(op isa.Opcode) {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(2)
	rs := g.pop()
	rd := g.top()
	g.release(rs)
	g.emit(isa.RegOp{Opcode: op, Rd: rd, Rs1: rd, Rs2: rs})
}

// Mul2 ( a -- a*2 )
func (g *Generator) Mul2() { g.shiftOp(isa.OpSlli) }

// Div2 ( a -- a/2 )，算术右移
func (g *Generator) Div2() { g.shiftOp(isa.OpSrai) }

func (g *Generator) shiftOp(op isa.Opcode) {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(1)
	r := g.top()
	g.emit(isa.ImmOp{Opcode: op, Rd: r, Rs: r, Imm: 1})
}

// Fetch ( addr -- mem[addr] )
func (g *Generator) Fetch() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(1)
	r := g.top()
	g.emit(isa.Load{Rd: r, Off: 0, Base: r})
}

// Store ( value addr -- )
func (g *Generator) Store() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(2)
	addr := g.pop()
	value := g.pop()
	g.emit(isa.Store{Rs: value, Off: 0, Base: addr})
	g.release(addr)
	g.release(value)
}

// Dup ( a -- a a )
func (g *Generator) Dup() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(1)
	g.copyOf(g.top())
}

// Over ( a b -- a b a )
func (g *Generator) Over() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(2)
	g.copyOf(g.second())
}

// copyOf 把 src 复制到新分配的栈顶寄存器
func (g *Generator) copyOf(src isa.Reg) {
	r := g.alloc()
	g.push(r)
	g.emit(isa.ImmOp{Opcode: isa.OpOri, Rd: r, Rs: src, Imm: 0})
}

// Swap ( a b -- b a )，只交换寄存器名，不生成指令
func (g *Generator) Swap() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(2)
	n := len(g.dstack)
	g.dstack[n-1], g.dstack[n-2] = g.dstack[n-2], g.dstack[n-1]
}

// Drop ( a -- )
func (g *Generator) Drop() {
	if g.err != nil {
		return
	}
	defer g.guard()
	if len(g.dstack) == 0 {
		g.dspOffset += isa.WordSize
		return
	}
	g.release(g.pop())
}

// Nip ( a b -- b )
func (g *Generator) Nip() {
	g.Swap()
	g.Optimize()
	g.Drop()
	g.Optimize()
}

// ============================================================================
// 控制栈
// ============================================================================

// Push 把数据栈顶移到控制栈 ( a -- ) ( R: -- a )
func (g *Generator) Push() {
	if g.err != nil {
		return
	}
	defer g.guard()
	g.need(1)
	r := g.pop()
	if r == isa.DC {
		// DC 在提交时会被重新装载，不能留在控制栈上
		t := g.alloc()
		g.emit(isa.ImmOp{Opcode: isa.OpOri, Rd: t, Rs: isa.DC, Imm: 0})
		r = t
	}
	g.rstack = append(g.rstack, r)
}

// Pop 把控制栈顶移回数据栈 ( -- a ) ( R: a -- )
func (g *Generator) Pop() {
	if g.err != nil {
		return
	}
	defer g.guard()
	if n := len(g.rstack); n > 0 {
		r := g.rstack[n-1]
		g.rstack = g.rstack[:n-1]
		g.push(r)
		return
	}
	r := g.alloc()
	g.push(r)
	g.emit(isa.Load{Rd: r, Off: g.rspOffset, Base: isa.RSP})
	g.rspOffset += isa.WordSize
}
