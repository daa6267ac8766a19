// Package isa 描述代码生成器面向的 RISC 风格目标机：寄存器文件与指令变体
package isa

import "fmt"

// ============================================================================
// 寄存器
// ============================================================================

// Reg 目标机寄存器编号（X0..X31）
type Reg uint8

// 固定寄存器分配
const (
	Zero Reg = 0  // 恒零寄存器
	RA   Reg = 1  // 返回地址
	RSP  Reg = 2  // 控制栈（返回栈）指针
	DC   Reg = 3  // 数据栈栈顶缓存
	DSP  Reg = 4  // 数据栈指针
	D0   Reg = 5  // 可分配临时寄存器 D0..D7
	D1   Reg = 6
	D2   Reg = 7
	D3   Reg = 8
	D4   Reg = 9
	D5   Reg = 10
	D6   Reg = 11
	D7   Reg = 12
	GP   Reg = 31 // 常量池基址
)

// NumRegs 寄存器总数
const NumRegs = 32

// Temporaries 可分配寄存器池，按分配优先级排列
var Temporaries = [...]Reg{D0, D1, D2, D3, D4, D5, D6, D7}

// String 返回寄存器的汇编文本，如 X5
func (r Reg) String() string {
	return fmt.Sprintf("X%d", uint8(r))
}

// IsTemporary 是否属于可分配寄存器池
func (r Reg) IsTemporary() bool {
	return r >= D0 && r <= D7
}

// Name 返回寄存器的角色名（调试与悬停提示用）
func (r Reg) Name() string {
	switch r {
	case Zero:
		return "zero"
	case RA:
		return "ra"
	case RSP:
		return "rsp"
	case DC:
		return "dc"
	case DSP:
		return "dsp"
	case GP:
		return "gp"
	}
	if r.IsTemporary() {
		return fmt.Sprintf("d%d", r-D0)
	}
	return r.String()
}

// ============================================================================
// 立即数范围
// ============================================================================

const (
	// Imm12Min 12 位有符号立即数下界
	Imm12Min = -2048
	// Imm12Max 12 位有符号立即数上界（含）
	Imm12Max = 2047
	// WordSize 数据栈单元字节数
	WordSize = 8
)

// FitsImm12 判断 n 是否可以直接编码为 12 位有符号立即数
func FitsImm12(n int64) bool {
	return n >= Imm12Min && n <= Imm12Max
}
