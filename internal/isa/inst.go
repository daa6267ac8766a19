package isa

import (
	"fmt"
	"strings"
)

// ============================================================================
// 操作码
// ============================================================================

// Opcode 指令操作码
type Opcode int

const (
	OpAdd Opcode = iota
	OpXor
	OpAnd
	OpAddi
	OpOri
	OpXori
	OpAndi
	OpSlli
	OpSrai
	OpAuipc
	OpLd
	OpSd
	OpLabel
	OpJal
	OpJalr
	OpBeq
)

var mnemonics = [...]string{
	OpAdd:   "add",
	OpXor:   "xor",
	OpAnd:   "and",
	OpAddi:  "addi",
	OpOri:   "ori",
	OpXori:  "xori",
	OpAndi:  "andi",
	OpSlli:  "slli",
	OpSrai:  "srai",
	OpAuipc: "auipc",
	OpLd:    "ld",
	OpSd:    "sd",
	OpLabel: "label",
	OpJal:   "jal",
	OpJalr:  "jalr",
	OpBeq:   "beq",
}

// String 返回助记符
func (op Opcode) String() string {
	if op >= 0 && int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Immediate 返回寄存器-寄存器运算对应的立即数形式（add -> addi）
func (op Opcode) Immediate() (Opcode, bool) {
	switch op {
	case OpAdd:
		return OpAddi, true
	case OpXor:
		return OpXori, true
	case OpAnd:
		return OpAndi, true
	}
	return op, false
}

// Eval 对两个操作数求值（寄存器-寄存器与寄存器-立即数运算通用）
func (op Opcode) Eval(a, b int64) int64 {
	switch op {
	case OpAdd, OpAddi:
		return a + b
	case OpXor, OpXori:
		return a ^ b
	case OpAnd, OpAndi:
		return a & b
	case OpOri:
		return a | b
	case OpSlli:
		return a << uint(b&63)
	case OpSrai:
		return a >> uint(b&63)
	}
	panic(fmt.Sprintf("isa: %s is not an ALU opcode", op))
}

// ============================================================================
// 指令变体
// ============================================================================

// Inst 目标指令。变体集合是封闭的，窥孔规则通过类型分支匹配
type Inst interface {
	Op() Opcode
	String() string
	inst()
}

// RegOp 寄存器-寄存器运算：Rd = Rs1 op Rs2
type RegOp struct {
	Opcode Opcode
	Rd     Reg
	Rs1    Reg
	Rs2    Reg
}

// ImmOp 寄存器-立即数运算：Rd = Rs op Imm
type ImmOp struct {
	Opcode Opcode
	Rd     Reg
	Rs     Reg
	Imm    int64
}

// Auipc 常量池基址装载：Rd = pc + Imm<<12
type Auipc struct {
	Rd  Reg
	Imm int64
}

// Load 取字：Rd = mem[Base+Off]
type Load struct {
	Rd   Reg
	Off  int64
	Base Reg
}

// Store 存字：mem[Base+Off] = Rs
type Store struct {
	Rs   Reg
	Off  int64
	Base Reg
}

// Label 标签定义（伪指令，不占编码空间）
type Label struct {
	Name string
}

// Jal 跳转并链接：Rd = 返回地址，跳到 Target
type Jal struct {
	Rd     Reg
	Target string
}

// Jalr 寄存器间接跳转并链接，用于返回
type Jalr struct {
	Rd   Reg
	Off  int64
	Base Reg
}

// Beq 相等则跳转
type Beq struct {
	Rs1    Reg
	Rs2    Reg
	Target string
}

func (RegOp) inst() {}
func (ImmOp) inst() {}
func (Auipc) inst() {}
func (Load) inst()  {}
func (Store) inst() {}
func (Label) inst() {}
func (Jal) inst()   {}
func (Jalr) inst()  {}
func (Beq) inst()   {}

func (i RegOp) Op() Opcode { return i.Opcode }
func (i ImmOp) Op() Opcode { return i.Opcode }
func (Auipc) Op() Opcode   { return OpAuipc }
func (Load) Op() Opcode    { return OpLd }
func (Store) Op() Opcode   { return OpSd }
func (Label) Op() Opcode   { return OpLabel }
func (Jal) Op() Opcode     { return OpJal }
func (Jalr) Op() Opcode    { return OpJalr }
func (Beq) Op() Opcode     { return OpBeq }

// ============================================================================
// 文本表示
// ============================================================================

func (i RegOp) String() string {
	return fmt.Sprintf("\t%s\t%s, %s, %s", i.Opcode, i.Rd, i.Rs1, i.Rs2)
}

func (i ImmOp) String() string {
	return fmt.Sprintf("\t%s\t%s, %s, %d", i.Opcode, i.Rd, i.Rs, i.Imm)
}

func (i Auipc) String() string {
	return fmt.Sprintf("\tauipc\t%s, %d", i.Rd, i.Imm)
}

func (i Load) String() string {
	return fmt.Sprintf("\tld\t%s, %d(%s)", i.Rd, i.Off, i.Base)
}

func (i Store) String() string {
	return fmt.Sprintf("\tsd\t%s, %d(%s)", i.Rs, i.Off, i.Base)
}

// String 标签渲染为空行加 name:
func (i Label) String() string {
	return "\n" + i.Name + ":"
}

func (i Jal) String() string {
	return fmt.Sprintf("\tjal\t%s, %s", i.Rd, i.Target)
}

func (i Jalr) String() string {
	return fmt.Sprintf("\tjalr\t%s, %d(%s)", i.Rd, i.Off, i.Base)
}

func (i Beq) String() string {
	return fmt.Sprintf("\tbeq\t%s, %s, %s", i.Rs1, i.Rs2, i.Target)
}

// ============================================================================
// 谓词
// ============================================================================

// IsSmallConst 判断指令是否为小常量装载：ori Rd, X0, imm
func IsSmallConst(i Inst) bool {
	o, ok := i.(ImmOp)
	return ok && o.Opcode == OpOri && o.Rs == Zero && o.Rd != Zero && FitsImm12(o.Imm)
}

// IsMove 判断指令是否为寄存器复制：ori Rd, Rs, 0
func IsMove(i Inst) bool {
	o, ok := i.(ImmOp)
	return ok && o.Opcode == OpOri && o.Imm == 0 && o.Rd != Zero
}

// Encoded 判断指令是否占用编码空间（标签不占）
func Encoded(i Inst) bool {
	_, isLabel := i.(Label)
	return !isLabel
}

// Format 将指令序列渲染为汇编文本，每条一行
func Format(insts []Inst) string {
	var sb strings.Builder
	for _, i := range insts {
		sb.WriteString(i.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
