// Package sim 解释执行生成的指令清单，用于验证优化前后的程序行为一致
package sim

import (
	"fmt"

	"github.com/tangzhangming/stackrv/internal/isa"
)

// ============================================================================
// 内存布局
// ============================================================================

const (
	// CodeBase 代码起点；常量池紧挨着放在它之前
	CodeBase int64 = 1 << 40
	// StackBase 数据栈指针初值，数据栈向低地址增长
	StackBase int64 = 1 << 32
	// ReturnBase 控制栈指针初值
	ReturnBase int64 = 1 << 33
	// Halt 返回到这个地址即停机
	Halt int64 = 0

	// DefaultMaxSteps 默认最大执行步数
	DefaultMaxSteps = 1 << 20
)

// ============================================================================
// 机器
// ============================================================================

// Machine 目标机解释器
type Machine struct {
	Regs     [isa.NumRegs]int64
	Mem      map[int64]int64
	Steps    int
	MaxSteps int

	code      []isa.Inst       // 只含占编码空间的指令
	labels    map[string]int64 // 标签 -> 地址
	imageLow  int64            // 常量池起点
	imageHigh int64            // 代码终点
}

// Load 装载指令与常量池（清单顺序，最新在前）
func Load(insts []isa.Inst, pool []int64) (*Machine, error) {
	m := &Machine{
		Mem:      make(map[int64]int64),
		MaxSteps: DefaultMaxSteps,
		labels:   make(map[string]int64),
	}

	// 常量池按清单顺序位于代码之前
	m.imageLow = CodeBase - isa.WordSize*int64(len(pool))
	for i, v := range pool {
		m.Mem[m.imageLow+isa.WordSize*int64(i)] = v
	}

	for _, inst := range insts {
		if l, ok := inst.(isa.Label); ok {
			if _, dup := m.labels[l.Name]; dup {
				return nil, fmt.Errorf("sim: duplicate label %q", l.Name)
			}
			m.labels[l.Name] = m.addr(len(m.code))
			continue
		}
		m.code = append(m.code, inst)
	}
	m.imageHigh = m.addr(len(m.code))

	// 跳转目标必须都已定义
	for _, inst := range m.code {
		var target string
		switch i := inst.(type) {
		case isa.Jal:
			target = i.Target
		case isa.Beq:
			target = i.Target
		default:
			continue
		}
		if _, ok := m.labels[target]; !ok {
			return nil, fmt.Errorf("sim: undefined label %q", target)
		}
	}

	m.Reset()
	return m, nil
}

// Reset 恢复寄存器初值，保留内存
func (m *Machine) Reset() {
	m.Regs = [isa.NumRegs]int64{}
	m.Regs[isa.RA] = Halt
	m.Regs[isa.DSP] = StackBase
	m.Regs[isa.RSP] = ReturnBase
	m.Steps = 0
}

func (m *Machine) addr(index int) int64 {
	return CodeBase + 4*int64(index)
}

// Entry 返回标签地址
func (m *Machine) Entry(label string) (int64, bool) {
	pc, ok := m.labels[label]
	return pc, ok
}

// Run 从指定标签开始执行；label 为空时从代码起点开始。
// 执行到代码末尾或返回到 Halt 时停机
func (m *Machine) Run(label string) error {
	pc := CodeBase
	if label != "" {
		var ok bool
		if pc, ok = m.Entry(label); !ok {
			return fmt.Errorf("sim: undefined label %q", label)
		}
	}
	return m.run(pc)
}

func (m *Machine) run(pc int64) error {
	for {
		if pc == Halt || pc == m.imageHigh {
			return nil
		}
		if pc < CodeBase || pc > m.imageHigh || (pc-CodeBase)%4 != 0 {
			return fmt.Errorf("sim: jump to invalid address %#x", pc)
		}
		if m.Steps >= m.MaxSteps {
			return fmt.Errorf("sim: step limit %d exceeded", m.MaxSteps)
		}
		m.Steps++

		inst := m.code[(pc-CodeBase)/4]
		next := pc + 4
		switch i := inst.(type) {
		case isa.RegOp:
			m.set(i.Rd, i.Opcode.Eval(m.Regs[i.Rs1], m.Regs[i.Rs2]))
		case isa.ImmOp:
			m.set(i.Rd, i.Opcode.Eval(m.Regs[i.Rs], i.Imm))
		case isa.Auipc:
			m.set(i.Rd, pc+i.Imm<<12)
		case isa.Load:
			m.set(i.Rd, m.Mem[m.Regs[i.Base]+i.Off])
		case isa.Store:
			m.Mem[m.Regs[i.Base]+i.Off] = m.Regs[i.Rs]
		case isa.Jal:
			m.set(i.Rd, next)
			next = m.labels[i.Target]
		case isa.Jalr:
			target := m.Regs[i.Base] + i.Off
			m.set(i.Rd, next)
			next = target
		case isa.Beq:
			if m.Regs[i.Rs1] == m.Regs[i.Rs2] {
				next = m.labels[i.Target]
			}
		default:
			return fmt.Errorf("sim: cannot execute %s", inst)
		}
		pc = next
	}
}

func (m *Machine) set(r isa.Reg, v int64) {
	if r != isa.Zero {
		m.Regs[r] = v
	}
}

// ============================================================================
// 栈视图
// ============================================================================

// SetStack 设置初始数据栈，values 栈顶在前
func (m *Machine) SetStack(values ...int64) {
	if len(values) == 0 {
		return
	}
	m.Regs[isa.DC] = values[0]
	for i, v := range values[1:] {
		m.Mem[m.Regs[isa.DSP]+isa.WordSize*int64(i)] = v
	}
}

// Stack 返回数据栈顶部 n 个元素，栈顶在前
func (m *Machine) Stack(n int) []int64 {
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	out[0] = m.Regs[isa.DC]
	for i := 1; i < n; i++ {
		out[i] = m.Mem[m.Regs[isa.DSP]+isa.WordSize*int64(i-1)]
	}
	return out
}

// Depth 数据栈相对初始状态的净增元素数
func (m *Machine) Depth() int {
	return int((StackBase - m.Regs[isa.DSP]) / isa.WordSize)
}

// ControlDepth 控制栈相对初始状态的净增元素数
func (m *Machine) ControlDepth() int {
	return int((ReturnBase - m.Regs[isa.RSP]) / isa.WordSize)
}

// DataMemory 返回程序映像以外的内存副本
func (m *Machine) DataMemory() map[int64]int64 {
	out := make(map[int64]int64, len(m.Mem))
	for a, v := range m.Mem {
		if a >= m.imageLow && a < m.imageHigh {
			continue
		}
		out[a] = v
	}
	return out
}
