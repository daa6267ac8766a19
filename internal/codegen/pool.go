package codegen

import "fmt"

// ============================================================================
// 常量池
// ============================================================================

// ConstPool 放不进 12 位立即数的字面量。
// 第 k 个槽位（从 1 开始，按首次加入顺序）位于代码起点之前 8k 字节处，
// 清单中按最新在前的顺序输出，相同的值共用一个槽位。
type ConstPool struct {
	values []int64       // 按加入顺序
	index  map[int64]int // 值 -> 槽位
}

// Intern 返回 n 的槽位，必要时新建
func (p *ConstPool) Intern(n int64) int {
	if slot, ok := p.index[n]; ok {
		return slot
	}
	if p.index == nil {
		p.index = make(map[int64]int)
	}
	p.values = append(p.values, n)
	slot := len(p.values)
	p.index[n] = slot
	return slot
}

// Values 按清单顺序（最新在前）返回全部常量
func (p *ConstPool) Values() []int64 {
	out := make([]int64, len(p.values))
	for i, v := range p.values {
		out[len(p.values)-1-i] = v
	}
	return out
}

func localLabel(n int) string {
	return fmt.Sprintf(".L%d", n)
}
