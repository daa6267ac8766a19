package lsp

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/stackrv/internal/isa"
	"github.com/tangzhangming/stackrv/internal/script"
)

// hover 返回光标处词的说明
func (s *Server) hover(doc *Document, pos protocol.Position) *protocol.Hover {
	prog, insts, _ := doc.Result(s.opts)
	if prog == nil {
		return nil
	}
	lines := doc.text()
	line, col := lines.fromPosition(pos)
	w, ok := prog.WordAt(line, col)
	if !ok {
		return nil
	}

	var b strings.Builder
	switch w.Op {
	case script.OpLiteral:
		fmt.Fprintf(&b, "**%d** (0x%x)\n\n", w.Value, w.Value)
		if isa.FitsImm12(w.Value) {
			b.WriteString("12 位立即数，直接装入寄存器")
		} else {
			b.WriteString("超出 12 位立即数范围，从常量池装载")
		}
	case script.OpDefine, script.OpCall:
		if w.Op == script.OpDefine {
			fmt.Fprintf(&b, "子程序 **%s**", w.Name)
		} else {
			fmt.Fprintf(&b, "调用 **%s**", w.Name)
		}
		if body := subroutineListing(insts, w.Name); body != "" {
			fmt.Fprintf(&b, "\n\n```asm\n%s```", body)
		}
	default:
		effect, ok := script.Effect(w.Text)
		if !ok {
			return nil
		}
		fmt.Fprintf(&b, "**%s** `%s`", w.Text, effect)
	}

	r := lines.toRange(w.Pos)
	if w.Op != script.OpLiteral && w.NamePos.Line > 0 && line == w.NamePos.Line && col >= w.NamePos.Column {
		r = lines.toRange(w.NamePos)
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: b.String(),
		},
		Range: &r,
	}
}

// subroutineListing 截取子程序的生成代码，直到下一个子程序标签
func subroutineListing(insts []isa.Inst, name string) string {
	var b strings.Builder
	inside := false
	for _, in := range insts {
		if l, ok := in.(isa.Label); ok {
			if l.Name == name {
				inside = true
				continue
			}
			if inside && !strings.HasPrefix(l.Name, ".") {
				break
			}
		}
		if inside {
			b.WriteString(strings.TrimPrefix(in.String(), "\n"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
