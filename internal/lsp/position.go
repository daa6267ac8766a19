package lsp

import (
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/stackrv/internal/script"
)

// 脚本位置从 1 开始、列按 rune 计数；LSP 位置从 0 开始、列按 UTF-16 码元计数。
// 两者换算需要所在行的文本

// lineIndex 文档按行切分的文本
type lineIndex []string

func (li lineIndex) line(n int) string {
	if n < 1 || n > len(li) {
		return ""
	}
	return li[n-1]
}

// toRange 把词的位置转换为 LSP 范围
func (li lineIndex) toRange(pos script.Pos) protocol.Range {
	if pos.Line == 0 {
		return protocol.Range{}
	}
	end := pos.End
	if end <= pos.Column {
		end = pos.Column + 1
	}
	text := li.line(pos.Line)
	line := uint32(pos.Line - 1)
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: uint32(utf16Offset(text, pos.Column-1))},
		End:   protocol.Position{Line: line, Character: uint32(utf16Offset(text, end-1))},
	}
}

// fromPosition 把 LSP 位置转换为脚本的行列
func (li lineIndex) fromPosition(p protocol.Position) (line, column int) {
	line = int(p.Line) + 1
	return line, runeOffset(li.line(line), int(p.Character)) + 1
}

// utf16Offset 行首 n 个 rune 占用的 UTF-16 码元数；超出行尾的部分按每个 1 计
func utf16Offset(text string, n int) int {
	units := 0
	for _, r := range text {
		if n == 0 {
			return units
		}
		units += utf16.RuneLen(r)
		n--
	}
	return units + n
}

// runeOffset UTF-16 偏移对应的 rune 数；落在代理对中间时取该字符本身
func runeOffset(text string, units int) int {
	n := 0
	for len(text) > 0 && units > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		units -= utf16.RuneLen(r)
		n++
	}
	if units < 0 {
		n--
	}
	return n + max(units, 0)
}
