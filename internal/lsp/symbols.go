package lsp

import (
	"sort"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/stackrv/internal/script"
)

// ============================================================================
// 文档符号
// ============================================================================

// documentSymbols 列出脚本中的子程序定义
func (s *Server) documentSymbols(doc *Document) []protocol.DocumentSymbol {
	prog, _, _ := doc.Result(s.opts)
	symbols := []protocol.DocumentSymbol{}
	if prog == nil {
		return symbols
	}
	lines := doc.text()
	for _, def := range prog.Definitions() {
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           def.Name,
			Kind:           protocol.SymbolKindFunction,
			Range:          lines.toRange(def.Pos),
			SelectionRange: lines.toRange(def.NamePos),
		})
	}
	return symbols
}

// ============================================================================
// 跳转定义
// ============================================================================

// definition 从调用处跳到子程序定义；同名定义取最后一个出现在调用之前的
func (s *Server) definition(doc *Document, pos protocol.Position) *protocol.Location {
	prog, _, _ := doc.Result(s.opts)
	if prog == nil {
		return nil
	}
	lines := doc.text()
	line, col := lines.fromPosition(pos)
	w, ok := prog.WordAt(line, col)
	if !ok || (w.Op != script.OpCall && w.Op != script.OpDefine) {
		return nil
	}

	var target *script.Word
	defs := prog.Definitions()
	for i := range defs {
		if defs[i].Name != w.Name {
			continue
		}
		if target == nil || before(defs[i].Pos, w.Pos) {
			target = &defs[i]
		}
	}
	if target == nil {
		return nil
	}
	return &protocol.Location{
		URI:   protocol.DocumentURI(doc.URI),
		Range: lines.toRange(target.NamePos),
	}
}

func before(a, b script.Pos) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Column <= b.Column)
}

// ============================================================================
// 补全
// ============================================================================

// completions 内建词与已定义的子程序
func (s *Server) completions(doc *Document) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, name := range script.Builtins() {
		effect, _ := script.Effect(name)
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: effect,
		})
	}

	if prog, _, _ := doc.Result(s.opts); prog != nil {
		seen := make(map[string]bool)
		for _, def := range prog.Definitions() {
			if seen[def.Name] {
				continue
			}
			seen[def.Name] = true
			items = append(items, protocol.CompletionItem{
				Label:  def.Name,
				Kind:   protocol.CompletionItemKindFunction,
				Detail: "subroutine",
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Label < items[j].Label
	})
	return items
}
