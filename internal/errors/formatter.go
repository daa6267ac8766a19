package errors

import (
	"fmt"
	"strings"
)

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 诊断格式化器
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     ColorsEnabled(),
		ShowSource: true,
		ShowHints:  true,
		TabWidth:   4,
	}
}

// FormatDiagnostic 格式化单条诊断
//
//	error[G0001]: out of registers: all 8 temporaries are in use
//	 --> mul.srv:4:9
//	  |
//	4 | 1 2 3 4 5 6 7 8 9
//	  |                 ^
//	 = help: ...
func (f *Formatter) FormatDiagnostic(d *Diagnostic, sourceLines []string) string {
	var sb strings.Builder

	levelStr := f.colorize(d.Level.String(), f.levelColor(d.Level))
	codeStr := f.colorize(fmt.Sprintf("[%s]", d.Code), f.levelColor(d.Level))
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, d.Message))

	if d.File != "" {
		arrow := f.colorize("-->", ColorCyan)
		location := d.File
		if d.Line > 0 {
			location = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
		}
		sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, f.colorize(location, ColorCyan)))
	}

	if f.ShowSource && d.Line > 0 && d.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceLine(sourceLines[d.Line-1], d.Line, d.Column, d.EndColumn))
	}

	if f.ShowHints {
		for _, hint := range d.Hints {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}
	for _, note := range d.Notes {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = note:", ColorCyan), note))
	}

	return sb.String()
}

// formatSourceLine 格式化出错行并在下方标注列范围
func (f *Formatter) formatSourceLine(line string, lineNum, startCol, endCol int) string {
	var sb strings.Builder

	width := len(fmt.Sprintf("%d", lineNum))
	separator := f.colorize(strings.Repeat(" ", width)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	num := f.colorize(fmt.Sprintf("%*d", width, lineNum), ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", num, f.colorize(" |", ColorBlue), f.expandTabs(line)))

	if startCol > 0 {
		length := endCol - startCol
		if length < 1 {
			length = 1
		}
		pad := strings.Repeat(" ", f.actualColumn(line, startCol))
		sb.WriteString(separator + " " + pad + f.colorize(strings.Repeat("^", length), ColorRed) + "\n")
	}

	return sb.String()
}

// expandTabs 展开 Tab 为空格
func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// actualColumn 计算展开 Tab 后的列偏移
func (f *Formatter) actualColumn(line string, col int) int {
	actual := 0
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual
}

// levelColor 获取错误级别对应的颜色
func (f *Formatter) levelColor(level Level) Color {
	switch level {
	case LevelError:
		return ColorBoldRed
	case LevelWarning:
		return ColorBoldYellow
	case LevelNote:
		return ColorCyan
	case LevelHelp:
		return ColorGreen
	default:
		return ColorWhite
	}
}

// colorize 着色字符串
func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}
