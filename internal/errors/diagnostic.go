package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/tangzhangming/stackrv/internal/i18n"
)

// ============================================================================
// 诊断
// ============================================================================

// Diagnostic 带错误码与位置的诊断信息，实现 error 接口
type Diagnostic struct {
	Code      string   // 错误码 (G0001)
	Level     Level    // 错误级别
	Message   string   // 主消息
	File      string   // 文件路径
	Line      int      // 行号（从 1 开始，0 表示无位置）
	Column    int      // 列号（从 1 开始）
	EndColumn int      // 结束列
	Hints     []string // 修复建议
	Notes     []string // 附加说明
}

// Error 实现 error 接口
func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s [%s]", d.File, d.Line, d.Column, d.Message, d.Code)
	}
	if d.File != "" {
		return fmt.Sprintf("%s: %s [%s]", d.File, d.Message, d.Code)
	}
	return fmt.Sprintf("%s [%s]", d.Message, d.Code)
}

// New 按错误码创建诊断，消息取自当前语言的消息表
func New(code string, args ...interface{}) *Diagnostic {
	info, ok := errorInfos[code]
	if !ok {
		return &Diagnostic{Code: code, Level: LevelError, Message: fmt.Sprint(args...)}
	}
	d := &Diagnostic{Code: code, Level: info.Level}
	if info.MessageID != "" {
		d.Message = i18n.T(info.MessageID, args...)
	}
	return d
}

// Newf 使用自定义消息创建诊断
func Newf(code string, format string, args ...interface{}) *Diagnostic {
	level := LevelError
	if info, ok := errorInfos[code]; ok {
		level = info.Level
	}
	return &Diagnostic{Code: code, Level: level, Message: fmt.Sprintf(format, args...)}
}

// NewMsg 按错误码创建诊断，但消息取自指定的消息 ID（同一错误码有多种消息时使用）
func NewMsg(code, msgID string, args ...interface{}) *Diagnostic {
	d := New(code)
	d.Message = i18n.T(msgID, args...)
	return d
}

// At 返回附加了位置的副本
func (d *Diagnostic) At(file string, line, column, endColumn int) *Diagnostic {
	c := *d
	c.File = file
	c.Line = line
	c.Column = column
	c.EndColumn = endColumn
	return &c
}

// WithNote 追加说明
func (d *Diagnostic) WithNote(format string, args ...interface{}) *Diagnostic {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
	return d
}

// As 从错误链中取出诊断
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if stderrors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// CodeOf 返回错误链中诊断的错误码，没有时返回空串
func CodeOf(err error) string {
	if d, ok := As(err); ok {
		return d.Code
	}
	return ""
}
