// Package errors 提供 stackrv 的诊断系统：错误码、定位信息、修复建议与彩色输出
package errors

import "github.com/tangzhangming/stackrv/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// 错误码
// ============================================================================

const (
	// G0001-G0099: 代码生成错误（会话中止）
	G0001 = "G0001" // 寄存器耗尽
	G0002 = "G0002" // 条件块嵌套不平衡
	G0003 = "G0003" // 控制转移前未提交
	G0004 = "G0004" // 子程序外使用 recurse
	G0005 = "G0005" // 常量池超出寻址范围

	// S0001-S0099: 操作脚本错误
	S0001 = "S0001" // 无效的数字
	S0002 = "S0002" // 缺少名字
	S0003 = "S0003" // 未闭合的注释
	S0004 = "S0004" // 保留字不能作为名字

	// C0001-C0099: 配置错误
	C0001 = "C0001" // 读取失败
	C0002 = "C0002" // 解析失败
	C0003 = "C0003" // 无效的日志级别
	C0004 = "C0004" // 不支持的语言
)

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	HintID    string // i18n 修复建议 ID（可选）
	Category  string // 错误分类
}

var errorInfos = map[string]ErrorInfo{
	G0001: {G0001, LevelError, i18n.ErrOutOfRegisters, i18n.HintOutOfRegisters, "codegen"},
	G0002: {G0002, LevelError, "", i18n.HintUnbalanced, "codegen"},
	G0003: {G0003, LevelError, i18n.ErrCommitInvariant, i18n.HintCommit, "codegen"},
	G0004: {G0004, LevelError, i18n.ErrRecurseOutside, i18n.HintRecurse, "codegen"},
	G0005: {G0005, LevelError, i18n.ErrPoolOutOfReach, i18n.HintPool, "codegen"},

	S0001: {S0001, LevelError, i18n.ErrInvalidNumber, i18n.HintInvalidNumber, "script"},
	S0002: {S0002, LevelError, i18n.ErrMissingName, i18n.HintMissingName, "script"},
	S0003: {S0003, LevelError, i18n.ErrUnterminatedComment, "", "script"},
	S0004: {S0004, LevelError, i18n.ErrReservedName, "", "script"},

	C0001: {C0001, LevelError, i18n.ErrConfigRead, "", "config"},
	C0002: {C0002, LevelError, i18n.ErrConfigParse, i18n.HintConfig, "config"},
	C0003: {C0003, LevelError, i18n.ErrConfigLevel, i18n.HintConfig, "config"},
	C0004: {C0004, LevelError, i18n.ErrConfigLang, i18n.HintConfig, "config"},
}

// GetErrorInfo 获取错误码信息
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := errorInfos[code]
	return info, ok
}

// IsCodegenError 检查是否为代码生成错误码
func IsCodegenError(code string) bool {
	info, ok := errorInfos[code]
	return ok && info.Category == "codegen"
}
