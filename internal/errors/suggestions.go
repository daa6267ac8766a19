package errors

import "github.com/tangzhangming/stackrv/internal/i18n"

// ============================================================================
// 修复建议
// ============================================================================

// GetSuggestions 根据错误码获取修复建议
func GetSuggestions(code string) []string {
	info, ok := errorInfos[code]
	if !ok || info.HintID == "" {
		return nil
	}
	return []string{i18n.T(info.HintID)}
}

// withHints 为缺少建议的诊断补充建议
func withHints(d *Diagnostic) *Diagnostic {
	if len(d.Hints) == 0 {
		d.Hints = GetSuggestions(d.Code)
	}
	return d
}
