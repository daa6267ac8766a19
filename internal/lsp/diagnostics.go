package lsp

import (
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/script"
)

const diagnosticSource = "stackrv"

// toDiagnostics 把解析或生成错误展开为 LSP 诊断
func toDiagnostics(lines lineIndex, err error) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, e := range multierr.Errors(err) {
		d, ok := errors.As(e)
		if !ok {
			diags = append(diags, protocol.Diagnostic{
				Severity: protocol.DiagnosticSeverityError,
				Source:   diagnosticSource,
				Message:  e.Error(),
			})
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    lines.toRange(script.Pos{Line: d.Line, Column: d.Column, End: d.EndColumn}),
			Severity: severity(d.Level),
			Code:     d.Code,
			Source:   diagnosticSource,
			Message:  d.Message,
		})
	}
	return diags
}

func severity(level errors.Level) protocol.DiagnosticSeverity {
	switch level {
	case errors.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.LevelNote:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}
