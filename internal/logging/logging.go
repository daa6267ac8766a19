// Package logging 构造命令行工具与语言服务器共用的 zap 日志
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建控制台格式的日志；file 为空时写到标准错误
func New(level zapcore.Level, file string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = level > zapcore.DebugLevel
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = []string{file}
	}
	return cfg.Build()
}

// Must 与 New 相同，失败时退回到不输出的日志
func Must(level zapcore.Level, file string) *zap.Logger {
	log, err := New(level, file)
	if err != nil {
		return zap.NewNop()
	}
	return log
}
